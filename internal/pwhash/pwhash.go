// Package pwhash implements memory-hard password hashing (bcrypt,
// cost >= 10), shared by the wallet-password verifier and AuthStore's
// user password hashes. Parameters are embedded in bcrypt's own output,
// so rotating BCRYPT_COST is transparent to existing hashes.
package pwhash

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/defisafe/walletd/internal/walleterr"
)

// MinCost is the minimum allowed value for BCRYPT_COST.
const MinCost = 10

// DefaultCost is used when no BCRYPT_COST override is configured.
const DefaultCost = 12

// Hash computes a bcrypt hash of password at cost. Cost below MinCost is
// rejected rather than silently clamped, so misconfiguration fails loudly
// at startup instead of weakening every hash it produces.
func Hash(password string, cost int) ([]byte, error) {
	if cost < MinCost {
		return nil, walleterr.Validation("WEAK_HASH_COST", "BCRYPT_COST must be >= 10")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, walleterr.Internal(err)
	}
	return hash, nil
}

// Verify reports whether password matches hash, in constant time relative
// to the hash's own cost parameter (bcrypt.CompareHashAndPassword's
// guarantee). Never distinguishes "no hash" from "wrong password" beyond
// returning false in both cases.
func Verify(hash []byte, password string) bool {
	if len(hash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}
