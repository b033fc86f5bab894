package derivation

import (
	"crypto/sha256"
	"math/big"
)

// base58check encodes Bitcoin legacy (P2PKH) addresses: a direct
// from-scratch implementation of the well-known alphabet and
// double-SHA256 checksum (documented in DESIGN.md as a standard-library
// exception).
const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

var base58BigRadix = big.NewInt(58)

func base58Encode(input []byte) string {
	x := new(big.Int).SetBytes(input)
	answer := make([]byte, 0, len(input)*138/100+1)
	mod := new(big.Int)
	for x.Sign() > 0 {
		x.DivMod(x, base58BigRadix, mod)
		answer = append(answer, base58Alphabet[mod.Int64()])
	}

	for _, b := range input {
		if b != 0 {
			break
		}
		answer = append(answer, base58Alphabet[0])
	}

	// reverse
	for i, j := 0, len(answer)-1; i < j; i, j = i+1, j-1 {
		answer[i], answer[j] = answer[j], answer[i]
	}
	return string(answer)
}

func doubleSHA256(b []byte) []byte {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])
	return second[:]
}

// base58CheckEncode prefixes version, appends a double-SHA256 checksum
// (first 4 bytes), then base58-encodes the result.
func base58CheckEncode(version byte, payload []byte) string {
	full := make([]byte, 0, 1+len(payload)+4)
	full = append(full, version)
	full = append(full, payload...)
	checksum := doubleSHA256(full)
	full = append(full, checksum[:4]...)
	return base58Encode(full)
}
