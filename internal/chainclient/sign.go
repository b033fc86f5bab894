package chainclient

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
)

// ecdsaSignRecoverable signs digest (32 bytes) with priv (32-byte secp256k1
// scalar), returning (r, s, recoveryID) in Ethereum's convention: r and s
// are the standard ECDSA values (low-S normalized), recoveryID in {0,1}
// selects which of the two candidate R points was used. crypto/ecdsa does
// not expose the ephemeral point's parity, so the nonce k is generated and
// consumed directly here rather than going through the stdlib signer.
func ecdsaSignRecoverable(priv []byte, digest []byte) (r, s *big.Int, recoveryID byte, err error) {
	curve := btcec.S256()
	n := curve.Params().N
	halfN := new(big.Int).Rsh(n, 1)
	d := new(big.Int).SetBytes(priv)
	z := new(big.Int).SetBytes(digest)

	for attempt := 0; attempt < 256; attempt++ {
		k, genErr := rand.Int(rand.Reader, new(big.Int).Sub(n, big.NewInt(1)))
		if genErr != nil {
			return nil, nil, 0, fmt.Errorf("chainclient: sign: rng: %w", genErr)
		}
		k.Add(k, big.NewInt(1))

		rx, ry := curve.ScalarBaseMult(k.Bytes())
		rCandidate := new(big.Int).Mod(rx, n)
		if rCandidate.Sign() == 0 {
			continue
		}

		kInv := new(big.Int).ModInverse(k, n)
		if kInv == nil {
			continue
		}
		sCandidate := new(big.Int).Mul(rCandidate, d)
		sCandidate.Add(sCandidate, z)
		sCandidate.Mul(sCandidate, kInv)
		sCandidate.Mod(sCandidate, n)
		if sCandidate.Sign() == 0 {
			continue
		}

		recID := byte(ry.Bit(0))
		if sCandidate.Cmp(halfN) > 0 {
			sCandidate.Sub(n, sCandidate)
			recID ^= 1
		}
		return rCandidate, sCandidate, recID, nil
	}
	return nil, nil, 0, fmt.Errorf("chainclient: sign: exhausted retries")
}

// privateKeyToPublicAddress returns the 65-byte uncompressed public key for
// priv. It is used only by tests.
func privateKeyToPublicAddress(priv []byte) ([]byte, error) {
	privKey, _ := btcec.PrivKeyFromBytes(priv)
	return privKey.PubKey().SerializeUncompressed(), nil
}
