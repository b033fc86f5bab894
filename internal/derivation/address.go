package derivation

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // required for BIP44 hash160, no maintained replacement
	"golang.org/x/crypto/sha3"
)

func hash160(b []byte) []byte {
	sum := sha256.Sum256(b)
	h := ripemd160.New()
	h.Write(sum[:])
	return h.Sum(nil)
}

// deriveAddress produces the canonical address string for priv under
// network: lowercase 0x-prefixed hex for EVM families, base58check/
// bech32/bech32m for the three Bitcoin families.
func deriveAddress(priv []byte, network Network) (string, error) {
	privKey, _ := btcec.PrivKeyFromBytes(priv)
	pub := privKey.PubKey()

	switch network.Family {
	case FamilyEVM:
		uncompressed := pub.SerializeUncompressed() // 0x04 || X(32) || Y(32)
		hasher := sha3.NewLegacyKeccak256()
		hasher.Write(uncompressed[1:])
		digest := hasher.Sum(nil)
		return "0x" + hex.EncodeToString(digest[12:]), nil

	case FamilyBitcoinLegacy:
		h := hash160(pub.SerializeCompressed())
		return base58CheckEncode(0x00, h), nil

	case FamilyBitcoinSegwit:
		h := hash160(pub.SerializeCompressed())
		return segwitAddress("bc", 0, h)

	case FamilyBitcoinTaproot:
		outputKey, err := taprootOutputKey(priv)
		if err != nil {
			return "", err
		}
		return segwitAddress("bc", 1, outputKey)

	default:
		return "", fmt.Errorf("derivation: address encoding not implemented for family %q", network.Family)
	}
}

// taprootOutputKey computes the key-path-only (no script tree) BIP341
// tweaked output key: P_output = lift_x(P_internal) + H_TapTweak(x(P_internal))*G,
// returned as its 32-byte x-only encoding. Since the caller holds the
// private scalar, the tweak is applied to the scalar directly rather than
// via generic point addition.
func taprootOutputKey(priv []byte) ([]byte, error) {
	privKey, _ := btcec.PrivKeyFromBytes(priv)
	pub := privKey.PubKey()
	compressed := pub.SerializeCompressed()
	xOnly := compressed[1:]

	scalar := new(big.Int).SetBytes(priv)
	curveN := btcec.S256().Params().N
	if compressed[0] == 0x03 {
		// Odd-y internal key: negate the scalar so the lifted point has
		// even y, per BIP341's lift_x convention.
		scalar.Sub(curveN, scalar)
		scalar.Mod(scalar, curveN)
	}

	tweak := taggedHash("TapTweak", xOnly)
	tweakInt := new(big.Int).SetBytes(tweak)
	if tweakInt.Cmp(curveN) >= 0 {
		return nil, fmt.Errorf("derivation: taproot tweak out of range")
	}

	outScalar := new(big.Int).Add(scalar, tweakInt)
	outScalar.Mod(outScalar, curveN)
	if outScalar.Sign() == 0 {
		return nil, fmt.Errorf("derivation: taproot output key is zero")
	}

	outBytes := make([]byte, 32)
	b := outScalar.Bytes()
	copy(outBytes[32-len(b):], b)

	outPrivKey, _ := btcec.PrivKeyFromBytes(outBytes)
	return outPrivKey.PubKey().SerializeCompressed()[1:], nil
}

func taggedHash(tag string, msg []byte) []byte {
	tagHash := sha256.Sum256([]byte(tag))
	h := sha256.New()
	h.Write(tagHash[:])
	h.Write(tagHash[:])
	h.Write(msg)
	return h.Sum(nil)
}
