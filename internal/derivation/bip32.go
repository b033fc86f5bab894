package derivation

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
)

// bip32Key is a private scalar plus its chain code, the pair BIP32
// derivation threads down through a path.
type bip32Key struct {
	key       []byte // 32 bytes
	chainCode []byte // 32 bytes
}

func masterKeyFromSeed(seed []byte) (bip32Key, error) {
	mac := hmac.New(sha512.New, []byte("Bitcoin seed"))
	if _, err := mac.Write(seed); err != nil {
		return bip32Key{}, err
	}
	sum := mac.Sum(nil)
	key := append([]byte(nil), sum[:32]...)
	chainCode := append([]byte(nil), sum[32:]...)
	if err := validateScalar(key); err != nil {
		return bip32Key{}, fmt.Errorf("derivation: invalid bip32 master key: %w", err)
	}
	return bip32Key{key: key, chainCode: chainCode}, nil
}

func (k bip32Key) deriveChild(index uint32) (bip32Key, error) {
	if len(k.key) != 32 || len(k.chainCode) != 32 {
		return bip32Key{}, fmt.Errorf("derivation: invalid bip32 parent key material")
	}

	data := make([]byte, 37)
	if index >= hardenedOffset {
		data[0] = 0x00
		copy(data[1:33], k.key)
	} else {
		priv, _ := btcec.PrivKeyFromBytes(k.key)
		copy(data[:33], priv.PubKey().SerializeCompressed())
	}
	binary.BigEndian.PutUint32(data[33:], index)

	mac := hmac.New(sha512.New, k.chainCode)
	if _, err := mac.Write(data); err != nil {
		return bip32Key{}, err
	}
	sum := mac.Sum(nil)
	il, ir := sum[:32], sum[32:]

	curveN := btcec.S256().Params().N
	ilInt := new(big.Int).SetBytes(il)
	if ilInt.Sign() == 0 || ilInt.Cmp(curveN) >= 0 {
		return bip32Key{}, fmt.Errorf("derivation: invalid bip32 child scalar")
	}
	parentInt := new(big.Int).SetBytes(k.key)
	childInt := new(big.Int).Add(ilInt, parentInt)
	childInt.Mod(childInt, curveN)
	if childInt.Sign() == 0 {
		return bip32Key{}, fmt.Errorf("derivation: invalid bip32 child key: zero")
	}

	childKey := make([]byte, 32)
	childBytes := childInt.Bytes()
	copy(childKey[32-len(childBytes):], childBytes)
	return bip32Key{key: childKey, chainCode: append([]byte(nil), ir...)}, nil
}

func validateScalar(key []byte) error {
	if len(key) != 32 {
		return fmt.Errorf("invalid scalar length %d", len(key))
	}
	curveN := btcec.S256().Params().N
	v := new(big.Int).SetBytes(key)
	if v.Sign() == 0 || v.Cmp(curveN) >= 0 {
		return fmt.Errorf("scalar out of range")
	}
	return nil
}

// deriveChildKey walks path from the BIP39 seed's master key, returning the
// final 32-byte private scalar.
func deriveChildKey(seed []byte, path []uint32) ([]byte, error) {
	k, err := masterKeyFromSeed(seed)
	if err != nil {
		return nil, err
	}
	for _, index := range path {
		k, err = k.deriveChild(index)
		if err != nil {
			return nil, err
		}
	}
	return k.key, nil
}
