package derivation

import (
	"fmt"

	"github.com/defisafe/walletd/internal/secretbuf"
)

// Engine derives per-chain signing keys and addresses from a master seed:
// BIP39 mnemonic -> seed -> BIP32 master -> per-chain child keys and
// addresses.
type Engine struct{}

// NewEngine returns a stateless DerivationEngine; all state lives in the
// caller-supplied seed.
func NewEngine() *Engine { return &Engine{} }

// DeriveSigningKey derives network's BIP44-family child private key from
// masterSeed, returning it in a SecretBuffer the caller must Close.
func (e *Engine) DeriveSigningKey(masterSeed *secretbuf.Buffer, network Network) (*secretbuf.Buffer, error) {
	path, err := parsePath(network.Path())
	if err != nil {
		return nil, err
	}
	var out *secretbuf.Buffer
	err = masterSeed.With(func(seed []byte) error {
		child, derivErr := deriveChildKey(seed, path)
		if derivErr != nil {
			return fmt.Errorf("derivation: derive signing key: %w", derivErr)
		}
		out = secretbuf.New(child)
		return nil
	})
	return out, err
}

// DeriveAddress derives network's canonical address string from masterSeed.
// Deterministic: the same seed and network always yield the same address.
func (e *Engine) DeriveAddress(masterSeed *secretbuf.Buffer, network Network) (string, error) {
	signingKey, err := e.DeriveSigningKey(masterSeed, network)
	if err != nil {
		return "", err
	}
	defer signingKey.Close()

	var address string
	err = signingKey.With(func(priv []byte) error {
		addr, addrErr := deriveAddress(priv, network)
		if addrErr != nil {
			return addrErr
		}
		address = addr
		return nil
	})
	return address, err
}
