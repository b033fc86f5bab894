package derivation

import (
	"fmt"

	"github.com/tyler-smith/go-bip39"
)

// GenerateMnemonic produces a BIP39 mnemonic of the requested entropy size.
// Allowed sizes match BIP39's defined checksum lengths.
func GenerateMnemonic(bits int) (string, error) {
	if err := validateMnemonicBits(bits); err != nil {
		return "", err
	}
	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return "", fmt.Errorf("derivation: entropy: %w", err)
	}
	return bip39.NewMnemonic(entropy)
}

func validateMnemonicBits(bits int) error {
	switch bits {
	case 128, 160, 192, 224, 256:
		return nil
	default:
		return fmt.Errorf("derivation: invalid mnemonic bits %d (allowed: 128,160,192,224,256)", bits)
	}
}

// SeedFromMnemonic derives the 64-byte BIP39 seed from a mnemonic and
// optional passphrase, validating the mnemonic's checksum first.
func SeedFromMnemonic(mnemonic, passphrase string) ([]byte, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("derivation: invalid mnemonic")
	}
	return bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
}
