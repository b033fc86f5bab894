// Package walletcodec implements encryption/decryption of SecureWalletData
// records: HKDF-SHA256 expands the process KEK into a per-record key,
// which seals the master key with an AEAD. Schema version 2 is current;
// version 1 remains readable for backward compatibility.
package walletcodec

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/defisafe/walletd/internal/kek"
	"github.com/defisafe/walletd/internal/secretbuf"
	"github.com/defisafe/walletd/internal/walletmodel"
)

const (
	// CurrentSchemaVersion is produced by every encrypt call.
	CurrentSchemaVersion = 2
	minSchemaVersion     = 1

	saltSize  = 16
	nonceSize = chacha20poly1305.NonceSize // 12 bytes
)

var (
	// ErrAuthenticationFailed covers AEAD tag mismatch, whether from a
	// wrong KEK or a corrupted record — callers must not distinguish the
	// two.
	ErrAuthenticationFailed = errors.New("walletcodec: authentication failed")
	ErrUnsupportedSchema    = errors.New("walletcodec: unsupported schema version")
	ErrCrypto               = errors.New("walletcodec: crypto primitive failure")
)

// hkdfInfo builds the versioned HKDF "info" parameter.
func hkdfInfo(schemaVersion int, w walletmodel.WalletInfo) []byte {
	switch schemaVersion {
	case 1:
		return append([]byte("wallet-master-key"), []byte(w.Name)...)
	default:
		return append([]byte("wallet-master-key-v2"), w.ID[:]...)
	}
}

// aad builds the versioned associated-authenticated-data. v2 binds to the
// immutable UUID so renames (if ever added) cannot invalidate ciphertexts
// and name collisions cannot unlock an old record.
func aad(schemaVersion int, w walletmodel.WalletInfo) []byte {
	switch schemaVersion {
	case 1:
		return []byte(w.Name)
	default:
		out := append([]byte("DEFISAFE-AAD-V2"), w.ID[:]...)
		return out
	}
}

func deriveRecordKey(kekBuf *secretbuf.Buffer, salt []byte, schemaVersion int, w walletmodel.WalletInfo) (*secretbuf.Buffer, error) {
	var out *secretbuf.Buffer
	err := kekBuf.With(func(ikm []byte) error {
		reader := hkdf.New(sha256.New, ikm, salt, hkdfInfo(schemaVersion, w))
		key := make([]byte, chacha20poly1305.KeySize)
		if _, err := io.ReadFull(reader, key); err != nil {
			return fmt.Errorf("%w: hkdf expand: %v", ErrCrypto, err)
		}
		out = secretbuf.New(key)
		return nil
	})
	return out, err
}

// Encrypt seals plaintext (the 64-byte BIP32 seed/master) under the KEK
// identified by kekID, producing a fresh schema-v2 record for wallet w.
// Fails with an error wrapping ErrCrypto on any primitive failure; the
// error text names the failing step.
func Encrypt(plaintext []byte, w walletmodel.WalletInfo, kekBuf *secretbuf.Buffer, kekID string) (*walletmodel.SecureWalletData, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("%w: salt: %v", ErrCrypto, err)
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("%w: nonce: %v", ErrCrypto, err)
	}

	recordKey, err := deriveRecordKey(kekBuf, salt, CurrentSchemaVersion, w)
	if err != nil {
		return nil, err
	}
	defer recordKey.Close()

	var ciphertext []byte
	err = recordKey.With(func(rk []byte) error {
		aead, aeadErr := chacha20poly1305.New(rk)
		if aeadErr != nil {
			return fmt.Errorf("%w: aead init: %v", ErrCrypto, aeadErr)
		}
		ciphertext = aead.Seal(nil, nonce, plaintext, aad(CurrentSchemaVersion, w))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &walletmodel.SecureWalletData{
		Info:               w,
		EncryptedMasterKey: ciphertext,
		Salt:               salt,
		Nonce:               nonce,
		SchemaVersion:      CurrentSchemaVersion,
		KEKID:              kekID,
	}, nil
}

// Decrypt resolves record.KEKID (defaulting to provider.CurrentID() for
// legacy records with no kek_id) and reverses Encrypt, returning the
// plaintext in a SecretBuffer. Fails with ErrAuthenticationFailed on tag
// mismatch, never distinguishing cause.
func Decrypt(record *walletmodel.SecureWalletData, provider kek.Provider) (*secretbuf.Buffer, error) {
	if record.SchemaVersion < minSchemaVersion || record.SchemaVersion > CurrentSchemaVersion {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedSchema, record.SchemaVersion)
	}

	kekID := record.KEKID
	if kekID == "" {
		kekID = provider.CurrentID()
	}
	kekBuf, err := provider.Get(kekID)
	if err != nil {
		return nil, err
	}
	defer kekBuf.Close()

	recordKey, err := deriveRecordKey(kekBuf, record.Salt, record.SchemaVersion, record.Info)
	if err != nil {
		return nil, err
	}
	defer recordKey.Close()

	var plaintext []byte
	err = recordKey.With(func(rk []byte) error {
		aeadCipher, aeadErr := chacha20poly1305.New(rk)
		if aeadErr != nil {
			return fmt.Errorf("%w: aead init: %v", ErrCrypto, aeadErr)
		}
		out, openErr := aeadCipher.Open(nil, record.Nonce, record.EncryptedMasterKey, aad(record.SchemaVersion, record.Info))
		if openErr != nil {
			return ErrAuthenticationFailed
		}
		plaintext = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return secretbuf.New(plaintext), nil
}

// Reencrypt decrypts record under oldProvider and re-encrypts the same
// plaintext under newProvider's current KEK, producing a new record whose
// kek_id reflects the new KEK. The plaintext never leaves a SecretBuffer
// between the two steps.
func Reencrypt(record *walletmodel.SecureWalletData, oldProvider, newProvider kek.Provider) (*walletmodel.SecureWalletData, error) {
	plaintext, err := Decrypt(record, oldProvider)
	if err != nil {
		return nil, err
	}
	defer plaintext.Close()

	newKekBuf, err := newProvider.Get(newProvider.CurrentID())
	if err != nil {
		return nil, err
	}
	defer newKekBuf.Close()

	var out *walletmodel.SecureWalletData
	err = plaintext.With(func(p []byte) error {
		rec, encErr := Encrypt(p, record.Info, newKekBuf, newProvider.CurrentID())
		if encErr != nil {
			return encErr
		}
		rec.PasswordVerifier = record.PasswordVerifier
		rec.ShamirShares = record.ShamirShares
		out = rec
		return nil
	})
	return out, err
}
