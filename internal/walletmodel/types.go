// Package walletmodel holds the persisted and in-memory record shapes
// shared across the signing core.
package walletmodel

import (
	"time"

	"github.com/google/uuid"
)

// WalletInfo is the non-secret metadata half of a wallet record.
type WalletInfo struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	CreatedAt       time.Time `json:"createdAt"`
	QuantumSafe     bool      `json:"quantumSafe"`
	MultiSigThreshold int     `json:"multiSigThreshold"`
	Networks        []string  `json:"networks"`
	// DerivationEpoch increments on every key-rotation call so the
	// operation is idempotent on replay.
	DerivationEpoch uint64 `json:"derivationEpoch"`
	// FailedLoginCount/LockedUntil implement the per-wallet password lockout,
	// distinct from AuthStore's per-user counter.
	// These persist with the record (walletstore marshals WalletInfo
	// directly); the HTTP layer's response DTO omits them rather than
	// relying on a json:"-" tag here, so wallet-list views don't leak them.
	FailedLoginCount int        `json:"failedLoginCount"`
	LockedUntil      *time.Time `json:"lockedUntil,omitempty"`
}

// SecureWalletData is the persisted wallet record. EncryptedMasterKey,
// Salt and Nonce never leave this struct except through walletcodec.
type SecureWalletData struct {
	Info                WalletInfo `json:"info"`
	EncryptedMasterKey  []byte     `json:"encryptedMasterKey"`
	Salt                []byte     `json:"salt"`
	Nonce               []byte     `json:"nonce"`
	SchemaVersion       int        `json:"schemaVersion"`
	KEKID               string     `json:"kekId,omitempty"`
	ShamirShares        [][]byte   `json:"shamirShares,omitempty"`
	// PasswordVerifier is the memory-hard KDF output authenticating the
	// wallet password. Not secret key material; it is a one-way hash and
	// is stored alongside the encrypted record.
	PasswordVerifier []byte `json:"passwordVerifier"`
}

// BridgeStatus is one of the lattice states a bridge transfer moves
// through.
type BridgeStatus string

const (
	BridgeInitiated BridgeStatus = "Initiated"
	BridgeInTransit BridgeStatus = "InTransit"
	BridgeCompleted BridgeStatus = "Completed"
	BridgeFailed    BridgeStatus = "Failed"
)

// BridgeTransfer tracks one cross-chain transfer's state machine.
type BridgeTransfer struct {
	ID                      uuid.UUID    `json:"id"`
	FromWallet              string       `json:"fromWallet"`
	FromChain               string       `json:"fromChain"`
	ToChain                 string       `json:"toChain"`
	Token                   string       `json:"token"`
	Amount                  string       `json:"amount"`
	Status                  BridgeStatus `json:"status"`
	FailureReason           string       `json:"failureReason,omitempty"`
	SourceTxHash            string       `json:"sourceTxHash,omitempty"`
	DestinationTxHash       string       `json:"destinationTxHash,omitempty"`
	CreatedAt               time.Time    `json:"createdAt"`
	UpdatedAt               time.Time    `json:"updatedAt"`
	FeeAmount               string       `json:"feeAmount,omitempty"`
	EstimatedCompletionTime *time.Time   `json:"estimatedCompletionTime,omitempty"`
}

// Session is a sliding-expiry session token.
type Session struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"userId"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
	ExpiresAt    time.Time `json:"expiresAt"`
	IPAddress    string    `json:"ipAddress,omitempty"`
	UserAgent    string    `json:"userAgent,omitempty"`
}

// User is an account record. Persisted directly by
// internal/authstore; the HTTP layer's response DTO is responsible for
// dropping PasswordHash and the lockout bookkeeping before a User ever
// reaches a client, rather than a json:"-" tag here (which would also
// hide these fields from the store's own persistence round-trip).
type User struct {
	ID               uuid.UUID  `json:"id"`
	Email            string     `json:"email"`
	PasswordHash     []byte     `json:"passwordHash"`
	Username         string     `json:"username,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
	FailedLoginCount int        `json:"failedLoginCount"`
	LockedUntil      *time.Time `json:"lockedUntil,omitempty"`
	Disabled         bool       `json:"disabled"`
}
