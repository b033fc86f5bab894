// Package chainclient defines the abstract per-chain transaction surface
// and its concrete implementations.
package chainclient

import (
	"context"
	"math/big"

	"github.com/defisafe/walletd/internal/derivation"
	"github.com/defisafe/walletd/internal/secretbuf"
)

// TxStatus is the coarse confirmation state of a submitted transaction.
type TxStatus string

const (
	StatusPending   TxStatus = "Pending"
	StatusConfirmed TxStatus = "Confirmed"
	StatusFailed    TxStatus = "Failed"
	StatusUnknown   TxStatus = "Unknown"
)

// FeeEstimate is the chain-family-specific fee quote the signing pipeline
// uses to build a transaction.
type FeeEstimate struct {
	// EVM fields (EIP-1559); zero for non-EVM families.
	MaxFeePerGasWei         *big.Int
	MaxPriorityFeePerGasWei *big.Int
	GasLimit                uint64

	// TotalFee is a decimal-string fee quote usable by any chain family,
	// including Bitcoin's sat/vByte-derived flat fee.
	TotalFee string
}

// SignRequest carries everything ChainClient.BuildAndSign needs. SigningKey
// must remain valid for the call's duration; the caller owns its lifetime
// and closes it afterward.
type SignRequest struct {
	From       string
	To         string
	AmountWei  *big.Int // canonical integer amount in the chain's smallest unit
	Nonce      uint64
	Fee        FeeEstimate
	SigningKey *secretbuf.Buffer
}

// SignedTx is an opaque, chain-family-specific signed transaction ready
// for Submit.
type SignedTx struct {
	Raw    []byte
	TxHash string
}

// ChainClient is implemented once per chain family.
type ChainClient interface {
	Network() derivation.Network
	GetBalance(ctx context.Context, address string) (string, error)
	GetNonce(ctx context.Context, address string) (uint64, error)
	EstimateFee(ctx context.Context, to string, amountWei *big.Int) (FeeEstimate, error)
	BuildAndSign(ctx context.Context, req SignRequest) (*SignedTx, error)
	Submit(ctx context.Context, tx *SignedTx) (string, error)
	Status(ctx context.Context, txHash string) (TxStatus, error)
	ValidateAddress(address string) bool
}
