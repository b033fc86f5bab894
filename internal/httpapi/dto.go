package httpapi

import (
	"time"

	"github.com/google/uuid"

	"github.com/defisafe/walletd/internal/signing"
	"github.com/defisafe/walletd/internal/walletmodel"
)

// userDTO is walletmodel.User with PasswordHash and the lockout bookkeeping
// stripped, so a User never reaches a client carrying its credential hash.
type userDTO struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserDTO(u *walletmodel.User) userDTO {
	return userDTO{ID: u.ID, Email: u.Email, Username: u.Username, CreatedAt: u.CreatedAt}
}

// walletDTO is walletmodel.WalletInfo with the per-wallet lockout
// bookkeeping stripped, for the same reason userDTO strips User's.
type walletDTO struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	CreatedAt       time.Time `json:"createdAt"`
	QuantumSafe     bool      `json:"quantumSafe"`
	Networks        []string  `json:"networks"`
	DerivationEpoch uint64    `json:"derivationEpoch"`
}

func toWalletDTO(info walletmodel.WalletInfo) walletDTO {
	return walletDTO{
		ID:              info.ID,
		Name:            info.Name,
		CreatedAt:       info.CreatedAt,
		QuantumSafe:     info.QuantumSafe,
		Networks:        info.Networks,
		DerivationEpoch: info.DerivationEpoch,
	}
}

func toWalletDTOs(infos []walletmodel.WalletInfo) []walletDTO {
	out := make([]walletDTO, len(infos))
	for i, info := range infos {
		out[i] = toWalletDTO(info)
	}
	return out
}

type txRecordDTO struct {
	ToAddress string    `json:"toAddress"`
	Amount    string    `json:"amount"`
	Network   string    `json:"network"`
	TxHash    string    `json:"txHash"`
	SentAt    time.Time `json:"sentAt"`
}

func toTxRecordDTOs(records []signing.TxRecord) []txRecordDTO {
	out := make([]txRecordDTO, len(records))
	for i, r := range records {
		out[i] = txRecordDTO{ToAddress: r.ToAddress, Amount: r.Amount, Network: r.Network, TxHash: r.TxHash, SentAt: r.SentAt}
	}
	return out
}

type bridgeTransferDTO struct {
	ID                uuid.UUID                `json:"id"`
	FromWallet        string                   `json:"fromWallet"`
	FromChain         string                   `json:"fromChain"`
	ToChain           string                   `json:"toChain"`
	Token             string                   `json:"token"`
	Amount            string                   `json:"amount"`
	Status            walletmodel.BridgeStatus `json:"status"`
	FailureReason     string                   `json:"failureReason,omitempty"`
	SourceTxHash      string                   `json:"sourceTxHash,omitempty"`
	DestinationTxHash string                   `json:"destinationTxHash,omitempty"`
	CreatedAt         time.Time                `json:"createdAt"`
	UpdatedAt         time.Time                `json:"updatedAt"`
}

func toBridgeTransferDTO(t *walletmodel.BridgeTransfer) bridgeTransferDTO {
	return bridgeTransferDTO{
		ID:                t.ID,
		FromWallet:        t.FromWallet,
		FromChain:         t.FromChain,
		ToChain:           t.ToChain,
		Token:             t.Token,
		Amount:            t.Amount,
		Status:            t.Status,
		FailureReason:     t.FailureReason,
		SourceTxHash:      t.SourceTxHash,
		DestinationTxHash: t.DestinationTxHash,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

// authResponse is returned by register/login/refresh.
type authResponse struct {
	User         userDTO `json:"user"`
	AccessToken  string  `json:"accessToken"`
	RefreshToken string  `json:"refreshToken"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
