// Package bridge implements a persistent state machine tracking
// cross-chain transfers. The ledger only tracks status, it does not move
// funds — that is a separate collaborator's job, out of scope here.
package bridge

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/defisafe/walletd/internal/walleterr"
	"github.com/defisafe/walletd/internal/walletmodel"
)

// terminal reports whether a status has no further transitions out of it.
func terminal(s walletmodel.BridgeStatus) bool {
	return s == walletmodel.BridgeCompleted || s == walletmodel.BridgeFailed
}

// allowedTransitions encodes the lattice: a status may only advance to
// one of the statuses listed here.
var allowedTransitions = map[walletmodel.BridgeStatus][]walletmodel.BridgeStatus{
	walletmodel.BridgeInitiated: {walletmodel.BridgeInTransit, walletmodel.BridgeFailed},
	walletmodel.BridgeInTransit: {walletmodel.BridgeCompleted, walletmodel.BridgeFailed},
}

func canAdvance(from, to walletmodel.BridgeStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

const transferPrefix = "bridge:transfer:"

func transferKey(id uuid.UUID) []byte { return []byte(transferPrefix + id.String()) }

// Ledger persists bridge transfer state over goleveldb, the same way
// internal/walletstore persists wallet records.
type Ledger struct {
	mu sync.Mutex // serializes advance() so status transitions cannot race
	db *leveldb.DB
}

// Open opens (creating if absent) a LevelDB database at path.
func Open(path string) (*Ledger, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("bridge: open %s: %w", path, err)
	}
	return &Ledger{db: db}, nil
}

// OpenMemory opens an in-memory ledger, used by tests and local dev.
func OpenMemory() (*Ledger, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("bridge: open memory ledger: %w", err)
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error { return l.db.Close() }

// Initiate records a brand-new transfer in status Initiated.
func (l *Ledger) Initiate(fromWallet, fromChain, toChain, token, amount string) (*walletmodel.BridgeTransfer, error) {
	if fromWallet == "" || fromChain == "" || toChain == "" || token == "" || amount == "" {
		return nil, walleterr.Validation("INVALID_BRIDGE_REQUEST", "from_wallet, from_chain, to_chain, token and amount are required")
	}
	if fromChain == toChain {
		return nil, walleterr.Validation("INVALID_BRIDGE_REQUEST", "from_chain and to_chain must differ")
	}

	now := time.Now().UTC()
	transfer := &walletmodel.BridgeTransfer{
		ID:         uuid.New(),
		FromWallet: fromWallet,
		FromChain:  fromChain,
		ToChain:    toChain,
		Token:      token,
		Amount:     amount,
		Status:     walletmodel.BridgeInitiated,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := l.put(transfer); err != nil {
		return nil, err
	}
	return transfer, nil
}

// Get loads a transfer by id.
func (l *Ledger) Get(id uuid.UUID) (*walletmodel.BridgeTransfer, error) {
	payload, err := l.db.Get(transferKey(id), nil)
	if err == leveldb.ErrNotFound {
		return nil, walleterr.NotFound("BRIDGE_TRANSFER_NOT_FOUND", "bridge transfer not found")
	}
	if err != nil {
		return nil, walleterr.Internal(err)
	}
	var transfer walletmodel.BridgeTransfer
	if err := json.Unmarshal(payload, &transfer); err != nil {
		return nil, walleterr.Internal(err)
	}
	return &transfer, nil
}

// Advance moves a transfer to the next status. Failed is reachable from
// any non-terminal status; all other transitions must follow the lattice.
// Terminal states are sticky: advancing a Completed or Failed transfer is
// rejected regardless of the requested target status.
func (l *Ledger) Advance(id uuid.UUID, next walletmodel.BridgeStatus, sourceTx, destinationTx string) (*walletmodel.BridgeTransfer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	transfer, err := l.Get(id)
	if err != nil {
		return nil, err
	}

	if terminal(transfer.Status) {
		return nil, walleterr.Conflict("BRIDGE_TRANSFER_TERMINAL", fmt.Sprintf("transfer %s is already %s", id, transfer.Status))
	}
	if next != walletmodel.BridgeFailed && !canAdvance(transfer.Status, next) {
		return nil, walleterr.Validation("INVALID_BRIDGE_TRANSITION", fmt.Sprintf("cannot advance %s to %s", transfer.Status, next))
	}

	transfer.Status = next
	if sourceTx != "" {
		transfer.SourceTxHash = sourceTx
	}
	if destinationTx != "" {
		transfer.DestinationTxHash = destinationTx
	}
	transfer.UpdatedAt = time.Now().UTC()

	if err := l.put(transfer); err != nil {
		return nil, err
	}
	return transfer, nil
}

// Fail is a convenience wrapper for Advance(id, BridgeFailed, ...) that
// also records the failure reason.
func (l *Ledger) Fail(id uuid.UUID, reason string) (*walletmodel.BridgeTransfer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	transfer, err := l.Get(id)
	if err != nil {
		return nil, err
	}
	if terminal(transfer.Status) {
		return nil, walleterr.Conflict("BRIDGE_TRANSFER_TERMINAL", fmt.Sprintf("transfer %s is already %s", id, transfer.Status))
	}

	transfer.Status = walletmodel.BridgeFailed
	transfer.FailureReason = reason
	transfer.UpdatedAt = time.Now().UTC()

	if err := l.put(transfer); err != nil {
		return nil, err
	}
	return transfer, nil
}

// ListByWallet returns every tracked transfer for a wallet, most recent first.
func (l *Ledger) ListByWallet(fromWallet string) ([]walletmodel.BridgeTransfer, error) {
	iter := l.db.NewIterator(util.BytesPrefix([]byte(transferPrefix)), nil)
	defer iter.Release()

	var out []walletmodel.BridgeTransfer
	for iter.Next() {
		var transfer walletmodel.BridgeTransfer
		if err := json.Unmarshal(iter.Value(), &transfer); err != nil {
			return nil, walleterr.Internal(err)
		}
		if transfer.FromWallet == fromWallet {
			out = append(out, transfer)
		}
	}
	if err := iter.Error(); err != nil {
		return nil, walleterr.Internal(err)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (l *Ledger) put(transfer *walletmodel.BridgeTransfer) error {
	payload, err := json.Marshal(transfer)
	if err != nil {
		return walleterr.Internal(err)
	}
	if err := l.db.Put(transferKey(transfer.ID), payload, nil); err != nil {
		return walleterr.Internal(err)
	}
	return nil
}
