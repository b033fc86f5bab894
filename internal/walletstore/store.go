// Package walletstore persists SecureWalletData records over goleveldb,
// an embedded key/value store.
package walletstore

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/defisafe/walletd/internal/walleterr"
	"github.com/defisafe/walletd/internal/walletmodel"
)

const (
	idPrefix   = "wallet:id:"
	namePrefix = "wallet:name:"
)

// Store implements create/get/list/delete/replace over a uuid-keyed
// record plus a name->uuid uniqueness index.
type Store struct {
	mu sync.Mutex // serializes create/replace so the name index stays consistent
	db *leveldb.DB
}

// Open opens (creating if absent) a LevelDB database at path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("walletstore: open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// OpenMemory opens an in-memory store, used by tests and local dev.
func OpenMemory() (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("walletstore: open memory store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func idKey(id uuid.UUID) []byte   { return []byte(idPrefix + id.String()) }
func nameKey(name string) []byte  { return []byte(namePrefix + name) }

// Create persists a brand-new wallet record. Fails with KindConflict if
// the name is already in use.
func (s *Store) Create(record *walletmodel.SecureWalletData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	nk := nameKey(record.Info.Name)
	if _, err := s.db.Get(nk, nil); err == nil {
		return walleterr.Conflict("WALLET_NAME_TAKEN", fmt.Sprintf("wallet name %q already exists", record.Info.Name))
	} else if err != leveldb.ErrNotFound {
		return walleterr.Internal(err)
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return walleterr.Internal(err)
	}

	batch := new(leveldb.Batch)
	batch.Put(idKey(record.Info.ID), payload)
	batch.Put(nk, []byte(record.Info.ID.String()))
	if err := s.db.Write(batch, nil); err != nil {
		return walleterr.Internal(err)
	}
	return nil
}

// Get loads a wallet record by id.
func (s *Store) Get(id uuid.UUID) (*walletmodel.SecureWalletData, error) {
	payload, err := s.db.Get(idKey(id), nil)
	if err == leveldb.ErrNotFound {
		return nil, walleterr.NotFound("WALLET_NOT_FOUND", "wallet not found")
	}
	if err != nil {
		return nil, walleterr.Internal(err)
	}
	var record walletmodel.SecureWalletData
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, walleterr.Internal(err)
	}
	return &record, nil
}

// GetByName resolves the current-uuid for name, then loads its record.
func (s *Store) GetByName(name string) (*walletmodel.SecureWalletData, error) {
	idBytes, err := s.db.Get(nameKey(name), nil)
	if err == leveldb.ErrNotFound {
		return nil, walleterr.NotFound("WALLET_NOT_FOUND", "wallet not found")
	}
	if err != nil {
		return nil, walleterr.Internal(err)
	}
	id, err := uuid.Parse(string(idBytes))
	if err != nil {
		return nil, walleterr.Internal(err)
	}
	return s.Get(id)
}

// List returns every wallet's non-secret WalletInfo.
func (s *Store) List() ([]walletmodel.WalletInfo, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(idPrefix)), nil)
	defer iter.Release()

	var out []walletmodel.WalletInfo
	for iter.Next() {
		var record walletmodel.SecureWalletData
		if err := json.Unmarshal(iter.Value(), &record); err != nil {
			return nil, walleterr.Internal(err)
		}
		out = append(out, record.Info)
	}
	if err := iter.Error(); err != nil {
		return nil, walleterr.Internal(err)
	}
	return out, nil
}

// Replace atomically overwrites an existing record (same id, name must be
// unchanged), used by signing-key rotation and KEK re-encryption.
func (s *Store) Replace(record *walletmodel.SecureWalletData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Get(idKey(record.Info.ID), nil); err == leveldb.ErrNotFound {
		return walleterr.NotFound("WALLET_NOT_FOUND", "wallet not found")
	} else if err != nil {
		return walleterr.Internal(err)
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return walleterr.Internal(err)
	}
	if err := s.db.Put(idKey(record.Info.ID), payload, nil); err != nil {
		return walleterr.Internal(err)
	}
	return nil
}

// Delete removes a wallet record and its name index entry.
func (s *Store) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.Get(id)
	if err != nil {
		return err
	}
	batch := new(leveldb.Batch)
	batch.Delete(idKey(id))
	batch.Delete(nameKey(record.Info.Name))
	if err := s.db.Write(batch, nil); err != nil {
		return walleterr.Internal(err)
	}
	return nil
}
