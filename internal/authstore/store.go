// Package authstore implements user registration and verification over a
// dedicated table, persisted the same way internal/walletstore persists
// wallet records.
package authstore

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/defisafe/walletd/internal/pwhash"
	"github.com/defisafe/walletd/internal/walleterr"
	"github.com/defisafe/walletd/internal/walletmodel"
)

const (
	maxFailedLogins   = 5
	lockoutDuration   = 15 * time.Minute
	maxEmailLength    = 254
	minPasswordLength = 8
)

const (
	idPrefix    = "user:id:"
	emailPrefix = "user:email:"
)

// dummyPassword is hashed once at Open/OpenMemory time to give the
// nonexistent-account path in Verify a real bcrypt hash to compare
// against, at the same cost as every genuine user record.
const dummyPassword = "authstore-dummy-password-for-timing-parity"

// Store is the user account store.
type Store struct {
	mu         sync.Mutex // serializes register() so the email index stays consistent
	db         *leveldb.DB
	bcryptCost int
	dummyHash  []byte
}

// Open opens (creating if absent) a LevelDB database at path.
func Open(path string, bcryptCost int) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("authstore: open %s: %w", path, err)
	}
	dummyHash, err := pwhash.Hash(dummyPassword, bcryptCost)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, bcryptCost: bcryptCost, dummyHash: dummyHash}, nil
}

// OpenMemory opens an in-memory store, used by tests and local dev.
func OpenMemory(bcryptCost int) (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("authstore: open memory store: %w", err)
	}
	dummyHash, err := pwhash.Hash(dummyPassword, bcryptCost)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, bcryptCost: bcryptCost, dummyHash: dummyHash}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func idKey(id uuid.UUID) []byte  { return []byte(idPrefix + id.String()) }
func emailKey(email string) []byte { return []byte(emailPrefix + email) }

// normalizeEmail trims surrounding whitespace and lowercases.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateEmail requires an "@" and a "." and a bounded length; this is
// intentionally shallow format sanity, not RFC 5322 conformance.
func validateEmail(email string) error {
	if len(email) == 0 || len(email) > maxEmailLength {
		return walleterr.Validation("INVALID_EMAIL", "email must be 1-254 characters")
	}
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return walleterr.Validation("INVALID_EMAIL", "email must contain '@' and '.'")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return walleterr.Validation("WEAK_PASSWORD", "password must be at least 8 characters")
	}
	return nil
}

// Register creates a new user. Fails with KindConflict (EmailExists) if
// the normalized email is already registered.
func (s *Store) Register(email, password string) (*walletmodel.User, error) {
	normalized := normalizeEmail(email)
	if err := validateEmail(normalized); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := pwhash.Hash(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ek := emailKey(normalized)
	if _, err := s.db.Get(ek, nil); err == nil {
		return nil, walleterr.Conflict("EMAIL_EXISTS", "an account with this email already exists")
	} else if err != leveldb.ErrNotFound {
		return nil, walleterr.Internal(err)
	}

	now := time.Now().UTC()
	user := &walletmodel.User{
		ID:           uuid.New(),
		Email:        normalized,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	payload, err := json.Marshal(user)
	if err != nil {
		return nil, walleterr.Internal(err)
	}

	batch := new(leveldb.Batch)
	batch.Put(idKey(user.ID), payload)
	batch.Put(ek, []byte(user.ID.String()))
	if err := s.db.Write(batch, nil); err != nil {
		return nil, walleterr.Internal(err)
	}
	return user, nil
}

// Verify looks up the user by normalized email, checks lockout, and
// verifies password in constant time. Error messages never distinguish
// "no such user" from "wrong password".
func (s *Store) Verify(email, password string) (*walletmodel.User, error) {
	normalized := normalizeEmail(email)

	idBytes, err := s.db.Get(emailKey(normalized), nil)
	if err == leveldb.ErrNotFound {
		// Compare against a real bcrypt hash computed at Open time, at the
		// same cost as every genuine user record, so a nonexistent-account
		// lookup spends the same bcrypt work as a wrong-password one.
		pwhash.Verify(s.dummyHash, password)
		return nil, walleterr.Unauthorized("INVALID_CREDENTIALS")
	}
	if err != nil {
		return nil, walleterr.Internal(err)
	}
	id, err := uuid.Parse(string(idBytes))
	if err != nil {
		return nil, walleterr.Internal(err)
	}

	user, err := s.getByID(id)
	if err != nil {
		return nil, err
	}

	if user.Disabled {
		return nil, walleterr.New(walleterr.KindForbidden, "ACCOUNT_DISABLED", "account is disabled")
	}

	if user.LockedUntil != nil && time.Now().Before(*user.LockedUntil) {
		return nil, walleterr.Locked("account is temporarily locked, try again later")
	}

	if !pwhash.Verify(user.PasswordHash, password) {
		s.recordFailedLogin(user)
		return nil, walleterr.Unauthorized("INVALID_CREDENTIALS")
	}

	if user.FailedLoginCount != 0 || user.LockedUntil != nil {
		user.FailedLoginCount = 0
		user.LockedUntil = nil
		user.UpdatedAt = time.Now().UTC()
		_ = s.put(user)
	}
	return user, nil
}

// GetByID loads a user by id.
func (s *Store) GetByID(id uuid.UUID) (*walletmodel.User, error) {
	return s.getByID(id)
}

func (s *Store) getByID(id uuid.UUID) (*walletmodel.User, error) {
	payload, err := s.db.Get(idKey(id), nil)
	if err == leveldb.ErrNotFound {
		return nil, walleterr.NotFound("USER_NOT_FOUND", "user not found")
	}
	if err != nil {
		return nil, walleterr.Internal(err)
	}
	var user walletmodel.User
	if err := json.Unmarshal(payload, &user); err != nil {
		return nil, walleterr.Internal(err)
	}
	return &user, nil
}

// recordFailedLogin increments the lockout counter and locks the account
// once maxFailedLogins is reached. Persistence errors are swallowed:
// a failed-login bookkeeping miss must never block the (already-failing)
// auth response.
func (s *Store) recordFailedLogin(user *walletmodel.User) {
	user.FailedLoginCount++
	if user.FailedLoginCount >= maxFailedLogins {
		lockUntil := time.Now().UTC().Add(lockoutDuration)
		user.LockedUntil = &lockUntil
	}
	user.UpdatedAt = time.Now().UTC()
	_ = s.put(user)
}

// SetDisabled flips a user's Disabled flag, for operator tooling (no HTTP
// endpoint currently exposes this — only the 403 response a disabled
// account produces on login).
func (s *Store) SetDisabled(id uuid.UUID, disabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.getByID(id)
	if err != nil {
		return err
	}
	user.Disabled = disabled
	user.UpdatedAt = time.Now().UTC()
	return s.put(user)
}

func (s *Store) put(user *walletmodel.User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return walleterr.Internal(err)
	}
	if err := s.db.Put(idKey(user.ID), payload, nil); err != nil {
		return walleterr.Internal(err)
	}
	return nil
}
