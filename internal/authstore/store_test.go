package authstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/defisafe/walletd/internal/pwhash"
	"github.com/defisafe/walletd/internal/walleterr"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenMemory(pwhash.MinCost)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRegisterNormalizesEmail(t *testing.T) {
	store := newTestStore(t)
	user, err := store.Register("  Alice@Example.COM  ", "correct horse battery staple")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", user.Email)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Register("alice@example.com", "correct horse battery staple")
	require.NoError(t, err)

	_, err = store.Register("ALICE@example.com", "another password entirely")
	require.Error(t, err)
	require.Equal(t, walleterr.KindConflict, walleterr.KindOf(err))
}

func TestRegisterRejectsInvalidEmail(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Register("not-an-email", "correct horse battery staple")
	require.Error(t, err)
	require.Equal(t, walleterr.KindValidation, walleterr.KindOf(err))
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Register("alice@example.com", "short")
	require.Error(t, err)
	require.Equal(t, walleterr.KindValidation, walleterr.KindOf(err))
}

func TestVerifySucceedsWithCorrectPassword(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Register("alice@example.com", "correct horse battery staple")
	require.NoError(t, err)

	user, err := store.Verify("alice@example.com", "correct horse battery staple")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", user.Email)
}

func TestVerifyFailsWithWrongPassword(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Register("alice@example.com", "correct horse battery staple")
	require.NoError(t, err)

	_, err = store.Verify("alice@example.com", "wrong password entirely")
	require.Error(t, err)
	require.Equal(t, walleterr.KindUnauthorized, walleterr.KindOf(err))
}

func TestVerifyUnknownEmailGivesSameErrorAsWrongPassword(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Register("alice@example.com", "correct horse battery staple")
	require.NoError(t, err)

	wrongPasswordErr := func() error {
		_, err := store.Verify("alice@example.com", "wrong password entirely")
		return err
	}()
	noSuchUserErr := func() error {
		_, err := store.Verify("nobody@example.com", "wrong password entirely")
		return err
	}()

	require.Equal(t, wrongPasswordErr.Error(), noSuchUserErr.Error(), "must not reveal whether the account exists")
}

func TestVerifyLocksAfterThreshold(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Register("alice@example.com", "correct horse battery staple")
	require.NoError(t, err)

	for i := 0; i < maxFailedLogins; i++ {
		_, err = store.Verify("alice@example.com", "wrong password entirely")
		require.Error(t, err)
	}

	_, err = store.Verify("alice@example.com", "correct horse battery staple")
	require.Error(t, err)
	require.Equal(t, walleterr.KindLocked, walleterr.KindOf(err))
}

func TestVerifyResetsCounterOnSuccess(t *testing.T) {
	store := newTestStore(t)
	registered, err := store.Register("alice@example.com", "correct horse battery staple")
	require.NoError(t, err)

	_, err = store.Verify("alice@example.com", "wrong password entirely")
	require.Error(t, err)

	user, err := store.Verify("alice@example.com", "correct horse battery staple")
	require.NoError(t, err)
	require.Equal(t, 0, user.FailedLoginCount)

	reloaded, err := store.GetByID(registered.ID)
	require.NoError(t, err)
	require.Equal(t, 0, reloaded.FailedLoginCount)
}

func TestLockoutExpiresAfterDuration(t *testing.T) {
	store := newTestStore(t)
	registered, err := store.Register("alice@example.com", "correct horse battery staple")
	require.NoError(t, err)

	for i := 0; i < maxFailedLogins; i++ {
		_, err = store.Verify("alice@example.com", "wrong password entirely")
		require.Error(t, err)
	}

	user, err := store.GetByID(registered.ID)
	require.NoError(t, err)
	require.NotNil(t, user.LockedUntil)

	// simulate the lockout window having already elapsed
	user.LockedUntil = timePtr(time.Now().Add(-time.Second))
	require.NoError(t, store.put(user))

	_, err = store.Verify("alice@example.com", "correct horse battery staple")
	require.NoError(t, err)
}

func TestVerifyRejectsDisabledAccount(t *testing.T) {
	store := newTestStore(t)
	registered, err := store.Register("alice@example.com", "correct horse battery staple")
	require.NoError(t, err)
	require.NoError(t, store.SetDisabled(registered.ID, true))

	_, err = store.Verify("alice@example.com", "correct horse battery staple")
	require.Error(t, err)
	require.Equal(t, walleterr.KindForbidden, walleterr.KindOf(err))
}

func timePtr(t time.Time) *time.Time { return &t }
