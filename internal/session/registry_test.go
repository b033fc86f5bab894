package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestCreateThenValidateReturnsUserID(t *testing.T) {
	r := New(Config{SessionTTL: time.Hour, MaxSessionsPerUser: 5})
	user1 := uuid.New()
	id, err := r.Create(user1, "token-1", "refresh-1", "1.2.3.4", "curl/8")
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)

	userID, ok := r.Validate("token-1")
	require.True(t, ok)
	require.Equal(t, user1, userID)
}

func TestValidateUnknownTokenFails(t *testing.T) {
	r := New(Config{})
	_, ok := r.Validate("nope")
	require.False(t, ok)
}

func TestValidateSlidesExpiryForward(t *testing.T) {
	r := New(Config{SessionTTL: time.Hour})
	user1 := uuid.New()
	_, err := r.Create(user1, "token-1", "", "", "")
	require.NoError(t, err)

	r.mu.Lock()
	sess := r.byID[r.byToken["token-1"]]
	sess.ExpiresAt = time.Now().Add(time.Minute) // shrink window without expiring it
	firstExpiry := sess.ExpiresAt
	r.mu.Unlock()

	time.Sleep(5 * time.Millisecond)
	userID, ok := r.Validate("token-1")
	require.True(t, ok)
	require.Equal(t, user1, userID)

	r.mu.RLock()
	newExpiry := r.byID[r.byToken["token-1"]].ExpiresAt
	r.mu.RUnlock()
	require.True(t, newExpiry.After(firstExpiry), "validating a live session must slide expiry forward")
}

func TestValidateRemovesExpiredSession(t *testing.T) {
	r := New(Config{SessionTTL: time.Hour})
	_, err := r.Create(uuid.New(), "token-1", "", "", "")
	require.NoError(t, err)

	r.mu.Lock()
	r.byID[r.byToken["token-1"]].ExpiresAt = time.Now().Add(-time.Second)
	r.mu.Unlock()

	_, ok := r.Validate("token-1")
	require.False(t, ok)
	require.Equal(t, 0, r.Len(), "expired session must be removed")
}

func TestCreateEvictsOldestOnOverflow(t *testing.T) {
	r := New(Config{SessionTTL: time.Hour, MaxSessionsPerUser: 2})
	user1 := uuid.New()
	_, err := r.Create(user1, "token-1", "", "", "")
	require.NoError(t, err)
	_, err = r.Create(user1, "token-2", "", "", "")
	require.NoError(t, err)
	_, err = r.Create(user1, "token-3", "", "", "")
	require.NoError(t, err)

	_, ok := r.Validate("token-1")
	require.False(t, ok, "oldest session must be evicted")
	_, ok = r.Validate("token-2")
	require.True(t, ok)
	_, ok = r.Validate("token-3")
	require.True(t, ok)
}

func TestRevokeRemovesSession(t *testing.T) {
	r := New(Config{})
	_, err := r.Create(uuid.New(), "token-1", "", "", "")
	require.NoError(t, err)

	require.True(t, r.Revoke("token-1"))
	_, ok := r.Validate("token-1")
	require.False(t, ok)
	require.False(t, r.Revoke("token-1"), "revoking twice should report false")
}

func TestRevokeAllForUserRemovesEveryUserSession(t *testing.T) {
	r := New(Config{MaxSessionsPerUser: 10})
	user1, user2 := uuid.New(), uuid.New()
	_, err := r.Create(user1, "token-1", "", "", "")
	require.NoError(t, err)
	_, err = r.Create(user1, "token-2", "", "", "")
	require.NoError(t, err)
	_, err = r.Create(user2, "token-3", "", "", "")
	require.NoError(t, err)

	count := r.RevokeAllForUser(user1)
	require.Equal(t, 2, count)

	_, ok := r.Validate("token-1")
	require.False(t, ok)
	_, ok = r.Validate("token-3")
	require.True(t, ok, "other users' sessions must be unaffected")
}

func TestSweepRemovesOnlyExpiredSessions(t *testing.T) {
	r := New(Config{SessionTTL: time.Hour})
	_, err := r.Create(uuid.New(), "token-1", "", "", "")
	require.NoError(t, err)
	_, err = r.Create(uuid.New(), "token-2", "", "", "")
	require.NoError(t, err)

	r.mu.Lock()
	r.byID[r.byToken["token-1"]].ExpiresAt = time.Now().Add(-time.Second)
	r.mu.Unlock()

	removed := r.Sweep()
	require.Equal(t, 1, removed)
	require.Equal(t, 1, r.Len())
	_, ok := r.Validate("token-2")
	require.True(t, ok)
}

func TestValidateRefreshThenRotateIssuesFreshTokens(t *testing.T) {
	r := New(Config{SessionTTL: time.Hour})
	user1 := uuid.New()
	id, err := r.Create(user1, "token-1", "refresh-1", "", "")
	require.NoError(t, err)

	sessionID, userID, ok := r.ValidateRefresh("refresh-1")
	require.True(t, ok)
	require.Equal(t, id, sessionID)
	require.Equal(t, user1, userID)

	require.NoError(t, r.Rotate(sessionID, "token-2", "refresh-2"))

	_, ok = r.Validate("token-1")
	require.False(t, ok, "old access token must no longer validate")
	userID, ok = r.Validate("token-2")
	require.True(t, ok)
	require.Equal(t, user1, userID)

	_, _, ok = r.ValidateRefresh("refresh-1")
	require.False(t, ok, "old refresh token must no longer validate")
	_, _, ok = r.ValidateRefresh("refresh-2")
	require.True(t, ok)
}

func TestValidateRefreshUnknownTokenFails(t *testing.T) {
	r := New(Config{})
	_, _, ok := r.ValidateRefresh("nope")
	require.False(t, ok)
}

func TestRotateUnknownSessionFails(t *testing.T) {
	r := New(Config{})
	require.Error(t, r.Rotate(uuid.New(), "a", "b"))
}

func TestCreateRejectsMissingFields(t *testing.T) {
	r := New(Config{})
	_, err := r.Create(uuid.Nil, "token-1", "", "", "")
	require.Error(t, err)
	_, err = r.Create(uuid.New(), "", "", "", "")
	require.Error(t, err)
}
