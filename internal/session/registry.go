// Package session implements the session registry:
// create/validate/revoke/revoke-all-for-user/sweep over four maps
// (session_id -> Session, access token -> session_id, refresh token ->
// session_id, user -> sessions) kept under one lock.
package session

import (
	"container/list"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/defisafe/walletd/internal/walleterr"
	"github.com/defisafe/walletd/internal/walletmodel"
)

const (
	DefaultSessionTTL         = time.Hour
	DefaultMaxSessionsPerUser = 5
	sweepInterval             = 5 * time.Minute
)

type userSessions struct {
	order *list.List // front = oldest, back = newest, elements are session ids
}

// Registry tracks active sessions and enforces per-user limits.
type Registry struct {
	ttl        time.Duration
	maxPerUser int

	mu        sync.RWMutex
	byID      map[uuid.UUID]*walletmodel.Session
	byToken   map[string]uuid.UUID // access_token -> session id
	byRefresh map[string]uuid.UUID // refresh_token -> session id
	byUser    map[uuid.UUID]*userSessions
}

// Config carries the registry's tunables.
type Config struct {
	SessionTTL         time.Duration
	MaxSessionsPerUser int
}

func New(cfg Config) *Registry {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.MaxSessionsPerUser <= 0 {
		cfg.MaxSessionsPerUser = DefaultMaxSessionsPerUser
	}
	return &Registry{
		ttl:        cfg.SessionTTL,
		maxPerUser: cfg.MaxSessionsPerUser,
		byID:       make(map[uuid.UUID]*walletmodel.Session),
		byToken:    make(map[string]uuid.UUID),
		byRefresh:  make(map[string]uuid.UUID),
		byUser:     make(map[uuid.UUID]*userSessions),
	}
}

// Create registers a new session for userID. If the user already has
// maxPerUser sessions, the oldest is evicted first.
func (r *Registry) Create(userID uuid.UUID, accessToken, refreshToken, ip, ua string) (uuid.UUID, error) {
	if userID == uuid.Nil || accessToken == "" {
		return uuid.Nil, walleterr.Validation("INVALID_SESSION", "user_id and access_token are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	us, ok := r.byUser[userID]
	if !ok {
		us = &userSessions{order: list.New()}
		r.byUser[userID] = us
	}
	if us.order.Len() >= r.maxPerUser {
		oldest := us.order.Front()
		r.removeLocked(oldest.Value.(uuid.UUID))
	}

	now := time.Now()
	id := uuid.New()
	sess := &walletmodel.Session{
		ID:           id,
		UserID:       userID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		IPAddress:    ip,
		UserAgent:    ua,
		CreatedAt:    now,
		LastActivity: now,
		ExpiresAt:    now.Add(r.ttl),
	}
	r.byID[id] = sess
	r.byToken[accessToken] = id
	if refreshToken != "" {
		r.byRefresh[refreshToken] = id
	}
	us.order.PushBack(id)

	return id, nil
}

// ValidateRefresh resolves refreshToken to its session and user id, without
// sliding expiry (only Validate, called on the access token, does that).
// Used by the HTTP layer's /api/auth/refresh to look up which session to
// rotate tokens for.
func (r *Registry) ValidateRefresh(refreshToken string) (sessionID, userID uuid.UUID, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, found := r.byRefresh[refreshToken]
	if !found {
		return uuid.Nil, uuid.Nil, false
	}
	sess, found := r.byID[id]
	if !found || time.Now().After(sess.ExpiresAt) {
		return uuid.Nil, uuid.Nil, false
	}
	return id, sess.UserID, true
}

// Rotate replaces sessionID's access and refresh tokens in place, sliding
// its expiry forward. Used after ValidateRefresh confirms the old refresh
// token is still live.
func (r *Registry) Rotate(sessionID uuid.UUID, newAccessToken, newRefreshToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.byID[sessionID]
	if !ok {
		return walleterr.NotFound("SESSION_NOT_FOUND", "session no longer exists")
	}

	delete(r.byToken, sess.AccessToken)
	if sess.RefreshToken != "" {
		delete(r.byRefresh, sess.RefreshToken)
	}

	sess.AccessToken = newAccessToken
	sess.RefreshToken = newRefreshToken
	now := time.Now()
	sess.LastActivity = now
	sess.ExpiresAt = now.Add(r.ttl)

	r.byToken[newAccessToken] = sessionID
	if newRefreshToken != "" {
		r.byRefresh[newRefreshToken] = sessionID
	}
	return nil
}

// Validate resolves accessToken to its user id, sliding the session's
// expiry forward by sessionTTL on success. Returns (uuid.Nil, false) if
// the token is unknown or the session has expired (in which case the
// expired session is removed as a side effect).
func (r *Registry) Validate(accessToken string) (uuid.UUID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byToken[accessToken]
	if !ok {
		return uuid.Nil, false
	}
	sess, ok := r.byID[id]
	if !ok {
		return uuid.Nil, false
	}

	now := time.Now()
	if now.After(sess.ExpiresAt) {
		r.removeLocked(id)
		return uuid.Nil, false
	}

	sess.LastActivity = now
	sess.ExpiresAt = now.Add(r.ttl)
	return sess.UserID, true
}

// Revoke removes the session identified by accessToken, returning false
// if no such session exists.
func (r *Registry) Revoke(accessToken string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byToken[accessToken]
	if !ok {
		return false
	}
	r.removeLocked(id)
	return true
}

// RevokeAllForUser removes every session belonging to userID, returning
// the number removed.
func (r *Registry) RevokeAllForUser(userID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	us, ok := r.byUser[userID]
	if !ok {
		return 0
	}
	var ids []uuid.UUID
	for e := us.order.Front(); e != nil; e = e.Next() {
		ids = append(ids, e.Value.(uuid.UUID))
	}
	for _, id := range ids {
		r.removeLocked(id)
	}
	return len(ids)
}

// Sweep removes every expired session. Intended to be invoked every 5
// minutes by a background ticker.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	var expired []uuid.UUID
	for id, sess := range r.byID {
		if now.After(sess.ExpiresAt) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		r.removeLocked(id)
	}
	return len(expired)
}

// RunSweep blocks, invoking Sweep every 5 minutes, until stop is closed.
func (r *Registry) RunSweep(stop <-chan struct{}) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.Sweep()
		case <-stop:
			return
		}
	}
}

// removeLocked deletes a session from all four maps. Caller must
// hold r.mu for writing.
func (r *Registry) removeLocked(id uuid.UUID) {
	sess, ok := r.byID[id]
	if !ok {
		return
	}
	delete(r.byID, id)
	delete(r.byToken, sess.AccessToken)
	if sess.RefreshToken != "" {
		delete(r.byRefresh, sess.RefreshToken)
	}

	if us, ok := r.byUser[sess.UserID]; ok {
		for e := us.order.Front(); e != nil; e = e.Next() {
			if e.Value.(uuid.UUID) == id {
				us.order.Remove(e)
				break
			}
		}
		if us.order.Len() == 0 {
			delete(r.byUser, sess.UserID)
		}
	}
}

// Len reports the total number of live sessions, for tests and metrics.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
