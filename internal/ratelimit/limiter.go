// Package ratelimit implements a per-IP rate limiter: a token bucket per
// client IP, bounded to a configured entry count with LRU eviction by
// last access and a periodic TTL sweep.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/time/rate"

	"github.com/defisafe/walletd/internal/walleterr"
)

const (
	DefaultMaxEntries = 5000
	DefaultEntryTTL   = time.Hour
	sweepInterval     = 5 * time.Minute
)

type entry struct {
	bucket     *rate.Limiter
	lastAccess time.Time
}

// Limiter rate-limits requests per client IP. ratePerSecond/burst are
// shared by every IP's bucket; the bounded map itself is a plain
// (non-adaptive) hashicorp/golang-lru cache, whose Add() already evicts
// the least-recently-used entry at capacity — exactly the evict-oldest-
// by-last-access behavior this needs. golang-lru's ARC variant suits
// adaptive caches better, but ARC's eviction policy isn't
// last-access-ordered, so the plain `lru.New` cache is used here instead.
type Limiter struct {
	ratePerSecond float64
	burst         int
	maxEntries    int
	entryTTL      time.Duration
	trustProxy    bool

	mu      sync.Mutex
	buckets *lru.Cache
}

// Config carries the limiter's tunables.
type Config struct {
	RatePerSecond    float64
	Burst            int
	MaxEntries       int
	EntryTTL         time.Duration
	TrustProxyHeaders bool
}

func New(cfg Config) *Limiter {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if cfg.EntryTTL <= 0 {
		cfg.EntryTTL = DefaultEntryTTL
	}
	cache, _ := lru.New(cfg.MaxEntries)
	return &Limiter{
		ratePerSecond: cfg.RatePerSecond,
		burst:         cfg.Burst,
		maxEntries:    cfg.MaxEntries,
		entryTTL:      cfg.EntryTTL,
		trustProxy:    cfg.TrustProxyHeaders,
		buckets:       cache,
	}
}

// Result is the outcome of a Check call.
type Result struct {
	Allowed      bool
	RetryAfter   time.Duration
}

// Check consumes one token from ip's bucket, creating the bucket (and
// evicting the oldest entry if at capacity) if it doesn't exist yet.
func (l *Limiter) Check(ip string) Result {
	l.mu.Lock()
	var e *entry
	if cached, ok := l.buckets.Get(ip); ok {
		e = cached.(*entry)
	} else {
		e = &entry{bucket: rate.NewLimiter(rate.Limit(l.ratePerSecond), l.burst)}
		l.buckets.Add(ip, e)
	}
	e.lastAccess = time.Now()
	l.mu.Unlock()

	reservation := e.bucket.Reserve()
	if !reservation.OK() {
		return Result{Allowed: false, RetryAfter: time.Second}
	}
	delay := reservation.Delay()
	if delay > 0 {
		reservation.Cancel()
		return Result{Allowed: false, RetryAfter: delay}
	}
	return Result{Allowed: true}
}

// Cleanup removes entries whose last_access is older than entryTTL, then,
// if the map is still over max_entries (shouldn't happen given the
// bounded cache, but kept as a second guard), trims down to cap by
// dropping the least-recently-used remainder. Intended to be invoked
// every 5 minutes by a background ticker.
func (l *Limiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for _, key := range l.buckets.Keys() {
		cached, ok := l.buckets.Peek(key)
		if !ok {
			continue
		}
		e := cached.(*entry)
		if now.Sub(e.lastAccess) >= l.entryTTL {
			l.buckets.Remove(key)
		}
	}
	for l.buckets.Len() > l.maxEntries {
		l.buckets.RemoveOldest()
	}
}

// RunCleanup blocks, invoking Cleanup every 5 minutes, until ctx-like
// stop channel is closed. Callers run this in its own goroutine.
func (l *Limiter) RunCleanup(stop <-chan struct{}) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.Cleanup()
		case <-stop:
			return
		}
	}
}

// Len reports the current number of tracked IPs, for tests and metrics.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buckets.Len()
}

// ClientIP extracts the caller's IP from an HTTP request. X-Forwarded-For/
// X-Real-IP are only trusted when trustProxy is set, and the rightmost
// XFF entry is used (the one appended by the nearest, most-trusted proxy
// hop). Returns an error — never loopback — if no IP can be determined.
func (l *Limiter) ClientIP(r *http.Request) (string, error) {
	if l.trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			parts := strings.Split(xff, ",")
			candidate := strings.TrimSpace(parts[len(parts)-1])
			if candidate != "" {
				return candidate, nil
			}
		}
		if xrip := strings.TrimSpace(r.Header.Get("X-Real-IP")); xrip != "" {
			return xrip, nil
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		return "", walleterr.Validation("NO_CLIENT_IP", "could not determine client IP")
	}
	return host, nil
}
