// Package noncecoord implements per-(address,chain) nonce reservation:
// concurrent callers must never receive the same nonce, while tolerating
// a lagging chain view.
package noncecoord

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/defisafe/walletd/internal/walleterr"
)

// NonceSource resolves the chain's current view of an address's nonce,
// used only to bootstrap state on first use. A ChainClient alone isn't
// enough since a single Coordinator spans every
// network a wallet holds keys on; callers supply a multiplexing adapter
// that dispatches to the right ChainClient by chain name.
type NonceSource interface {
	GetNonce(ctx context.Context, address, chain string) (uint64, error)
}

// ChainNonceGetter is the subset of chainclient.ChainClient needed to
// bootstrap nonce state for a single chain.
type ChainNonceGetter interface {
	GetNonce(ctx context.Context, address string) (uint64, error)
}

// MultiChainSource adapts a per-chain client registry into the single
// NonceSource a Coordinator needs, since one Coordinator tracks nonces
// across every network a wallet can send on.
type MultiChainSource map[string]ChainNonceGetter

func (m MultiChainSource) GetNonce(ctx context.Context, address, chain string) (uint64, error) {
	getter, ok := m[chain]
	if !ok {
		return 0, fmt.Errorf("noncecoord: no chain client registered for %q", chain)
	}
	return getter.GetNonce(ctx, address)
}

// nonceState is the per-(address,chain) reservation state.
type nonceState struct {
	mu             sync.Mutex
	lastConfirmed  *uint64 // nil until bootstrapped
	reserved       map[uint64]struct{}
}

func newNonceState() *nonceState {
	return &nonceState{reserved: make(map[uint64]struct{})}
}

func (s *nonceState) maxReserved() uint64 {
	var max uint64
	found := false
	for n := range s.reserved {
		if !found || n > max {
			max = n
			found = true
		}
	}
	if !found {
		return 0
	}
	return max
}

// Coordinator reserves and tracks nonces per (address, chain).
type Coordinator struct {
	source NonceSource

	mu     sync.Mutex // guards the states map itself, not its entries
	states map[string]*nonceState
}

// New builds a Coordinator that bootstraps unknown addresses via source.
func New(source NonceSource) *Coordinator {
	return &Coordinator{source: source, states: make(map[string]*nonceState)}
}

func key(address, chain string) string { return chain + "|" + address }

func (c *Coordinator) stateFor(address, chain string) *nonceState {
	k := key(address, chain)
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.states[k]
	if !ok {
		s = newNonceState()
		c.states[k] = s
	}
	return s
}

// Reserve returns a nonce n such that no concurrent caller on the same
// (address, chain) will receive the same n, and n >= the chain's nonce at
// bootstrap time.
func (c *Coordinator) Reserve(ctx context.Context, address, chain string) (uint64, error) {
	s := c.stateFor(address, chain)

	s.mu.Lock()
	needsBootstrap := s.lastConfirmed == nil
	s.mu.Unlock()

	if needsBootstrap {
		chainNonce, err := c.source.GetNonce(ctx, address, chain)
		if err != nil {
			return 0, walleterr.Wrap(walleterr.KindChainUnavailable, "CHAIN_UNAVAILABLE", "could not bootstrap nonce state", err)
		}
		s.mu.Lock()
		if s.lastConfirmed == nil {
			// chainNonce is the next nonce the chain expects, so the last
			// one it has confirmed is one below it.
			v := chainNonce
			if v > 0 {
				v--
			}
			s.lastConfirmed = &v
		}
		s.mu.Unlock()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	n := *s.lastConfirmed + 1
	if reservedMax := s.maxReserved(); reservedMax+1 > n {
		n = reservedMax + 1
	}
	s.reserved[n] = struct{}{}
	return n, nil
}

// Commit marks n as successfully submitted, advancing last_confirmed.
func (c *Coordinator) Commit(address, chain string, n uint64) error {
	s := c.stateFor(address, chain)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reserved, n)
	if s.lastConfirmed == nil || n > *s.lastConfirmed {
		v := n
		s.lastConfirmed = &v
	}
	return nil
}

// Rollback releases n back to the reservable pool. It never moves
// last_confirmed backward.
func (c *Coordinator) Rollback(address, chain string, n uint64) error {
	s := c.stateFor(address, chain)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reserved, n)
	return nil
}

// Snapshot returns a diagnostic view of current state for tests and
// operator tooling.
type Snapshot struct {
	LastConfirmed *uint64
	Reserved      []uint64
	NextToIssue   uint64
}

func (c *Coordinator) Snapshot(address, chain string) Snapshot {
	s := c.stateFor(address, chain)
	s.mu.Lock()
	defer s.mu.Unlock()

	reserved := make([]uint64, 0, len(s.reserved))
	for n := range s.reserved {
		reserved = append(reserved, n)
	}
	sort.Slice(reserved, func(i, j int) bool { return reserved[i] < reserved[j] })

	next := uint64(0)
	if s.lastConfirmed != nil {
		next = *s.lastConfirmed + 1
	}
	if m := s.maxReserved(); m+1 > next {
		next = m + 1
	}

	var lc *uint64
	if s.lastConfirmed != nil {
		v := *s.lastConfirmed
		lc = &v
	}
	return Snapshot{LastConfirmed: lc, Reserved: reserved, NextToIssue: next}
}

// InvalidateAddress discards in-memory state for address on chain, used
// when an address is retired by a key rotation.
func (c *Coordinator) InvalidateAddress(address, chain string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.states, key(address, chain))
}

// AddressChain names one bootstrapped (address, chain) pair.
type AddressChain struct {
	Address string
	Chain   string
}

// Tracked lists every (address, chain) pair with in-memory state, for the
// periodic reconciliation loop cmd/walletd runs.
func (c *Coordinator) Tracked() []AddressChain {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]AddressChain, 0, len(c.states))
	for k := range c.states {
		parts := strings.SplitN(k, "|", 2)
		if len(parts) != 2 {
			continue
		}
		out = append(out, AddressChain{Chain: parts[0], Address: parts[1]})
	}
	return out
}

// Reconcile re-checks a bootstrapped address's on-chain nonce and lowers
// last_confirmed if the chain's view has regressed — a reorg dropped
// transactions this process had already counted as committed. It never
// raises last_confirmed past what the chain reports, since reservations
// already committed locally may not have landed yet.
func (c *Coordinator) Reconcile(ctx context.Context, address, chain string) error {
	s := c.stateFor(address, chain)

	s.mu.Lock()
	bootstrapped := s.lastConfirmed != nil
	s.mu.Unlock()
	if !bootstrapped {
		return nil
	}

	chainNonce, err := c.source.GetNonce(ctx, address, chain)
	if err != nil {
		return walleterr.Wrap(walleterr.KindChainUnavailable, "CHAIN_UNAVAILABLE", "could not reconcile nonce state", err)
	}

	observedConfirmed := chainNonce
	if observedConfirmed > 0 {
		observedConfirmed--
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastConfirmed != nil && observedConfirmed < *s.lastConfirmed {
		s.lastConfirmed = &observedConfirmed
	}
	return nil
}
