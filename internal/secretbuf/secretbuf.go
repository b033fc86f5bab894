// Package secretbuf implements the zeroizing byte buffer that is the only
// vehicle for plaintext key material anywhere in this module. The only way
// to read the bytes is the closure-scoped With (or WithResult) accessor,
// which runs synchronously and never lets the slice escape. Buffer implements
// fmt.Stringer (returning a redacted placeholder, never the bytes) so that
// %v/%s never fall back to reflection over its fields; it implements no
// other marshaling interface.
package secretbuf

import (
	"runtime"
	"sync"
)

// Buffer owns a private copy of secret bytes and zeroizes them exactly once,
// either explicitly via Close or implicitly via a finalizer as a last
// resort. Construction always copies; the caller's source slice is not
// retained and remains the caller's responsibility to wipe if desired.
type Buffer struct {
	mu     sync.Mutex
	b      []byte
	closed bool
}

// New copies src into a new Buffer. Construction is infallible.
func New(src []byte) *Buffer {
	b := make([]byte, len(src))
	copy(b, src)
	buf := &Buffer{b: b}
	runtime.SetFinalizer(buf, (*Buffer).finalize)
	return buf
}

// Zero returns an all-zero Buffer of length n, useful for placeholder
// secrets in tests.
func Zero(n int) *Buffer {
	buf := &Buffer{b: make([]byte, n)}
	runtime.SetFinalizer(buf, (*Buffer).finalize)
	return buf
}

// Len returns the number of secret bytes held. Safe to call after Close
// (returns 0).
func (s *Buffer) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	return len(s.b)
}

// With runs fn against the plaintext bytes and returns whatever fn returns.
// fn must not retain the slice beyond its own execution — the bytes may be
// zeroized the instant With returns. Panics if the buffer has already been
// closed; that indicates a bug in the caller (double-use after drop), not a
// recoverable runtime condition.
func (s *Buffer) With(fn func([]byte) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		panic("secretbuf: With called after Close")
	}
	return fn(s.b)
}

// WithResult is With's generic-result counterpart for callers that need to
// derive a (non-secret) value from the plaintext, e.g. a derived address.
func WithResult[R any](s *Buffer, fn func([]byte) (R, error)) (R, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		panic("secretbuf: WithResult called after Close")
	}
	return fn(s.b)
}

// Close zeroizes the held bytes. Idempotent: calling it twice is a no-op.
// Every holder of a Buffer must defer Close on every exit path: plaintext
// key material always gets a deterministic cleanup on drop.
func (s *Buffer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zeroizeLocked()
	runtime.SetFinalizer(s, nil)
}

func (s *Buffer) zeroizeLocked() {
	if s.closed {
		return
	}
	for i := range s.b {
		s.b[i] = 0
	}
	s.b = nil
	s.closed = true
}

// finalize is the runtime.SetFinalizer callback: a last-resort zeroization
// if a Buffer is garbage collected without an explicit Close.
func (s *Buffer) finalize() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zeroizeLocked()
}

// GoString is deliberately not implemented. String returns only a redacted
// placeholder, never the bytes, which is what keeps %v/%s from falling
// back to fmt's reflection printer over the struct's fields.
func (s *Buffer) String() string {
	return "secretbuf.Buffer{REDACTED}"
}
