// Package cancel provides the cooperative cancellation token threaded through
// every outbound generation call, and the slot that keeps at most one live
// token per primary operation.
package cancel

import (
	"context"
	"sync"
	"sync/atomic"
)

// Token is a single-owner cooperative cancellation signal. The zero value is
// not usable; create tokens with New or Slot.Replace.
type Token struct {
	ctx       context.Context
	cancelFn  context.CancelFunc
	cancelled atomic.Bool
	id        uint64
}

// New returns a token derived from parent. Cancelling parent cancels the token.
func New(parent context.Context) *Token {
	ctx, cancelFn := context.WithCancel(parent)
	return &Token{ctx: ctx, cancelFn: cancelFn}
}

// Cancel signals the token. Calling Cancel more than once has no further effect.
func (t *Token) Cancel() {
	if t == nil {
		return
	}
	t.cancelled.Store(true)
	t.cancelFn()
}

// Cancelled reports whether Cancel was called or the parent context ended.
func (t *Token) Cancelled() bool {
	if t == nil {
		return false
	}
	return t.cancelled.Load() || t.ctx.Err() != nil
}

// Context returns the context that outbound calls must observe.
func (t *Token) Context() context.Context {
	return t.ctx
}

// Done is closed once the token is cancelled.
func (t *Token) Done() <-chan struct{} {
	return t.ctx.Done()
}

// ID is the sequence number assigned by the owning Slot. Tokens created with
// New have ID 0.
func (t *Token) ID() uint64 {
	if t == nil {
		return 0
	}
	return t.id
}

// Slot holds the single live token for a primary operation. Replacing the
// token cancels the previous one (last request wins).
type Slot struct {
	mu      sync.Mutex
	current *Token
	seq     uint64
}

// Replace cancels the current token, if any, and installs a fresh token
// derived from parent.
func (s *Slot) Replace(parent context.Context) *Token {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		s.current.Cancel()
	}

	s.seq++
	tok := New(parent)
	tok.id = s.seq
	s.current = tok
	return tok
}

// Current returns the live token or nil when no operation has started.
func (s *Slot) Current() *Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// IsCurrent reports whether tok is still the slot's live token and has not
// been cancelled.
func (s *Slot) IsCurrent(tok *Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return tok != nil && s.current == tok && !tok.Cancelled()
}

// Cancel cancels the live token without replacing it. It reports whether a
// live, uncancelled token existed.
func (s *Slot) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || s.current.Cancelled() {
		return false
	}
	s.current.Cancel()
	return true
}

// Release clears tok from the slot if it is still current. The token itself
// is cancelled so its context resources are freed.
func (s *Slot) Release(tok *Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tok == nil {
		return
	}
	tok.cancelFn()
	if s.current == tok {
		s.current = nil
	}
}
