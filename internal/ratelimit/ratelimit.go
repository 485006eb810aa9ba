// Package ratelimit implements per-identity fixed-window admission control.
// State lives in process memory only; losing it on restart degrades to a
// fresh window for everyone, never to a hard failure.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultWindow is the admission window length.
	DefaultWindow = time.Minute
	// DefaultLimit is the admitted-request ceiling per window.
	DefaultLimit = 100
	// DefaultSweepInterval is how often expired windows are collected.
	DefaultSweepInterval = 5 * time.Minute
)

// Status is the admission decision for one request.
type Status struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetTime time.Time
}

// entry tracks one identity's current window.
type entry struct {
	count     int
	resetTime time.Time
}

// Store holds per-identity window counters. It is constructed at service
// start, injected into request handling, and swept periodically.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry

	window time.Duration
	limit  int
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithWindow overrides the window length.
func WithWindow(d time.Duration) Option {
	return func(s *Store) { s.window = d }
}

// WithLimit overrides the per-window ceiling.
func WithLimit(n int) Option {
	return func(s *Store) { s.limit = n }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a rate-limit store with the default window and ceiling.
func NewStore(opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]*entry),
		window:  DefaultWindow,
		limit:   DefaultLimit,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Limit returns the per-window ceiling.
func (s *Store) Limit() int {
	return s.limit
}

// Check records a request for the identity and returns the admission
// decision. The read-increment-write is atomic per identity.
func (s *Store) Check(id string) Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.entries[id]

	// Initialize or reset if the window has passed.
	if !ok || now.After(e.resetTime) {
		e = &entry{count: 1, resetTime: now.Add(s.window)}
		s.entries[id] = e
		return Status{Allowed: true, Limit: s.limit, Remaining: s.limit - 1, ResetTime: e.resetTime}
	}

	e.count++
	if e.count > s.limit {
		return Status{Allowed: false, Limit: s.limit, Remaining: 0, ResetTime: e.resetTime}
	}
	return Status{Allowed: true, Limit: s.limit, Remaining: s.limit - e.count, ResetTime: e.resetTime}
}

// Sweep removes every entry whose window has already elapsed, bounding memory
// to recently-active identities. It returns the number of entries removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, e := range s.entries {
		if now.After(e.resetTime) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// Run sweeps at the given interval until the context is cancelled.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Size returns the number of tracked identities.
func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
