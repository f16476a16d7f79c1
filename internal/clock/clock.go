// Package clock provides the cluster time source read by the settlement engine.
package clock

import (
	"context"
	"sync"
	"time"
)

// Clock returns the current time as unix seconds.
type Clock interface {
	Now(ctx context.Context) (int64, error)
}

// Func adapts a plain function to Clock.
type Func func(ctx context.Context) (int64, error)

// Now calls f.
func (f Func) Now(ctx context.Context) (int64, error) {
	return f(ctx)
}

// System reads the local wall clock.
type System struct{}

// Now returns time.Now in unix seconds.
func (System) Now(context.Context) (int64, error) {
	return time.Now().Unix(), nil
}

// Fixed always returns the same instant.
type Fixed int64

// Now returns f.
func (f Fixed) Now(context.Context) (int64, error) {
	return int64(f), nil
}

// Manual is a settable clock for tests and simulations.
type Manual struct {
	mu  sync.Mutex
	now int64
}

// NewManual creates a Manual clock starting at now.
func NewManual(now int64) *Manual {
	return &Manual{now: now}
}

// Now returns the current manual time.
func (m *Manual) Now(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now, nil
}

// Set moves the clock to now.
func (m *Manual) Set(now int64) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

// Advance moves the clock forward by d, truncated to whole seconds.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now += int64(d / time.Second)
	m.mu.Unlock()
}
