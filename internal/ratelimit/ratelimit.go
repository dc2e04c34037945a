// Package ratelimit enforces the per-sender fixed-window submission policy.
//
// The window is reset as a side effect of IsLimited, never by RecordAttempt,
// so callers must check before they record. The check and the record are two
// separate store operations; concurrent attempts by the same sender can both
// pass the check before either is recorded.
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/tbourn/go-tellonym/internal/domain"
)

// Store persists rate policy and per-user windows.
type Store interface {
	RatePolicy(ctx context.Context) (domain.RatePolicy, error)
	RateWindow(ctx context.Context, userID string) (domain.RateWindow, bool, error)
	ResetRateWindow(ctx context.Context, userID string, start time.Time) error
	// IncrementRateWindow adds one attempt to the user's current window,
	// creating {1, now} when the user has no window yet.
	IncrementRateWindow(ctx context.Context, userID string, now time.Time) error
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// Limiter evaluates the rate policy for a sender.
type Limiter struct {
	store Store
	clock Clock
}

// New returns a Limiter. A nil clock uses the wall clock.
func New(store Store, clock Clock) *Limiter {
	if clock == nil {
		clock = wallClock{}
	}
	return &Limiter{store: store, clock: clock}
}

func windowLength(p domain.RatePolicy) time.Duration {
	return time.Duration(p.WindowMinutes) * time.Minute
}

// IsLimited reports whether userID has exhausted the current window. A
// window older than the policy length is reset to {0, now} first.
func (l *Limiter) IsLimited(ctx context.Context, userID string) (bool, error) {
	p, err := l.store.RatePolicy(ctx)
	if err != nil {
		return false, fmt.Errorf("read rate policy: %w", err)
	}
	if p.Limit <= 0 {
		return false, nil
	}

	w, ok, err := l.store.RateWindow(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("read rate window: %w", err)
	}
	if !ok {
		return false, nil
	}

	now := l.clock.Now()
	if now.Sub(w.WindowStart) > windowLength(p) {
		if err := l.store.ResetRateWindow(ctx, userID, now); err != nil {
			return false, fmt.Errorf("reset rate window: %w", err)
		}
		w.Attempts = 0
	}
	return w.Attempts >= p.Limit, nil
}

// TimeLeftSeconds returns ceil((window - (now - windowStart)) / 1s) for the
// stored window as-is. Without a preceding IsLimited the window may be
// stale and the result zero or negative.
func (l *Limiter) TimeLeftSeconds(ctx context.Context, userID string) (int, error) {
	p, err := l.store.RatePolicy(ctx)
	if err != nil {
		return 0, fmt.Errorf("read rate policy: %w", err)
	}
	now := l.clock.Now()

	start := now
	w, ok, err := l.store.RateWindow(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("read rate window: %w", err)
	}
	if ok {
		start = w.WindowStart
	}

	left := windowLength(p) - now.Sub(start)
	return int(math.Ceil(float64(left) / float64(time.Second))), nil
}

// RecordAttempt counts one submission against the current window.
func (l *Limiter) RecordAttempt(ctx context.Context, userID string) error {
	if err := l.store.IncrementRateWindow(ctx, userID, l.clock.Now()); err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}
