// Package ratelimit implements a fixed-window request counter per identity.
//
// The read-modify-write across Store.Get and Store.Set is not atomic, so
// concurrent requests from one identity may undercount. The limiter is
// best-effort.
//
// Windows restart once the clock is past ResetAt. CacheStore and RedisStore
// expire entries one millisecond after ResetAt on their own clocks (the
// CacheStore Clock and the Redis server clock), which must agree with
// Limiter.Clock for a window to survive until it resets.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/vytor/tenxcards/internal/errors"
	"github.com/vytor/tenxcards/internal/logger"
)

// Decision describes an admitted request.
type Decision struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

type Limiter struct {
	Store  Store
	Limit  int
	Window time.Duration
	// Prefix namespaces keys so several limiters may share one store.
	Prefix string
	Clock  func() time.Time
}

// New creates a limiter allowing limit requests per window.
func New(store Store, prefix string, limit int, window time.Duration) *Limiter {
	return &Limiter{
		Store:  store,
		Limit:  limit,
		Window: window,
		Prefix: prefix,
		Clock:  time.Now,
	}
}

func (l *Limiter) now() time.Time {
	if l.Clock == nil {
		return time.Now()
	}
	return l.Clock()
}

// Key returns the store key for an identity, e.g. "rate_limit:<user id>".
func (l *Limiter) Key(identity string) string {
	return l.Prefix + ":" + identity
}

// Allow counts one request for identity. Past the limit it returns a
// RATE_LIMIT_EXCEEDED *errors.AppError carrying the window reset. Store
// failures are returned wrapped.
func (l *Limiter) Allow(ctx context.Context, identity string) (Decision, error) {
	key := l.Key(identity)
	now := l.now().UnixMilli()

	w, ok, err := l.Store.Get(ctx, key)
	if err != nil {
		return Decision{}, fmt.Errorf("load window %s: %w", key, err)
	}
	if !ok || now > w.ResetAt {
		w = Window{Count: 1, ResetAt: now + l.Window.Milliseconds()}
	} else {
		w.Count++
	}
	if err := l.Store.Set(ctx, key, w); err != nil {
		return Decision{}, fmt.Errorf("store window %s: %w", key, err)
	}

	resetAt := time.UnixMilli(w.ResetAt)
	if w.Count > l.Limit {
		return Decision{Limit: l.Limit, Remaining: 0, ResetAt: resetAt},
			errors.NewRateLimitError(l.Limit, l.Window, resetAt)
	}
	return Decision{
		Limit:     l.Limit,
		Remaining: max(0, l.Limit-w.Count),
		ResetAt:   resetAt,
	}, nil
}

// SweepJob discards expired windows from a store. It runs on the scheduler.
type SweepJob struct {
	Store Store
	Clock func() time.Time
}

func (j SweepJob) Name() string { return "rate_limit_sweep" }

func (j SweepJob) Run(ctx context.Context) error {
	now := time.Now()
	if j.Clock != nil {
		now = j.Clock()
	}
	removed, err := j.Store.Sweep(ctx, now)
	if err != nil {
		return fmt.Errorf("sweep windows: %w", err)
	}
	if removed > 0 {
		logger.FromContext(ctx).Debug("swept %d expired windows", removed)
	}
	return nil
}
