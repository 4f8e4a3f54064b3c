package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Window is one identity's counter. ResetAt is in epoch milliseconds.
type Window struct {
	Count   int   `json:"count"`
	ResetAt int64 `json:"reset_at"`
}

// expiresAt is when a store may forget w. The limiter still counts into a
// window at exactly ResetAt, so it outlives ResetAt by one millisecond.
func expiresAt(w Window) time.Time {
	return time.UnixMilli(w.ResetAt + 1)
}

// Store persists rate-limit windows by key.
type Store interface {
	Get(ctx context.Context, key string) (Window, bool, error)
	Set(ctx context.Context, key string, w Window) error
	// Sweep discards windows whose ResetAt is before now and reports how
	// many were removed.
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// MemoryStore keeps windows in a process-local map.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]Window
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{windows: make(map[string]Window)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (Window, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.windows[key]
	return w, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, w Window) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows[key] = w
	return nil
}

func (s *MemoryStore) Sweep(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.UnixMilli()
	removed := 0
	for k, w := range s.windows {
		if w.ResetAt < cutoff {
			delete(s.windows, k)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of tracked windows.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}
