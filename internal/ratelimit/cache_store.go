package ratelimit

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// CacheStore keeps windows in a go-cache instance. Entries expire just after
// their ResetAt and are purged by the cache janitor as well as by Sweep.
type CacheStore struct {
	c *cache.Cache
	// Clock measures entry TTLs. It should match the limiter's clock.
	Clock func() time.Time
}

// NewCacheStore creates a store whose janitor runs every cleanupInterval.
func NewCacheStore(cleanupInterval time.Duration) *CacheStore {
	return &CacheStore{c: cache.New(cache.NoExpiration, cleanupInterval), Clock: time.Now}
}

func (s *CacheStore) Get(_ context.Context, key string) (Window, bool, error) {
	v, ok := s.c.Get(key)
	if !ok {
		return Window{}, false, nil
	}
	w, ok := v.(Window)
	return w, ok, nil
}

func (s *CacheStore) Set(_ context.Context, key string, w Window) error {
	now := time.Now()
	if s.Clock != nil {
		now = s.Clock()
	}
	ttl := expiresAt(w).Sub(now)
	if ttl <= 0 {
		// Already past its reset; hold it for one second.
		ttl = time.Second
	}
	s.c.Set(key, w, ttl)
	return nil
}

func (s *CacheStore) Sweep(_ context.Context, now time.Time) (int, error) {
	cutoff := now.UnixMilli()
	removed := 0
	for k, item := range s.c.Items() {
		if w, ok := item.Object.(Window); ok && w.ResetAt < cutoff {
			s.c.Delete(k)
			removed++
		}
	}
	s.c.DeleteExpired()
	return removed, nil
}
