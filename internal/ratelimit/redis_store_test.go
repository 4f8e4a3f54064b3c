package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/tenxcards/internal/errors"
	"github.com/vytor/tenxcards/internal/ratelimit"
)

func TestRedisStore_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := ratelimit.NewRedisStore(mr.Addr(), "", "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	_, ok, err := store.Get(ctx, "rate_limit:u1")
	require.NoError(t, err)
	assert.False(t, ok)

	w := ratelimit.Window{Count: 4, ResetAt: time.Now().Add(time.Minute).UnixMilli()}
	require.NoError(t, store.Set(ctx, "rate_limit:u1", w))

	got, ok, err := store.Get(ctx, "rate_limit:u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, w, got)
	assert.True(t, mr.Exists("test:rate_limit:u1"))
	assert.Greater(t, mr.TTL("test:rate_limit:u1"), time.Duration(0))
}

func TestRedisStore_ExpiresAtReset(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := ratelimit.NewRedisStore(mr.Addr(), "", "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "k", ratelimit.Window{Count: 1, ResetAt: time.Now().Add(time.Second).UnixMilli()}))

	mr.FastForward(2 * time.Second)

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_LimiterBlocks(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := ratelimit.NewRedisStore(mr.Addr(), "", "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	limiter := ratelimit.New(store, "rate_limit", 2, time.Minute)
	ctx := context.Background()

	_, err = limiter.Allow(ctx, "ip-1")
	require.NoError(t, err)
	_, err = limiter.Allow(ctx, "ip-1")
	require.NoError(t, err)
	_, err = limiter.Allow(ctx, "ip-1")
	assert.True(t, errors.HasCode(err, errors.ErrCodeRateLimit))
}

func TestRedisStore_ErrorsWhenUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := ratelimit.NewRedisStore(mr.Addr(), "", "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	mr.Close()

	_, err = ratelimit.New(store, "rate_limit", 1, time.Minute).Allow(context.Background(), "ip-1")
	require.Error(t, err)
	assert.False(t, errors.HasCode(err, errors.ErrCodeRateLimit))
}

func TestNewRedisStore_RequiresAddr(t *testing.T) {
	store, err := ratelimit.NewRedisStore("  ", "", "test")
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestRedisStore_KeepsWindowThroughResetAt(t *testing.T) {
	mr := miniredis.RunT(t)
	base := time.UnixMilli(1_700_000_000_000)
	mr.SetTime(base)
	store, err := ratelimit.NewRedisStore(mr.Addr(), "", "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	w := ratelimit.Window{Count: 3, ResetAt: base.Add(time.Second).UnixMilli()}
	require.NoError(t, store.Set(ctx, "k", w))

	mr.FastForward(time.Second)
	got, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, w, got)

	mr.FastForward(time.Millisecond)
	_, ok, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_PingContext(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := ratelimit.NewRedisStore(mr.Addr(), "", "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	require.NoError(t, store.PingContext(ctx))

	mr.Close()
	assert.Error(t, store.PingContext(ctx))
}
