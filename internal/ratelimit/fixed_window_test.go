package ratelimit

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T, srv *miniredis.Miniredis, limit int) *FixedWindowLimiter {
	t.Helper()
	client := NewRedisClient(srv.Addr(), "", 0)
	t.Cleanup(func() { _ = client.Close() })
	limiter, err := NewFixedWindowLimiter(client, "test:ratelimit", limit, time.Minute)
	require.NoError(t, err)
	return limiter
}

func TestFixedWindowLimiter(t *testing.T) {
	srv := miniredis.RunT(t)
	limiter := newLimiter(t, srv, 2)
	limiter.now = func() time.Time { return time.Unix(600, 0) }

	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow("10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i+1)
	}
	ok, err := limiter.Allow("10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = limiter.Allow("10.0.0.2")
	require.NoError(t, err)
	assert.True(t, ok, "other identifiers have their own quota")

	// The next window starts a fresh count.
	limiter.now = func() time.Time { return time.Unix(660, 0) }
	ok, err = limiter.Allow("10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFixedWindowLimiterSetsExpiry(t *testing.T) {
	srv := miniredis.RunT(t)
	limiter := newLimiter(t, srv, 5)
	limiter.now = func() time.Time { return time.Unix(600, 0) }

	_, err := limiter.Allow("10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, srv.TTL("test:ratelimit:10.0.0.1:10"))
}

func TestFixedWindowLimiterFailsClosed(t *testing.T) {
	srv := miniredis.RunT(t)
	limiter := newLimiter(t, srv, 5)
	srv.Close()

	ok, err := limiter.Allow("10.0.0.1")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestNewFixedWindowLimiterValidates(t *testing.T) {
	_, err := NewFixedWindowLimiter(nil, "", 1, time.Second)
	assert.Error(t, err)

	client := NewRedisClient("localhost:0", "", 0)
	defer client.Close()
	_, err = NewFixedWindowLimiter(client, "", 0, time.Second)
	assert.Error(t, err)
}
