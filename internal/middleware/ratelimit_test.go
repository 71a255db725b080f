package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(ts time.Time) func() time.Time { return func() time.Time { return ts } }

func TestTokenBucket(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	tb := NewTokenBucket(2)
	tb.now = fixedClock(ts)
	tb.lastSec = ts.Unix()

	for i := 0; i < 2; i++ {
		ok, err := tb.Allow(context.Background())
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := tb.Allow(context.Background())
	assert.False(t, ok)

	tb.now = fixedClock(ts.Add(time.Second))
	ok, _ = tb.Allow(context.Background())
	assert.True(t, ok)
}

func TestRedisWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rc.Close()

	ts := time.Unix(1700000000, 0)
	rw := NewRedisWindow(rc, "iprange:ratelimit:", 3)
	rw.now = fixedClock(ts)

	for i := 0; i < 3; i++ {
		ok, err := rw.Allow(context.Background())
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := rw.Allow(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, mr.Exists("iprange:ratelimit:1700000000"))
	assert.Greater(t, mr.TTL("iprange:ratelimit:1700000000"), time.Duration(0))

	rw.now = fixedClock(ts.Add(time.Second))
	ok, err = rw.Allow(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWrapRejectsWith429(t *testing.T) {
	tb := NewTokenBucket(1)
	ts := time.Unix(1700000000, 0)
	tb.now = fixedClock(ts)
	tb.lastSec = ts.Unix()

	h := Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), tb)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("retry-after"))
}

func TestWrapFailsOpenOnRedisError(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	defer rc.Close()
	mr.Close()

	h := Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), NewRedisWindow(rc, "k:", 1))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestWrapNilLimiter(t *testing.T) {
	next := http.NotFoundHandler()
	rec := httptest.NewRecorder()
	Wrap(next, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
