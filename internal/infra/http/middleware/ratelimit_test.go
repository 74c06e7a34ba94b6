package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(2, time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	ok, remaining, _ := l.Allow(ctx, "1.2.3.4")
	assert.True(t, ok)
	assert.Equal(t, 1, remaining)
	ok, _, _ = l.Allow(ctx, "1.2.3.4")
	assert.True(t, ok)
	ok, remaining, _ = l.Allow(ctx, "1.2.3.4")
	assert.False(t, ok)
	assert.Zero(t, remaining)

	ok, _, _ = l.Allow(ctx, "5.6.7.8")
	assert.True(t, ok, "outro IP tem contagem própria")

	now = now.Add(time.Minute + time.Second)
	ok, _, _ = l.Allow(ctx, "1.2.3.4")
	assert.True(t, ok, "janela nova zera a contagem")
}

func TestRedisLimiter_SharesCountAndExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	now := time.Date(2026, 1, 1, 0, 0, 10, 0, time.UTC)
	l := NewRedisLimiter(client, 3, time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, _, err := l.Allow(ctx, "ip")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, remaining, err := l.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, remaining)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Greater(t, mr.TTL(keys[0]), time.Duration(0))

	now = now.Add(time.Minute)
	ok, _, err = l.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRateLimit_RejectsWith429(t *testing.T) {
	handler := RateLimit(NewMemoryLimiter(1, time.Minute))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/leads", nil)
	req.RemoteAddr = "9.9.9.9:4000"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("RateLimit-Limit"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Too many requests from this IP")
}

func TestRateLimit_FailsOpenWhenRedisIsDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	mr.Close()

	handler := RateLimit(NewRedisLimiter(client, 1, time.Minute))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/leads", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestClientIP_IgnoresForwardingHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	assert.Equal(t, "192.0.2.1", clientIP(req))

	req.Header.Set("X-Real-IP", "203.0.113.7")
	req.Header.Set("X-Forwarded-For", "198.51.100.1")
	assert.Equal(t, "192.0.2.1", clientIP(req))
}

func TestRateLimit_SpoofedForwardedForDoesNotResetQuota(t *testing.T) {
	handler := RateLimit(NewMemoryLimiter(1, time.Minute))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for _, spoofed := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"} {
		req := httptest.NewRequest(http.MethodPost, "/api/leads", nil)
		req.RemoteAddr = "192.0.2.1:5555"
		req.Header.Set("X-Forwarded-For", spoofed)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}

func TestRateLimit_TrustedProxyUsesRealIP(t *testing.T) {
	handler := chimw.RealIP(RateLimit(NewMemoryLimiter(1, time.Minute))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	for _, client := range []string{"198.51.100.1", "198.51.100.2"} {
		req := httptest.NewRequest(http.MethodPost, "/api/leads", nil)
		req.RemoteAddr = "10.0.0.1:443"
		req.Header.Set("X-Forwarded-For", client)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code, client)
	}
}
