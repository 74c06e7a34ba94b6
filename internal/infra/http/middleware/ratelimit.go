package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/render"
	"github.com/redis/go-redis/v9"
	"github.com/xavierca1/funnel-leads/internal/log"
)

const rateLimitMessage = "Too many requests from this IP, please try again after 15 minutes"

// Limiter conta requisições por chave numa janela fixa.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, remaining int, err error)
	Limit() int
}

// RedisLimiter compartilha a contagem entre instâncias da API.
type RedisLimiter struct {
	Client *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{Client: client, limit: limit, window: window, now: time.Now}
}

func (l *RedisLimiter) Limit() int { return l.limit }

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	bucket := l.now().UnixNano() / int64(l.window)
	redisKey := fmt.Sprintf("ratelimit:%s:%d", key, bucket)

	var incr *redis.IntCmd
	_, err := l.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.Expire(ctx, redisKey, l.window)
		return nil
	})
	if err != nil {
		return true, l.limit, err
	}

	count := int(incr.Val())
	return count <= l.limit, max(l.limit-count, 0), nil
}

// MemoryLimiter é usado quando não há Redis configurado.
type MemoryLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    int
	window   time.Duration
	now      func() time.Time
}

type visitor struct {
	count     int
	lastReset time.Time
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

func (rl *MemoryLimiter) Limit() int { return rl.limit }

func (rl *MemoryLimiter) Allow(_ context.Context, key string) (bool, int, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, exists := rl.visitors[key]
	if !exists || now.Sub(v.lastReset) > rl.window {
		rl.visitors[key] = &visitor{count: 1, lastReset: now}
		return true, rl.limit - 1, nil
	}

	v.count++
	return v.count <= rl.limit, max(rl.limit-v.count, 0), nil
}

// Cleanup remove visitantes parados há mais de duas janelas até ctx ser cancelado.
func (rl *MemoryLimiter) Cleanup(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for key, v := range rl.visitors {
				if now.Sub(v.lastReset) > rl.window*2 {
					delete(rl.visitors, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// RateLimit limita por IP. Se o Redis falhar a requisição passa.
func RateLimit(limiter Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, remaining, err := limiter.Allow(r.Context(), clientIP(r))
			if err != nil {
				log.Warnf("⚠️ rate limiter indisponível: %v", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("RateLimit-Limit", strconv.Itoa(limiter.Limit()))
			w.Header().Set("RateLimit-Remaining", strconv.Itoa(remaining))

			if !allowed {
				rateLimited.Inc()
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, map[string]string{"message": rateLimitMessage})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP usa só o RemoteAddr. Atrás de proxy confiável o chi RealIP (TRUST_PROXY)
// já reescreveu o RemoteAddr a partir dos headers.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
