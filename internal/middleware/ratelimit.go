package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"iprange-filter/internal/logger"
	"iprange-filter/internal/metrics"

	"github.com/redis/go-redis/v9"
)

// Limiter：入口限流器
type Limiter interface {
	Name() string
	Allow(ctx context.Context) (bool, error)
}

// 文档注释：进程内令牌桶（每秒补满）
// 约束：简化实现，不排队，超限直接返回 429
type TokenBucket struct {
	capacity int
	tokens   int
	lastSec  int64
	now      func() time.Time
	mu       sync.Mutex
}

func NewTokenBucket(qps int) *TokenBucket {
	return &TokenBucket{capacity: qps, tokens: qps, lastSec: time.Now().Unix(), now: time.Now}
}

func (tb *TokenBucket) Name() string { return "local" }

func (tb *TokenBucket) Allow(ctx context.Context) (bool, error) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	nowSec := tb.now().Unix()
	if tb.lastSec != nowSec {
		tb.lastSec = nowSec
		tb.tokens = tb.capacity
	}
	if tb.tokens > 0 {
		tb.tokens--
		return true, nil
	}
	return false, nil
}

// 文档注释：基于 Redis 的固定窗口限流（每秒一个键）
// 背景：多实例部署时共享同一配额；键为 prefix+秒级时间戳，INCR 后设置 2s 过期
type RedisWindow struct {
	rc     *redis.Client
	prefix string
	qps    int64
	now    func() time.Time
}

func NewRedisWindow(rc *redis.Client, prefix string, qps int) *RedisWindow {
	return &RedisWindow{rc: rc, prefix: prefix, qps: int64(qps), now: time.Now}
}

func (rw *RedisWindow) Name() string { return "redis" }

func (rw *RedisWindow) Allow(ctx context.Context) (bool, error) {
	key := rw.prefix + strconv.FormatInt(rw.now().Unix(), 10)
	pipe := rw.rc.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, 2*time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, err
	}
	return incr.Val() <= rw.qps, nil
}

// Wrap：按限流器包装处理器；limiter 为 nil 时原样返回
// 约束：限流器出错时放行（fail-open）并记录日志，避免 Redis 故障阻断查询
func Wrap(next http.Handler, limiter Limiter) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, err := limiter.Allow(r.Context())
		if err != nil {
			logger.L().Warn("ratelimit_error", "limiter", limiter.Name(), "err", err)
		}
		if !ok {
			metrics.RateLimitedTotal.WithLabelValues(limiter.Name()).Inc()
			w.Header().Set("retry-after", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
