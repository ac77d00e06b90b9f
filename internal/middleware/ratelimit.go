// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/PYMELOGI-API-s/Api-Usuario/internal/core"
)

// RateLimitConfig with FailOpen keeps limiting from in-process buckets when
// Redis errors instead of answering 503.
type RateLimitConfig struct {
	Limit      redis_rate.Limit
	KeyFunc    func(*http.Request) string
	KeyPrefix  string
	FailOpen   bool
	BypassFunc func(*http.Request) bool
	Logger     *slog.Logger
}

type RateLimiter struct {
	limiter  *redis_rate.Limiter
	fallback *memoryLimiter
	config   RateLimitConfig
}

func NewRateLimiter(rdb *redis.Client, cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByIP
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &RateLimiter{
		limiter:  redis_rate.NewLimiter(rdb),
		fallback: newMemoryLimiter(),
		config:   cfg,
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.config.BypassFunc != nil && rl.config.BypassFunc(r) {
			next.ServeHTTP(w, r)
			return
		}

		key := rl.config.KeyPrefix + rl.config.KeyFunc(r)
		res, err := rl.limiter.Allow(r.Context(), key, rl.config.Limit)
		if err != nil {
			if !rl.config.FailOpen {
				rl.config.Logger.Error("rate limiter unavailable", "error", err)
				core.ServiceUnavailable(w)
				return
			}
			rl.config.Logger.Warn("rate limiter error, using local buckets",
				"error", err,
				"key", key,
			)
			res = rl.fallback.allow(key, rl.config.Limit, time.Now())
		}

		setRateLimitHeaders(w, res, rl.config.Limit)

		if res.Allowed == 0 {
			writeRateLimitExceeded(w, res)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func KeyByIP(r *http.Request) string {
	return "ratelimit:ip:" + ClientIP(r)
}

func setRateLimitHeaders(
	w http.ResponseWriter,
	res *redis_rate.Result,
	limit redis_rate.Limit,
) {
	h := w.Header()

	h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(
		time.Now().Add(res.ResetAfter).Unix(), 10))

	windowSecs := int(limit.Period.Seconds())
	h.Set("RateLimit-Policy", fmt.Sprintf(`%d;w=%d`, limit.Rate, windowSecs))
	h.Set(
		"RateLimit",
		fmt.Sprintf(`%d;t=%d`, res.Remaining, int(res.ResetAfter.Seconds())),
	)
}

func writeRateLimitExceeded(w http.ResponseWriter, res *redis_rate.Result) {
	retryAfter := int(res.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	core.Fail(w, http.StatusTooManyRequests, core.MsgTooManyRequests)
}

// sweepInterval is how often idle buckets are looked for.
const sweepInterval = time.Minute

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
	idleTTL  time.Duration
}

// memoryLimiter answers in the redis_rate result shape from x/time/rate
// buckets while Redis is unreachable. Counts are per process.
type memoryLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

func newMemoryLimiter() *memoryLimiter {
	return &memoryLimiter{buckets: make(map[string]*bucket)}
}

func (m *memoryLimiter) allow(
	key string,
	limit redis_rate.Limit,
	now time.Time,
) *redis_rate.Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	if now.Sub(m.lastSweep) > sweepInterval {
		m.sweep(now)
	}

	b, ok := m.buckets[key]
	if !ok {
		b = &bucket{
			limiter: rate.NewLimiter(refillRate(limit), limit.Burst),
			idleTTL: idleTTL(limit),
		}
		m.buckets[key] = b
	}
	b.lastSeen = now

	res := &redis_rate.Result{Limit: limit, RetryAfter: -1}
	if b.limiter.AllowN(now, 1) {
		res.Allowed = 1
	} else {
		r := b.limiter.ReserveN(now, 1)
		res.RetryAfter = r.DelayFrom(now)
		r.CancelAt(now)
	}

	tokens := b.limiter.TokensAt(now)
	res.Remaining = max(int(tokens), 0)
	if missing := float64(limit.Burst) - tokens; missing > 0 {
		res.ResetAfter = time.Duration(missing * float64(time.Second) / float64(refillRate(limit)))
	}
	return res
}

// sweep drops buckets idle long enough to have refilled completely, so a
// fresh bucket for the same key would answer the same.
func (m *memoryLimiter) sweep(now time.Time) {
	for key, b := range m.buckets {
		if now.Sub(b.lastSeen) > b.idleTTL {
			delete(m.buckets, key)
		}
	}
	m.lastSweep = now
}

// idleTTL is the time an empty bucket needs to fill up again, never less
// than one window.
func idleTTL(limit redis_rate.Limit) time.Duration {
	ttl := limit.Period
	if limit.Rate > 0 && limit.Burst > 0 {
		ttl = max(ttl, limit.Period*time.Duration(limit.Burst)/time.Duration(limit.Rate))
	}
	return ttl
}

func refillRate(limit redis_rate.Limit) rate.Limit {
	if limit.Rate <= 0 || limit.Period <= 0 {
		return rate.Inf
	}
	return rate.Every(limit.Period / time.Duration(limit.Rate))
}

// Window allows rate requests per period with up to burst at once.
func Window(rate, burst int, period time.Duration) redis_rate.Limit {
	if burst <= 0 {
		burst = rate
	}
	return redis_rate.Limit{
		Rate:   rate,
		Burst:  burst,
		Period: period,
	}
}
