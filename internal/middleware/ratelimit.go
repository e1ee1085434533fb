// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/carterperez-dev/webuzz/internal/core"
)

type RateLimitConfig struct {
	// Name namespaces the limiter's keys so several limiters can share a
	// caller without sharing a bucket.
	Name       string
	Limit      redis_rate.Limit
	KeyFunc    func(*http.Request) string
	BypassFunc func(*http.Request) bool
	// Responder renders the 429. Without one a JSON body is written.
	Responder  ErrorResponder
	FailOpen   bool
}

type RateLimiter struct {
	limiter  *redis_rate.Limiter
	fallback *localLimiter
	config   RateLimitConfig
}

func NewRateLimiter(rdb *redis.Client, cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByIP
	}
	if cfg.Name == "" {
		cfg.Name = "global"
	}

	return &RateLimiter{
		limiter:  redis_rate.NewLimiter(rdb),
		fallback: newLocalLimiter(),
		config:   cfg,
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.config.BypassFunc != nil && rl.config.BypassFunc(r) {
			next.ServeHTTP(w, r)
			return
		}

		key := core.RedisKey("ratelimit", rl.config.Name, rl.config.KeyFunc(r))
		res, err := rl.allow(r.Context(), key)
		if err != nil {
			if rl.config.FailOpen {
				slog.Warn("rate limiter error, failing open",
					"error", err,
					"key", key,
				)
				next.ServeHTTP(w, r)
				return
			}
			http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
			return
		}

		setRateLimitHeaders(w, res, rl.config.Limit)

		if res.Allowed == 0 {
			rl.reject(w, r, res)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// allow asks redis first and falls back to an in-process bucket when redis
// is unreachable, so an outage degrades to per-instance limits.
func (rl *RateLimiter) allow(
	ctx context.Context,
	key string,
) (*redis_rate.Result, error) {
	res, err := rl.limiter.Allow(ctx, key, rl.config.Limit)
	if err != nil {
		return rl.fallback.allow(key, rl.config.Limit)
	}
	return res, nil
}

func (rl *RateLimiter) reject(w http.ResponseWriter, r *http.Request, res *redis_rate.Result) {
	retryAfter := max(int(res.RetryAfter.Seconds()), 1)
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

	slog.Info("rate limited",
		"limiter", rl.config.Name,
		"path", r.URL.Path,
		"request_id", GetRequestID(r.Context()),
	)

	if rl.config.Responder != nil {
		rl.config.Responder.Error(w, r, http.StatusTooManyRequests)
		return
	}

	core.JSON(w, http.StatusTooManyRequests, core.ErrorResponse{
		Error:   core.KindTooManyRequests,
		Message: fmt.Sprintf("rate limit exceeded, retry after %d seconds", retryAfter),
	})
}

// KeyByIP buckets by client address. The last X-Forwarded-For hop is the
// one our own proxy appended.
func KeyByIP(r *http.Request) string {
	return "ip:" + clientIP(r)
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		return strings.TrimSpace(hops[len(hops)-1])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func KeyByUser(r *http.Request) string {
	if userID := GetUserID(r.Context()); userID != "" {
		return "user:" + userID
	}
	return KeyByIP(r)
}

// KeyByUserAndEndpoint buckets a caller per route shape, so retrying one
// reset link or another uses the same allowance.
func KeyByUserAndEndpoint(r *http.Request) string {
	return KeyByUser(r) + ":" + normalizeEndpoint(r.URL.Path)
}

func normalizeEndpoint(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, part := range parts {
		switch {
		case isNumeric(part):
			parts[i] = "{id}"
		case isToken(part):
			parts[i] = "{token}"
		}
	}
	return "/" + strings.Join(parts, "/")
}

// isToken matches the compact JWS form carried in account links.
func isToken(s string) bool {
	return strings.Count(s, ".") == 2 && len(s) > 32
}

func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
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
}

// PostsOnly limits only form submissions; page views pass through.
func PostsOnly(r *http.Request) bool {
	return r.Method != http.MethodPost
}

const (
	sweepEvery = 5 * time.Minute
	idleAfter  = 10 * time.Minute
)

type bucket struct {
	tokens   *rate.Limiter
	lastSeen time.Time
}

// localLimiter keeps token buckets in memory for when redis is down. Idle
// buckets are swept on the next allow after sweepEvery has passed.
type localLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	swept   time.Time
}

func newLocalLimiter() *localLimiter {
	return &localLimiter{buckets: make(map[string]*bucket), swept: time.Now()}
}

func (l *localLimiter) allow(key string, limit redis_rate.Limit) (*redis_rate.Result, error) {
	if limit.Rate <= 0 || limit.Period <= 0 {
		return nil, fmt.Errorf("invalid limit %d per %s", limit.Rate, limit.Period)
	}
	interval := limit.Period / time.Duration(limit.Rate)
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.swept) >= sweepEvery {
		for k, b := range l.buckets {
			if now.Sub(b.lastSeen) >= idleAfter {
				delete(l.buckets, k)
			}
		}
		l.swept = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: rate.NewLimiter(rate.Every(interval), limit.Burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	res := &redis_rate.Result{Limit: limit, RetryAfter: -1, ResetAfter: interval}
	if b.tokens.AllowN(now, 1) {
		res.Allowed = 1
		res.Remaining = max(int(b.tokens.TokensAt(now)), 0)
	} else {
		res.RetryAfter = interval
	}

	return res, nil
}

func PerMinute(rate, burst int) redis_rate.Limit {
	return redis_rate.Limit{
		Rate:   rate,
		Burst:  burst,
		Period: time.Minute,
	}
}

// PerWindow allows rate requests per period. A zero period means a minute.
func PerWindow(rate, burst int, period time.Duration) redis_rate.Limit {
	if period <= 0 {
		return PerMinute(rate, burst)
	}
	return redis_rate.Limit{
		Rate:   rate,
		Burst:  burst,
		Period: period,
	}
}
