package middleware

import (
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    "github.com/iliyamo/startup-ecosystem/internal/config"
    "github.com/iliyamo/startup-ecosystem/internal/logger"
    "github.com/iliyamo/startup-ecosystem/internal/metrics"
)

// bucketScript refills and takes one token atomically on the Redis side.
// KEYS[1] bucket key; ARGV now_ms, capacity, refill_tokens, interval_ms,
// ttl_s. Returns {allowed, remaining, retry_after_ms}.
var bucketScript = redis.NewScript(`
local now, cap, refill, interval, ttl =
    tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])
local st = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local tokens, ts = tonumber(st[1]), tonumber(st[2])
if tokens == nil or ts == nil then
    tokens, ts = cap, now
end
local steps = math.floor(math.max(0, now - ts) / interval)
if steps > 0 then
    tokens = math.min(cap, tokens + steps * refill)
    ts = ts + steps * interval
end
local allowed, retry = 0, 0
if tokens > 0 then
    allowed, tokens = 1, tokens - 1
else
    retry = math.max(0, interval - (now - ts))
end
redis.call('HSET', KEYS[1], 'tokens', tokens, 'ts', ts)
redis.call('EXPIRE', KEYS[1], ttl)
return {allowed, tokens, retry}
`)

// bucketResult is the decoded script reply.
type bucketResult struct {
    Allowed    bool
    Remaining  int64
    RetryAfter time.Duration
}

func parseBucket(v any) (bucketResult, bool) {
    arr, ok := v.([]any)
    if !ok || len(arr) != 3 {
        return bucketResult{}, false
    }
    allowed, ok1 := arr[0].(int64)
    remaining, ok2 := arr[1].(int64)
    retryMs, ok3 := arr[2].(int64)
    if !ok1 || !ok2 || !ok3 {
        return bucketResult{}, false
    }
    return bucketResult{
        Allowed:    allowed == 1,
        Remaining:  remaining,
        RetryAfter: time.Duration(retryMs) * time.Millisecond,
    }, true
}

// NewTokenBucket limits the unauthenticated auth endpoints per client IP.
// Without Redis, or when Redis errors, requests pass through unlimited.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := buildRateKey(cfg, c)
            reply, err := bucketScript.Run(c.Request().Context(), rdb, []string{key},
                time.Now().UnixMilli(),
                cfg.Capacity,
                cfg.RefillTokens,
                cfg.RefillInterval.Milliseconds(),
                int64(cfg.TTL/time.Second),
            ).Result()
            if err != nil {
                logger.FromEcho(c).Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
                return next(c)
            }
            res, ok := parseBucket(reply)
            if !ok {
                logger.FromEcho(c).Warn("rate limiter: unexpected reply", zap.Any("reply", reply))
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
            if cfg.Debug {
                h.Set("X-RateLimit-Key", key)
            }
            if res.Allowed {
                return next(c)
            }

            secs := int(math.Ceil(res.RetryAfter.Seconds()))
            h.Set("Retry-After", strconv.Itoa(secs))
            metrics.RateLimited.WithLabelValues(c.Path()).Inc()
            logger.FromEcho(c).Info("rate limited", zap.String("key", key), zap.Int("retry_after_s", secs))
            return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "too many requests", "retry_after": secs})
        }
    }
}

// buildRateKey keys the bucket by client IP, and by route unless the
// strategy is "ip".
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    parts := []string{cfg.Prefix, "ip", ip}
    if !strings.EqualFold(cfg.KeyStrategy, "ip") {
        parts = append(parts, "route", c.Request().Method+" "+c.Path())
    }
    return strings.Join(parts, ":")
}
