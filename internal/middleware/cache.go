package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/hex"
    "encoding/json"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    "github.com/iliyamo/startup-ecosystem/internal/config"
    "github.com/iliyamo/startup-ecosystem/internal/logger"
    "github.com/iliyamo/startup-ecosystem/internal/metrics"
)

// cachedResponse is what the browse cache stores per key.
type cachedResponse struct {
    Status int         `json:"s"`
    Header http.Header `json:"h"`
    Body   []byte      `json:"b"`
}

// captureWriter tees the response body up to limit bytes. overflow is set
// once the body outgrows the limit, and such a response is not cached.
type captureWriter struct {
    http.ResponseWriter
    status   int
    buf      bytes.Buffer
    limit    int
    overflow bool
}

func (cw *captureWriter) WriteHeader(code int) {
    cw.status = code
    cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
    if !cw.overflow {
        if cw.limit > 0 && cw.buf.Len()+len(b) > cw.limit {
            cw.overflow = true
            cw.buf.Reset()
        } else {
            cw.buf.Write(b)
        }
    }
    return cw.ResponseWriter.Write(b)
}

// cacheKeyFrom hashes the route template and, unless the strategy is
// "route", the raw query. Browse lists are identical for every founder so
// the caller's identity is not part of the key.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context) string {
    tail := c.Path()
    if !strings.EqualFold(cfg.KeyStrategy, "route") {
        tail += "?" + c.Request().URL.RawQuery
    }
    sum := sha1.Sum([]byte(tail))
    return cfg.Prefix + ":" + hex.EncodeToString(sum[:])
}

// NewRedisCache serves repeated browse requests from Redis. Only 200
// responses within MaxBodyBytes are stored; X-Cache reports HIT or MISS.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    ttl := cfg.TTL
    if ttl <= 0 {
        ttl = 30 * time.Second
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !cfg.Methods[c.Request().Method] {
                return next(c)
            }
            ctx := c.Request().Context()
            key := cacheKeyFrom(cfg, c)

            if hit, ok := lookup(ctx, rdb, key); ok {
                metrics.CacheLookups.WithLabelValues("hit").Inc()
                h := c.Response().Header()
                for k, vals := range hit.Header {
                    if strings.EqualFold(k, echo.HeaderContentLength) {
                        continue
                    }
                    h[k] = vals
                }
                h.Set("X-Cache", "HIT")
                return c.Blob(hit.Status, h.Get(echo.HeaderContentType), hit.Body)
            }
            metrics.CacheLookups.WithLabelValues("miss").Inc()

            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }
            if cw.status != http.StatusOK || cw.overflow {
                return nil
            }
            hdr := c.Response().Header().Clone()
            hdr.Del("X-Cache")
            payload, err := json.Marshal(cachedResponse{Status: cw.status, Header: hdr, Body: cw.buf.Bytes()})
            if err == nil {
                err = rdb.Set(context.WithoutCancel(ctx), key, payload, ttl).Err()
            }
            if err != nil {
                logger.FromEcho(c).Warn("browse cache store failed", zap.String("key", key), zap.Error(err))
            }
            return nil
        }
    }
}

func lookup(ctx context.Context, rdb *redis.Client, key string) (cachedResponse, bool) {
    bs, err := rdb.Get(ctx, key).Bytes()
    if err != nil {
        return cachedResponse{}, false
    }
    var r cachedResponse
    if json.Unmarshal(bs, &r) != nil || r.Status == 0 {
        return cachedResponse{}, false
    }
    return r, true
}

// InvalidateCache drops every cached response under prefix. Event CRUD,
// profile updates and admin user changes call it so founders do not wait
// out the TTL. A nil client is a no-op.
func InvalidateCache(ctx context.Context, rdb *redis.Client, prefix string) error {
    if rdb == nil {
        return nil
    }
    var keys []string
    iter := rdb.Scan(ctx, 0, prefix+":*", 100).Iterator()
    for iter.Next(ctx) {
        keys = append(keys, iter.Val())
    }
    if err := iter.Err(); err != nil || len(keys) == 0 {
        return err
    }
    return rdb.Del(ctx, keys...).Err()
}
