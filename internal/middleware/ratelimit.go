package middleware

import (
    "log/slog"
    "math"
    "net/http"
    "strconv"
    "strings"

    "github.com/go-redis/redis_rate/v10"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/api-client-manager/internal/config"
    "github.com/iliyamo/api-client-manager/internal/respond"
    "github.com/iliyamo/api-client-manager/internal/telemetry"
)

// KeyTooManyRequests is the message of a 429.
const KeyTooManyRequests = "server.tooManyRequests"

// RateLimit throttles callers with a GCRA limiter kept in Redis.  Without
// Redis, or when disabled, it passes every request through.  A Redis error
// fails open.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client, out respond.Writer) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    limiter := redis_rate.NewLimiter(rdb)
    limit := redis_rate.Limit{Rate: cfg.Rate, Burst: cfg.Burst, Period: cfg.Period}

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := rateKey(cfg, c)
            res, err := limiter.Allow(c.Request().Context(), key, limit)
            if err != nil {
                slog.Warn("rate limiter unavailable", "key", key, "err", err)
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Burst))
            h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
            if res.Allowed == 0 {
                secs := int(math.Ceil(res.RetryAfter.Seconds()))
                if secs < 0 {
                    secs = 0
                }
                h.Set("Retry-After", strconv.Itoa(secs))
                telemetry.RateLimitedTotal.Inc()
                slog.Info("rate limited", "key", key, "retry_after", res.RetryAfter)
                return out.Message(c, http.StatusTooManyRequests, KeyTooManyRequests)
            }
            return next(c)
        }
    }
}

func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    route := c.Request().Method + " " + c.Path()
    caller := clientKey(c)
    if caller == "anon" {
        caller = ip
    }

    parts := []string{cfg.Prefix}
    switch strings.ToLower(cfg.KeyStrategy) {
    case "ip":
        parts = append(parts, "ip", ip)
    case "client":
        parts = append(parts, "client", caller)
    case "ip_route":
        parts = append(parts, "ip", ip, "route", route)
    default:
        parts = append(parts, "client", caller, "route", route)
    }
    return strings.Join(parts, ":")
}
