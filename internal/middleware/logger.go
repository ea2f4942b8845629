package middleware

import (
    "log/slog"
    "time"

    "github.com/labstack/echo/v4"
)

// RequestLogger writes one structured line per request.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
    if logger == nil {
        logger = slog.Default()
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                c.Error(err)
            }
            status := c.Response().Status
            level := slog.LevelInfo
            if status >= 500 {
                level = slog.LevelError
            }
            logger.LogAttrs(c.Request().Context(), level, "http request",
                slog.String("method", c.Request().Method),
                slog.String("route", c.Path()),
                slog.Int("status", status),
                slog.Duration("latency", time.Since(start)),
                slog.String("request_id", requestID(c)),
                slog.String("remote_ip", c.RealIP()),
            )
            return nil
        }
    }
}
