package middleware

import (
    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
)

const keyRequestID = "request_id"

// RequestID keeps an incoming X-Request-ID or mints a UUID, and echoes it
// on the response.
func RequestID() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            id := c.Request().Header.Get(echo.HeaderXRequestID)
            if id == "" {
                id = uuid.NewString()
            }
            c.Set(keyRequestID, id)
            c.Response().Header().Set(echo.HeaderXRequestID, id)
            return next(c)
        }
    }
}

// requestID returns the id set by RequestID, if any.
func requestID(c echo.Context) string {
    id, _ := c.Get(keyRequestID).(string)
    return id
}
