package middleware

// identity.go holds the helpers that tell callers apart for the rate
// limiter and the response cache.

import (
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/api-client-manager/internal/respond"
)

// clientKey is the public id of the calling client, or "anon" when the
// request carried no verified credentials.
func clientKey(c echo.Context) string {
    if cl := respond.APIClient(c); cl != nil && cl.PublicID != "" {
        return cl.PublicID
    }
    return "anon"
}

// resourceOf maps a route template such as /api/v1/services/:id to its
// resource name, "services".
func resourceOf(route string) string {
    route = strings.TrimPrefix(route, "/api/v1")
    route = strings.Trim(route, "/")
    if i := strings.IndexByte(route, '/'); i >= 0 {
        route = route[:i]
    }
    return route
}
