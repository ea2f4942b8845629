package middleware

import (
    "context"
    "errors"
    "log/slog"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/api-client-manager/internal/model"
    "github.com/iliyamo/api-client-manager/internal/repository"
    "github.com/iliyamo/api-client-manager/internal/respond"
    "github.com/iliyamo/api-client-manager/internal/result"
    "github.com/iliyamo/api-client-manager/internal/utils"
)

// Client credential headers and message keys.
const (
    HeaderClientID     = "client-id"
    HeaderClientSecret = "client-secret"

    KeyNoClientID       = "client.noClientIdSubmitted"
    KeyNoClientSecret   = "client.noClientSecretSubmitted"
    KeyClientKeyInvalid = "client.clientKeyIsInvalid"
    KeyClientExpired    = "client.clientCredentialsAreExpired"
    KeyClientSecretBad  = "client.clientSecretIsInvalid"
    KeyClientBlocked    = "client.clientIsBlocked"
    KeyIPNotAllowed     = "client.ipAddressNotAllowed"
)

// ClientFinder loads a client by public id.
type ClientFinder interface {
    Find(ctx context.Context, f model.ClientFilter) (*model.Client, error)
}

// ClientCredentials admits requests carrying the client-id/client-secret
// pair of a live client.  The checks run in order: presence, lookup,
// expiry, status, IP whitelist, then the bcrypt comparison.
func ClientCredentials(clients ClientFinder, out respond.Writer, now func() time.Time) echo.MiddlewareFunc {
    if now == nil {
        now = time.Now
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            publicID := strings.TrimSpace(c.Request().Header.Get(HeaderClientID))
            if publicID == "" {
                return out.Message(c, http.StatusUnauthorized, KeyNoClientID)
            }
            secret := c.Request().Header.Get(HeaderClientSecret)
            if secret == "" {
                return out.Message(c, http.StatusUnauthorized, KeyNoClientSecret)
            }

            client, err := clients.Find(c.Request().Context(), model.ClientFilter{PublicID: &publicID})
            if errors.Is(err, repository.ErrClientNotFound) {
                slog.Warn("api client not found", "client_id", publicID)
                return out.Message(c, http.StatusUnauthorized, KeyClientKeyInvalid)
            }
            if err != nil {
                slog.Error("api client lookup failed", "client_id", publicID, "err", err)
                return out.Message(c, http.StatusInternalServerError, result.KeyServerError)
            }

            ip := c.RealIP()
            slog.Info("api client request", "client_id", publicID, "scope", client.Scope, "ip", ip)
            switch {
            case client.Expired(now()):
                slog.Warn("api client expired", "client_id", publicID)
                return out.Message(c, http.StatusUnauthorized, KeyClientExpired)
            case client.Status == model.ClientBlocked:
                return out.Message(c, http.StatusUnauthorized, KeyClientBlocked)
            case !client.AllowsIP(ip):
                return out.Message(c, http.StatusUnauthorized, KeyIPNotAllowed)
            case !utils.VerifySecret(client.SecretKey, secret):
                return out.Message(c, http.StatusUnauthorized, KeyClientSecretBad)
            }

            respond.SetAPIClient(c, client)
            return next(c)
        }
    }
}
