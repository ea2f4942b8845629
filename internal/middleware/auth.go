package middleware

import (
    "context"
    "errors"
    "log/slog"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/api-client-manager/internal/i18n"
    "github.com/iliyamo/api-client-manager/internal/identity"
    "github.com/iliyamo/api-client-manager/internal/model"
    "github.com/iliyamo/api-client-manager/internal/respond"
    "github.com/iliyamo/api-client-manager/internal/result"
)

// Auth message keys.
const (
    KeyMissingAuthorization = "auth.missingAuthorizationHeaders"
    KeyInvalidToken         = "auth.invalidToken"
    KeyMustBeAdministrator  = "auth.mustBeAdministrator"
)

// CustomerSyncer upserts the customer an identity assertion describes.
type CustomerSyncer interface {
    Sync(ctx context.Context, a model.IdentityAssertion) (*model.Customer, error)
}

// Auth verifies the Authorization header and makes the asserted customer
// the actor of the request.
type Auth struct {
    verifier  identity.Verifier
    customers CustomerSyncer
    bundle    *i18n.Bundle
    out       respond.Writer
}

// NewAuth panics if a dependency is nil.
func NewAuth(verifier identity.Verifier, customers CustomerSyncer, bundle *i18n.Bundle) *Auth {
    if verifier == nil || customers == nil || bundle == nil {
        panic("nil dependency passed to NewAuth")
    }
    return &Auth{verifier: verifier, customers: customers, bundle: bundle, out: respond.NewWriter(bundle)}
}

// RequireUser admits any authenticated customer.
func (a *Auth) RequireUser() echo.MiddlewareFunc { return a.require(false) }

// RequireAdmin admits only customers asserted as admin; others get 403.
func (a *Auth) RequireAdmin() echo.MiddlewareFunc { return a.require(true) }

func (a *Auth) require(admin bool) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            header := c.Request().Header.Get(echo.HeaderAuthorization)
            if header == "" {
                return a.out.Message(c, http.StatusUnauthorized, KeyMissingAuthorization)
            }
            ctx := c.Request().Context()
            assertion, err := a.verifier.Verify(ctx, header)
            if err != nil {
                return a.rejected(c, err)
            }
            if admin && !assertion.IsAdmin() {
                return a.out.Message(c, http.StatusForbidden, KeyMustBeAdministrator)
            }
            customer, err := a.customers.Sync(ctx, assertion)
            if err != nil {
                slog.Error("customer sync failed", "username", assertion.Username, "err", err)
                return a.out.Message(c, http.StatusInternalServerError, result.KeyServerError)
            }
            respond.SetActor(c, customer)
            adoptActorLanguage(c, a.bundle, customer)
            return next(c)
        }
    }
}

// rejected relays the provider's own status when it gave one.
func (a *Auth) rejected(c echo.Context, err error) error {
    var rej *identity.Rejection
    switch {
    case errors.As(err, &rej):
        return a.out.Message(c, rej.Status, KeyInvalidToken)
    case errors.Is(err, identity.ErrUnauthenticated):
        return a.out.Message(c, http.StatusUnauthorized, KeyInvalidToken)
    default:
        slog.Error("identity verification failed", "err", err)
        return a.out.Message(c, http.StatusInternalServerError, result.KeyServerError)
    }
}
