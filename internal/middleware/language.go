package middleware

import (
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/api-client-manager/internal/i18n"
    "github.com/iliyamo/api-client-manager/internal/model"
    "github.com/iliyamo/api-client-manager/internal/respond"
)

const keyExplicitLanguage = "lang_explicit"

// Language picks the response language from the lang, Accept-Language or
// language headers, then the lang query parameter, else fallback.  A
// request that names no language later adopts its actor's.
func Language(bundle *i18n.Bundle, fallback string) echo.MiddlewareFunc {
    if !bundle.Supported(fallback) {
        fallback = i18n.Fallback
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            lang := fallback
            if raw := requested(c); raw != "" {
                c.Set(keyExplicitLanguage, true)
                if matched, ok := bundle.Match(raw); ok {
                    lang = matched
                } else {
                    lang = i18n.Fallback
                }
            }
            respond.SetLanguage(c, lang)
            return next(c)
        }
    }
}

func requested(c echo.Context) string {
    h := c.Request().Header
    for _, name := range []string{"lang", "Accept-Language", "language"} {
        if v := strings.TrimSpace(h.Get(name)); v != "" {
            return v
        }
    }
    return strings.TrimSpace(c.QueryParam("lang"))
}

// adoptActorLanguage switches to the customer's language unless the
// request chose one itself.
func adoptActorLanguage(c echo.Context, bundle *i18n.Bundle, customer *model.Customer) {
    if explicit, _ := c.Get(keyExplicitLanguage).(bool); explicit || customer == nil {
        return
    }
    lang := strings.ToLower(customer.Language)
    if bundle.Supported(lang) {
        respond.SetLanguage(c, lang)
    }
}
