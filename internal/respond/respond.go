// Package respond carries request-scoped values between middleware and
// handlers and writes the {message, data} response envelope.
package respond

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/api-client-manager/internal/i18n"
	"github.com/iliyamo/api-client-manager/internal/model"
	"github.com/iliyamo/api-client-manager/internal/result"
)

// Context keys.
const (
	keyActor     = "customer"
	keyLanguage  = "lang"
	keyAPIClient = "api_client"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// SetActor records the authenticated customer.
func SetActor(c echo.Context, customer *model.Customer) { c.Set(keyActor, customer) }

// Actor returns the authenticated customer or nil.
func Actor(c echo.Context) *model.Customer {
	v, _ := c.Get(keyActor).(*model.Customer)
	return v
}

// SetLanguage records the negotiated response language.
func SetLanguage(c echo.Context, lang string) { c.Set(keyLanguage, lang) }

// Language returns the negotiated language, or the fallback.
func Language(c echo.Context) string {
	if v, ok := c.Get(keyLanguage).(string); ok && v != "" {
		return v
	}
	return i18n.Fallback
}

// SetAPIClient records the client whose credentials accompanied the request.
func SetAPIClient(c echo.Context, client *model.Client) { c.Set(keyAPIClient, client) }

// APIClient returns the calling client or nil.
func APIClient(c echo.Context) *model.Client {
	v, _ := c.Get(keyAPIClient).(*model.Client)
	return v
}

// Writer renders results in the caller's language.
type Writer struct {
	bundle *i18n.Bundle
}

// NewWriter returns a writer resolving messages through bundle.
func NewWriter(bundle *i18n.Bundle) Writer {
	return Writer{bundle: bundle}
}

// Result writes r with its status.
func (w Writer) Result(c echo.Context, r result.Result) error {
	return c.JSON(r.Status, Envelope{
		Message: w.bundle.Resolve(Language(c), r.Key, r.Args),
		Data:    r.Data,
	})
}

// Message writes a data-less envelope.
func (w Writer) Message(c echo.Context, status int, key string) error {
	return c.JSON(status, Envelope{Message: w.bundle.Resolve(Language(c), key, nil)})
}

// Failure writes an expected failure.
func (w Writer) Failure(c echo.Context, f *result.Failure) error {
	return w.Result(c, result.FromFailure(f))
}
