// Package identity verifies bearer credentials and returns what the
// identity provider asserts about their holder.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/api-client-manager/internal/model"
)

// ErrUnauthenticated is returned when the credential is missing, malformed
// or rejected by the provider.
var ErrUnauthenticated = errors.New("identity: unauthenticated")

// Rejection is a 4xx answer of the identity provider.  The status is
// relayed to the caller unchanged.
type Rejection struct {
	Status int
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("identity: provider answered %d", r.Status)
}

func (r *Rejection) Unwrap() error { return ErrUnauthenticated }

// Verifier turns an Authorization header value into an identity assertion.
type Verifier interface {
	Verify(ctx context.Context, authorization string) (model.IdentityAssertion, error)
}

// bearer strips an optional "Bearer " prefix.
func bearer(authorization string) string {
	v := strings.TrimSpace(authorization)
	if len(v) > 7 && strings.EqualFold(v[:7], "bearer ") {
		return strings.TrimSpace(v[7:])
	}
	return v
}
