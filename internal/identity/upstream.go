package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/iliyamo/api-client-manager/internal/model"
)

// UpstreamVerifier asks the identity provider to authenticate the bearer.
type UpstreamVerifier struct {
	baseURL      string
	clientID     string
	clientSecret string
	http         *http.Client
}

// NewUpstreamVerifier targets the provider at baseURL with the service's
// own client credentials.
func NewUpstreamVerifier(baseURL, clientID, clientSecret string, timeout time.Duration) *UpstreamVerifier {
	return &UpstreamVerifier{
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		http:         &http.Client{Timeout: timeout},
	}
}

type authenticateResponse struct {
	Data *model.IdentityAssertion `json:"data"`
}

// Verify forwards the Authorization header to /auth/authenticate-user.
// A 4xx answer means the credential was rejected.
func (v *UpstreamVerifier) Verify(ctx context.Context, authorization string) (model.IdentityAssertion, error) {
	if strings.TrimSpace(authorization) == "" {
		return model.IdentityAssertion{}, ErrUnauthenticated
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/auth/authenticate-user", nil)
	if err != nil {
		return model.IdentityAssertion{}, err
	}
	req.Header.Set("Authorization", authorization)
	req.Header.Set("client-id", v.clientID)
	req.Header.Set("api-key", v.clientSecret)

	resp, err := v.http.Do(req)
	if err != nil {
		return model.IdentityAssertion{}, fmt.Errorf("identity provider: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return model.IdentityAssertion{}, &Rejection{Status: resp.StatusCode}
	case resp.StatusCode >= 300:
		return model.IdentityAssertion{}, fmt.Errorf("identity provider: unexpected status %d", resp.StatusCode)
	}
	var body authenticateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return model.IdentityAssertion{}, fmt.Errorf("identity provider: decode: %w", err)
	}
	if body.Data == nil || body.Data.Username == "" {
		return model.IdentityAssertion{}, fmt.Errorf("%w: empty assertion", ErrUnauthenticated)
	}
	return *body.Data, nil
}
