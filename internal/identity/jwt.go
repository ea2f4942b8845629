package identity

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/api-client-manager/internal/model"
)

// Claims is the payload of a locally signed identity assertion.  The
// assertion fields sit at the top level next to the registered claims.
type Claims struct {
	model.IdentityAssertion
	jwt.RegisteredClaims
}

// JWTVerifier accepts HS256 tokens signed with a shared secret.  It is used
// when the service runs without the upstream identity provider.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier returns a verifier for tokens signed with secret.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// Verify parses and validates the token.  Only HMAC signing methods are
// accepted.
func (v *JWTVerifier) Verify(_ context.Context, authorization string) (model.IdentityAssertion, error) {
	raw := bearer(authorization)
	if raw == "" {
		return model.IdentityAssertion{}, ErrUnauthenticated
	}
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !tok.Valid {
		return model.IdentityAssertion{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	a := claims.IdentityAssertion
	if a.CustomerID == 0 && claims.Subject != "" {
		if id, err := strconv.ParseUint(claims.Subject, 10, 64); err == nil {
			a.CustomerID = id
		}
	}
	if a.CustomerID == 0 || a.Username == "" {
		return model.IdentityAssertion{}, fmt.Errorf("%w: incomplete claims", ErrUnauthenticated)
	}
	return a, nil
}

// Sign issues an HS256 token carrying a, valid for ttl.
func Sign(secret string, a model.IdentityAssertion, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		IdentityAssertion: a,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(a.CustomerID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
