package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomString returns n characters drawn uniformly from [a-zA-Z0-9]
// using crypto/rand.
func RandomString(n int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(alphabet[idx.Int64()])
	}
	return b.String(), nil
}

// ServiceCode builds the lower-cased slug service-<random>-<unix millis>.
func ServiceCode(now time.Time) (string, error) {
	id, err := RandomString(10)
	if err != nil {
		return "", err
	}
	return strings.ToLower(fmt.Sprintf("service-%s-%d", id, now.UnixMilli())), nil
}

// ClientCredentials is a freshly generated client key pair.  Secret is
// plaintext and must be hashed before it is stored.
type ClientCredentials struct {
	PublicID string
	Secret   string
}

// NewClientCredentials generates a public id and a secret of the given
// lengths.
func NewClientCredentials(idLen, secretLen int) (ClientCredentials, error) {
	id, err := RandomString(idLen)
	if err != nil {
		return ClientCredentials{}, err
	}
	secret, err := RandomString(secretLen)
	if err != nil {
		return ClientCredentials{}, err
	}
	return ClientCredentials{PublicID: id, Secret: secret}, nil
}
