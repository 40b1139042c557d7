// Package token issues and verifies the signed, time-limited tokens embedded
// in email confirmation links.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultMaxAge is how long a confirmation link stays valid.
const DefaultMaxAge = time.Hour

// ErrInvalid is returned for any token that cannot be trusted: bad signature,
// wrong salt, malformed, or expired. Callers show one message for all of them.
var ErrInvalid = errors.New("invalid or expired token")

// Claims is the payload of a confirmation token. The subject is the email
// address being confirmed.
type Claims struct {
	jwt.RegisteredClaims
}

// Confirmer signs and verifies confirmation tokens. The signing key is derived
// from the server secret and a salt, so tokens cannot be replayed against any
// other use of the same secret.
type Confirmer struct {
	key    []byte
	maxAge time.Duration
	now    func() time.Time
}

// Option customises a Confirmer.
type Option func(*Confirmer)

// WithMaxAge overrides DefaultMaxAge.
func WithMaxAge(d time.Duration) Option {
	return func(c *Confirmer) { c.maxAge = d }
}

// WithClock overrides time.Now; used by tests to move past expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Confirmer) { c.now = now }
}

// NewConfirmer constructs a Confirmer keyed by secret and salt.
func NewConfirmer(secret, salt string, opts ...Option) *Confirmer {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(salt))

	c := &Confirmer{
		key:    mac.Sum(nil),
		maxAge: DefaultMaxAge,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate returns a signed token for email.
func (c *Confirmer) Generate(email string) (string, error) {
	now := c.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.maxAge)),
		},
	})

	signed, err := tok.SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("token.Confirmer.Generate: %w", err)
	}
	return signed, nil
}

// Confirm verifies tokenString and returns the email it was issued for.
// Every failure is reported as ErrInvalid.
func (c *Confirmer) Confirm(tokenString string) (string, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return c.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return "", fmt.Errorf("token.Confirmer.Confirm: %w: %v", ErrInvalid, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("token.Confirmer.Confirm: %w: missing subject", ErrInvalid)
	}
	return claims.Subject, nil
}
