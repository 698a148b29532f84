package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultAccessTokenTTL is the default bearer token lifetime. Clients are
// expected to hold a token for a whole working session, so this is long by
// OAuth standards; the live session-version check is what actually bounds a
// token's useful life.
const DefaultAccessTokenTTL = 12 * time.Hour

// Claims are the bearer-token claims. SessionVersion is a snapshot of the
// identity's counter at issuance; the token is only honoured while the live
// counter still matches.
type Claims struct {
	jwt.RegisteredClaims

	// SessionVersion snapshot taken at issuance.
	SessionVersion int64 `json:"sver"`

	// Role of the identity at issuance ("admin" or "member").
	Role string `json:"role,omitempty"`

	// Username for the authenticated identity.
	Username string `json:"username,omitempty"`
}

// NewClaims builds minimally-correct claims for an identity.
func NewClaims(
	subject string,
	sessionVersion int64,
	role, username string,
	ttl time.Duration,
	issuer string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		SessionVersion: sessionVersion,
		Role:           role,
		Username:       username,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't before nbf.
func (c *Claims) ValidateExpiry() error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}
	return nil
}
