package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo holds the claims extracted from a write token. Zero-value
// fields mean the claim was absent.
type TokenInfo struct {
	// Issuer is the iss claim.
	Issuer string

	// Subject is the sub claim.
	Subject string

	// Project is the project identifier, when the issuer embeds one.
	Project string

	// ExpiresAt is the exp claim; nil when the token never expires.
	ExpiresAt *time.Time
}

// Expired reports whether the token's expiry has passed at now. Tokens
// without an exp claim never expire.
func (t *TokenInfo) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && now.After(*t.ExpiresAt)
}

// ExpiresWithin reports whether the token expires inside the window.
func (t *TokenInfo) ExpiresWithin(now time.Time, window time.Duration) bool {
	return t.ExpiresAt != nil && now.Add(window).After(*t.ExpiresAt)
}

// InspectToken parses token as a JWT without verifying the signature and
// returns its claims. Signature verification is the backend's job; the
// client only uses the claims to warn about expired credentials.
//
// Contract:
//   - An empty token returns ErrEmptyToken.
//   - A token that does not parse as a JWT returns ErrOpaque; opaque
//     tokens are not an authentication failure.
//   - Claims are taken at face value and must never gate access.
func InspectToken(token string) (*TokenInfo, error) {
	if token == "" {
		return nil, ErrEmptyToken
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, ErrOpaque
	}

	info := &TokenInfo{}
	if iss, err := claims.GetIssuer(); err == nil {
		info.Issuer = iss
	}
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if proj, ok := claims["project"].(string); ok {
		info.Project = proj
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		info.ExpiresAt = &t
	}
	return info, nil
}
