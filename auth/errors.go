package auth

import "errors"

var (
	// ErrOpaque marks a token that is not a JWT. Callers treat it as
	// informational: opaque tokens are valid, they just carry no claims.
	ErrOpaque = errors.New("auth: token is opaque")

	// ErrEmptyToken is returned for an empty token string.
	ErrEmptyToken = errors.New("auth: empty token")
)
