// Package auth inspects write tokens without verifying them. Tokens that
// parse as JWTs expose their expiry and identifying claims so the client can
// warn about expired or soon-to-expire credentials at startup; opaque tokens
// are accepted as-is.
package auth
