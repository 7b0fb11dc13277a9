package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestInspectToken_JWTClaims(t *testing.T) {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	token := signedToken(t, jwt.MapClaims{
		"iss":     "lantern",
		"sub":     "writer",
		"project": "starter",
		"exp":     exp.Unix(),
	})

	info, err := InspectToken(token)
	if err != nil {
		t.Fatalf("InspectToken: %v", err)
	}
	if info.Issuer != "lantern" {
		t.Errorf("expected issuer lantern, got %q", info.Issuer)
	}
	if info.Subject != "writer" {
		t.Errorf("expected subject writer, got %q", info.Subject)
	}
	if info.Project != "starter" {
		t.Errorf("expected project starter, got %q", info.Project)
	}
	if info.ExpiresAt == nil || !info.ExpiresAt.Equal(exp) {
		t.Errorf("expected expiry %v, got %v", exp, info.ExpiresAt)
	}
}

func TestInspectToken_Opaque(t *testing.T) {
	if _, err := InspectToken("lk_live_abc123"); !errors.Is(err, ErrOpaque) {
		t.Fatalf("expected ErrOpaque, got %v", err)
	}
}

func TestInspectToken_Empty(t *testing.T) {
	if _, err := InspectToken(""); !errors.Is(err, ErrEmptyToken) {
		t.Fatalf("expected ErrEmptyToken, got %v", err)
	}
}

func TestTokenInfo_Expired(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		exp  *time.Time
		want bool
	}{
		{"no expiry", nil, false},
		{"expired", &past, true},
		{"live", &future, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := &TokenInfo{ExpiresAt: tt.exp}
			if got := info.Expired(now); got != tt.want {
				t.Errorf("Expired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTokenInfo_ExpiresWithin(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	soon := now.Add(10 * time.Minute)

	info := &TokenInfo{ExpiresAt: &soon}
	if !info.ExpiresWithin(now, time.Hour) {
		t.Error("expected token to expire within the hour")
	}
	if info.ExpiresWithin(now, time.Minute) {
		t.Error("token should not expire within one minute")
	}
	if (&TokenInfo{}).ExpiresWithin(now, time.Hour) {
		t.Error("token without expiry never expires")
	}
}
