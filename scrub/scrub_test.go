package scrub

import (
	"strings"
	"testing"
)

func TestMatcher_Scrub(t *testing.T) {
	m := MustMatcher(Options{})

	tests := []struct {
		name  string
		ctx   Context
		value string
		want  string
	}{
		{
			name:  "clean value untouched",
			ctx:   Context{Category: "message", FieldName: "user"},
			value: "alice",
			want:  "alice",
		},
		{
			name:  "sensitive field name taints whole value",
			ctx:   Context{Category: "attribute", FieldName: "password"},
			value: "hunter2",
			want:  "[Scrubbed due to 'password']",
		},
		{
			name:  "sensitive region inside value",
			ctx:   Context{Category: "message", FieldName: "detail"},
			value: "the api key leaked",
			want:  "the [Scrubbed due to 'api key'] leaked",
		},
		{
			name:  "case insensitive",
			ctx:   Context{Category: "message", FieldName: "note"},
			value: "JWT rotation pending",
			want:  "[Scrubbed due to 'JWT'] rotation pending",
		},
		{
			name:  "safe key passes through",
			ctx:   Context{Category: "attribute", FieldName: "code.filepath"},
			value: "auth/token.go",
			want:  "auth/token.go",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Scrub(tt.ctx, tt.value); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestMatcher_ExtraPatterns(t *testing.T) {
	m := MustMatcher(Options{ExtraPatterns: []string{"internal[-_]?id"}})

	got := m.Scrub(Context{FieldName: "note"}, "see internal_id for details")
	if !strings.Contains(got, "Scrubbed due to 'internal_id'") {
		t.Errorf("extra pattern not applied: %q", got)
	}
}

func TestMatcher_ExtraSafeKeys(t *testing.T) {
	m := MustMatcher(Options{ExtraSafeKeys: []string{"token_kind"}})

	got := m.Scrub(Context{FieldName: "token_kind"}, "bearer")
	if got != "bearer" {
		t.Errorf("extra safe key not honored: %q", got)
	}
}

func TestNewMatcher_BadPattern(t *testing.T) {
	if _, err := NewMatcher(Options{ExtraPatterns: []string{"("}}); err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}

func TestNullScrubber(t *testing.T) {
	got := NullScrubber{}.Scrub(Context{FieldName: "password"}, "hunter2")
	if got != "hunter2" {
		t.Errorf("NullScrubber must pass through, got %q", got)
	}
}
