package scrub

import (
	"fmt"
	"regexp"
	"strings"
)

// Context identifies where a value came from so a Scrubber can make
// field-aware decisions.
type Context struct {
	// Category is the attribute namespace, e.g. "message", "attribute".
	Category string
	// FieldName is the template field or attribute key the value belongs to.
	FieldName string
}

// Scrubber redacts sensitive content from a formatted value.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: scrubbing must be best-effort and must not panic.
type Scrubber interface {
	Scrub(ctx Context, value string) string
}

// Default sensitive-content patterns, matched case-insensitively against both
// the field name and the value.
var defaultPatterns = []string{
	"password",
	"passwd",
	"secret",
	"token",
	`api[-._ ]?key`,
	"auth",
	"credential",
	"session",
	"cookie",
	"csrf",
	"jwt",
	"ssn",
	`social[-._ ]?security`,
	`private[-._ ]?key`,
}

// SafeKeys lists field names that are never scrubbed. They carry transport
// metadata, not user data.
var SafeKeys = []string{
	"code.filepath",
	"code.lineno",
	"code.function",
	"lantern.msg_template",
	"lantern.span_type",
	"lantern.level_num",
	"span_name",
	"exception.type",
	"exception.stacktrace",
	"http.method",
	"http.route",
	"http.status_code",
	"url.path",
}

// Options configures a Matcher.
type Options struct {
	// ExtraPatterns are additional regular expressions appended to the
	// default pattern set.
	ExtraPatterns []string
	// ExtraSafeKeys are additional field names exempt from scrubbing.
	ExtraSafeKeys []string
}

// Matcher is the default Scrubber. It replaces any region of the value that
// matches a sensitive pattern; if the field name itself matches, the whole
// value is replaced.
type Matcher struct {
	pattern  *regexp.Regexp
	safeKeys map[string]struct{}
}

// NewMatcher builds a Matcher from the default pattern set plus opts.
func NewMatcher(opts Options) (*Matcher, error) {
	patterns := make([]string, 0, len(defaultPatterns)+len(opts.ExtraPatterns))
	patterns = append(patterns, defaultPatterns...)
	patterns = append(patterns, opts.ExtraPatterns...)

	re, err := regexp.Compile("(?i)(" + strings.Join(patterns, "|") + ")")
	if err != nil {
		return nil, fmt.Errorf("scrub: compile patterns: %w", err)
	}

	safe := make(map[string]struct{}, len(SafeKeys)+len(opts.ExtraSafeKeys))
	for _, k := range SafeKeys {
		safe[k] = struct{}{}
	}
	for _, k := range opts.ExtraSafeKeys {
		safe[k] = struct{}{}
	}

	return &Matcher{pattern: re, safeKeys: safe}, nil
}

// MustMatcher is NewMatcher for static configuration; it panics on an invalid
// extra pattern.
func MustMatcher(opts Options) *Matcher {
	m, err := NewMatcher(opts)
	if err != nil {
		panic(err)
	}
	return m
}

// Scrub redacts sensitive regions of value. Safe keys pass through untouched.
func (m *Matcher) Scrub(ctx Context, value string) string {
	if _, ok := m.safeKeys[ctx.FieldName]; ok {
		return value
	}

	// A sensitive field name taints the entire value.
	if ctx.FieldName != "" {
		if match := m.pattern.FindString(ctx.FieldName); match != "" {
			return redacted(match)
		}
	}

	return m.pattern.ReplaceAllStringFunc(value, redacted)
}

func redacted(match string) string {
	return "[Scrubbed due to '" + match + "']"
}

// NullScrubber disables scrubbing entirely.
type NullScrubber struct{}

// Scrub returns value unchanged.
func (NullScrubber) Scrub(ctx Context, value string) string { return value }

var (
	_ Scrubber = (*Matcher)(nil)
	_ Scrubber = NullScrubber{}
)
