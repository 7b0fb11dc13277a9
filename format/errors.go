package format

import "errors"

// Template contract violations. These are the only errors the formatter
// raises to the caller; unresolved fields degrade to placeholder text instead.
var (
	// ErrMixedIndexing indicates a template mixes automatic {} and manual
	// {0} field numbering.
	ErrMixedIndexing = errors.New("format: cannot switch between automatic and manual field numbering")

	// ErrTooDeep indicates nested format specs exceeded the recursion limit.
	ErrTooDeep = errors.New("format: max placeholder recursion depth exceeded")

	// ErrUnbalanced indicates a single '}' or an unclosed '{' in the template.
	ErrUnbalanced = errors.New("format: unbalanced braces in template")

	// ErrBadSpec indicates a malformed format spec.
	ErrBadSpec = errors.New("format: invalid format spec")

	// ErrBadConversion indicates an unknown conversion flag.
	ErrBadConversion = errors.New("format: unknown conversion")
)
