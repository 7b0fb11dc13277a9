package format

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/lanternhq/lantern/scrub"
)

// ChunkKind distinguishes literal template text from formatted arguments.
type ChunkKind int

const (
	// Literal is opaque template text.
	Literal ChunkKind = iota
	// Arg is the formatted value of one placeholder.
	Arg
)

func (k ChunkKind) String() string {
	if k == Arg {
		return "arg"
	}
	return "lit"
}

// Chunk is one element of a rendered template. Concatenating chunk texts in
// order reproduces the final message string exactly.
type Chunk struct {
	Kind ChunkKind
	Text string
	// Spec is the format spec the argument was rendered with, if any.
	Spec string
}

// DefaultMaxArgLength caps formatted argument values; longer values are
// middle-truncated after scrubbing.
const DefaultMaxArgLength = 512

// DefaultMaxDepth bounds nested format-spec expansion.
const DefaultMaxDepth = 2

// Options configures a render.
type Options struct {
	// Args supplies values for automatic {} and manual {0} placeholders.
	Args []any

	// Scrubber redacts argument values before truncation. Nil disables
	// scrubbing.
	Scrubber scrub.Scrubber

	// MaxArgLength overrides DefaultMaxArgLength when positive.
	MaxArgLength int

	// MaxDepth overrides DefaultMaxDepth when positive.
	MaxDepth int

	// OnWarn receives non-fatal diagnostics (unresolved fields). Nil drops
	// them.
	OnWarn func(msg string)
}

func (o Options) maxArgLength() int {
	if o.MaxArgLength > 0 {
		return o.MaxArgLength
	}
	return DefaultMaxArgLength
}

func (o Options) maxDepth() int {
	if o.MaxDepth > 0 {
		return o.MaxDepth
	}
	return DefaultMaxDepth
}

func (o Options) warn(format string, args ...any) {
	if o.OnWarn != nil {
		o.OnWarn(fmt.Sprintf(format, args...))
	}
}

// Chunks renders template against kwargs and opts.Args, producing the ordered
// literal/argument chunk sequence. Unresolved fields degrade to "{field}"
// placeholder text with a warning; grammar violations return an error.
func Chunks(template string, kwargs map[string]any, opts Options) ([]Chunk, error) {
	r := &renderer{kwargs: kwargs, opts: opts, autoIndex: -1}
	chunks, err := r.render(template, 1)
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// JoinChunks concatenates chunk texts into the final message.
func JoinChunks(chunks []Chunk) string {
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c.Text)
	}
	return b.String()
}

// Message is a convenience wrapper returning only the rendered string.
func Message(template string, kwargs map[string]any, opts Options) (string, error) {
	chunks, err := Chunks(template, kwargs, opts)
	if err != nil {
		return "", err
	}
	return JoinChunks(chunks), nil
}

type indexingMode int

const (
	indexingUnset indexingMode = iota
	indexingAuto
	indexingManual
)

type renderer struct {
	kwargs    map[string]any
	opts      Options
	mode      indexingMode
	autoIndex int
}

func (r *renderer) render(template string, depth int) ([]Chunk, error) {
	if depth > r.opts.maxDepth() {
		return nil, fmt.Errorf("%w (depth %d)", ErrTooDeep, depth)
	}

	var chunks []Chunk
	lit := func(text string) {
		if text == "" {
			return
		}
		if n := len(chunks); n > 0 && chunks[n-1].Kind == Literal {
			chunks[n-1].Text += text
			return
		}
		chunks = append(chunks, Chunk{Kind: Literal, Text: text})
	}

	s := template
	for len(s) > 0 {
		open := strings.IndexAny(s, "{}")
		if open < 0 {
			lit(s)
			break
		}
		lit(s[:open])
		s = s[open:]

		// Brace escapes.
		if strings.HasPrefix(s, "{{") {
			lit("{")
			s = s[2:]
			continue
		}
		if strings.HasPrefix(s, "}}") {
			lit("}")
			s = s[2:]
			continue
		}
		if s[0] == '}' {
			return nil, fmt.Errorf("%w: single '}' at %q", ErrUnbalanced, s)
		}

		body, rest, ok := splitPlaceholder(s)
		if !ok {
			return nil, fmt.Errorf("%w: unclosed '{' at %q", ErrUnbalanced, s)
		}
		s = rest

		chunk, echo, err := r.renderField(body, depth)
		if err != nil {
			return nil, err
		}
		if echo != "" {
			lit(echo)
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

// splitPlaceholder consumes "{...}" from the front of s, honoring nested
// braces inside a format spec. It returns the placeholder body and the
// remainder of the template.
func splitPlaceholder(s string) (body, rest string, ok bool) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[1:i], s[i+1:], true
			}
		}
	}
	return "", "", false
}

// renderField formats one placeholder body ("field", "field=", "field!conv",
// "field:spec", or combinations). echo is the literal "field=" text emitted
// before the argument chunk for the echo-equals form.
func (r *renderer) renderField(body string, depth int) (Chunk, string, error) {
	field, conv, spec := splitField(body)

	echo := ""
	if strings.HasSuffix(field, "=") {
		field = strings.TrimSuffix(field, "=")
		echo = field + "="
	}

	value, ok, err := r.resolve(field)
	if err != nil {
		return Chunk{}, "", err
	}
	if !ok {
		r.opts.warn("format: field %q not found; substituting placeholder", field)
		return Chunk{Kind: Arg, Text: "{" + field + "}", Spec: spec}, echo, nil
	}

	text, err := convert(value, conv)
	if err != nil {
		return Chunk{}, "", err
	}

	if spec != "" {
		expanded, err := r.expandSpec(spec, depth)
		if err != nil {
			return Chunk{}, "", err
		}
		text, err = applySpec(value, text, expanded)
		if err != nil {
			return Chunk{}, "", err
		}
		spec = expanded
	}

	text = r.finish(field, text)
	return Chunk{Kind: Arg, Text: text, Spec: spec}, echo, nil
}

// expandSpec resolves placeholders embedded in a format spec, e.g.
// "{width}.{prec}f". The expansion counts against the recursion limit.
func (r *renderer) expandSpec(spec string, depth int) (string, error) {
	if !strings.ContainsAny(spec, "{}") {
		return spec, nil
	}
	chunks, err := r.render(spec, depth+1)
	if err != nil {
		return "", err
	}
	return JoinChunks(chunks), nil
}

// resolve looks up a field value. Empty fields use automatic positional
// indexing, all-digit fields use manual indexing, names go through kwargs
// with nested-path fallback.
func (r *renderer) resolve(field string) (any, bool, error) {
	if field == "" {
		if err := r.setMode(indexingAuto); err != nil {
			return nil, false, err
		}
		r.autoIndex++
		return r.positional(r.autoIndex)
	}

	if isDigits(field) {
		if err := r.setMode(indexingManual); err != nil {
			return nil, false, err
		}
		idx, _ := strconv.Atoi(field)
		return r.positional(idx)
	}

	// Dotted names walk nested maps and struct fields; a literal key with
	// the dot in it wins only if the walk fails.
	if strings.Contains(field, ".") {
		if v, ok := r.resolvePath(field); ok {
			return v, true, nil
		}
	}

	if v, ok := r.kwargs[field]; ok {
		return v, true, nil
	}
	return nil, false, nil
}

func (r *renderer) setMode(m indexingMode) error {
	if r.mode == indexingUnset {
		r.mode = m
		return nil
	}
	if r.mode != m {
		return ErrMixedIndexing
	}
	return nil
}

func (r *renderer) positional(idx int) (any, bool, error) {
	if idx < 0 || idx >= len(r.opts.Args) {
		return nil, false, nil
	}
	return r.opts.Args[idx], true, nil
}

func (r *renderer) resolvePath(field string) (any, bool) {
	parts := strings.Split(field, ".")
	v, ok := r.kwargs[parts[0]]
	if !ok {
		return nil, false
	}
	for _, part := range parts[1:] {
		v, ok = step(v, part)
		if !ok {
			return nil, false
		}
	}
	return v, true
}

// step descends one path segment into a map or exported struct field.
func step(v any, key string) (any, bool) {
	if m, ok := v.(map[string]any); ok {
		child, ok := m[key]
		return child, ok
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		kv := rv.MapIndex(reflect.ValueOf(key))
		if !kv.IsValid() {
			return nil, false
		}
		return kv.Interface(), true
	case reflect.Struct:
		fv := rv.FieldByName(key)
		if !fv.IsValid() || !fv.CanInterface() {
			return nil, false
		}
		return fv.Interface(), true
	}
	return nil, false
}

// convert applies the !r / !s conversion before any format spec.
func convert(v any, conv string) (string, error) {
	switch conv {
	case "":
		return render(v), nil
	case "s":
		return render(v), nil
	case "r":
		if v == nil {
			return "null", nil
		}
		if s, ok := v.(string); ok {
			return strconv.Quote(s), nil
		}
		return fmt.Sprintf("%#v", v), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrBadConversion, conv)
	}
}

// render is the default value rendering. Nil renders as the JSON literal.
func render(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprint(v)
}

// finish scrubs and then middle-truncates a formatted argument value.
// Scrubbing strictly precedes truncation.
func (r *renderer) finish(field, text string) string {
	if r.opts.Scrubber != nil {
		text = r.opts.Scrubber.Scrub(scrub.Context{Category: "message", FieldName: field}, text)
	}
	return TruncateMiddle(text, r.opts.maxArgLength())
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

// splitField separates a placeholder body into field name, conversion, and
// format spec. The spec starts at the first top-level ':'; the conversion is
// a '!' suffix of the field name.
func splitField(body string) (field, conv, spec string) {
	depth := 0
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '{':
			depth++
		case '}':
			depth--
		case ':':
			if depth == 0 {
				field, spec = body[:i], body[i+1:]
				goto haveField
			}
		}
	}
	field = body

haveField:
	if i := strings.LastIndex(field, "!"); i >= 0 && i == len(field)-2 {
		conv = field[i+1:]
		field = field[:i]
	}
	return field, conv, spec
}
