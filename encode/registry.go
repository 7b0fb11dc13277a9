package encode

import "sync"

// Rule is an extension entry in the encoder's dispatch table. Extensions
// contribute rules at process startup (init functions); the core walks one
// merged table regardless of which extensions loaded.
type Rule struct {
	// Name identifies the rule in diagnostics.
	Name string

	// Match reports whether this rule encodes v. Exact structural checks
	// have already run by the time extension rules are consulted.
	Match func(v any) bool

	// Encode produces the JSON-safe form of v. recurse encodes nested
	// values with cycle protection.
	Encode func(v any, recurse func(any) any) any

	// Schema optionally produces the schema fragment for v. Nil means the
	// value is schema-plain.
	Schema func(v any) map[string]any
}

var (
	extMu sync.RWMutex
	exts  []Rule
)

// Register appends an extension rule to the dispatch table. Rules are
// evaluated in registration order after the built-in rules.
func Register(r Rule) {
	if r.Match == nil || r.Encode == nil {
		panic("encode: rule needs Match and Encode")
	}
	extMu.Lock()
	defer extMu.Unlock()
	exts = append(exts, r)
}

func extensionFor(v any) (Rule, bool) {
	extMu.RLock()
	defer extMu.RUnlock()
	for _, r := range exts {
		if r.Match(v) {
			return r, true
		}
	}
	return Rule{}, false
}

// ExtensionSchema consults registered rules for a schema fragment. The
// schema package calls this so extensions describe both the value and its
// shape from one registration.
func ExtensionSchema(v any) (map[string]any, bool) {
	rule, ok := extensionFor(v)
	if !ok || rule.Schema == nil {
		return nil, false
	}
	return rule.Schema(v), true
}
