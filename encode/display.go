package encode

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Display reconstructs a literal-like display string from an encoded value
// tree. It accepts both the direct output of Encode and the generic form
// produced by unmarshaling the wire JSON. indent 0 renders compactly on one
// line; a positive indent renders one entry per line.
func Display(v any, indent int) string {
	p := printer{indent: indent}
	return p.value(v, 0)
}

type printer struct {
	indent int
}

func (p printer) value(v any, level int) string {
	if env, ok := AsEnvelope(v); ok {
		return p.envelope(env, level)
	}

	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return quote(x)
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case []any:
		return p.seq("[", "]", x, level)
	case map[string]any:
		return p.mapping(x, level)
	}
	return fmt.Sprint(v)
}

func (p printer) envelope(env Value, level int) string {
	cls := func(fallback string) string {
		if env.Class != "" {
			return env.Class
		}
		return fallback
	}

	switch env.Datatype {
	case TagDatetime:
		return "datetime(" + p.value(env.Data, level) + ")"
	case TagTimedelta:
		return "timedelta(" + p.value(env.Data, level) + ")"
	case TagUUID:
		return "UUID(" + p.value(env.Data, level) + ")"
	case TagRegexp:
		return "Regexp(" + p.value(env.Data, level) + ")"
	case TagURL:
		return "URL(" + p.value(env.Data, level) + ")"
	case TagIPAddress:
		return "IPAddress(" + p.value(env.Data, level) + ")"
	case TagIPNetwork:
		return "IPNetwork(" + p.value(env.Data, level) + ")"
	case TagDecimal:
		return "Decimal(" + p.value(env.Data, level) + ")"
	case TagBytes:
		return cls("bytes") + "(" + p.value(env.Data, level) + ")"
	case TagException:
		return cls("Exception") + "(" + p.value(env.Data, level) + ")"
	case TagEnum:
		return cls("Enum") + "(" + p.value(env.Data, level) + ")"
	case TagMapping:
		body := p.value(env.Data, level)
		if env.Class == "" {
			return body
		}
		return env.Class + "(" + body + ")"
	case TagStruct:
		return p.structLike(cls("struct"), env.Data, level)
	case TagTuple:
		return p.tuple(env.Data, level)
	case TagDataFrame:
		return p.structLike(cls("Table"), env.Data, level)
	case TagNDArray:
		return cls("ndarray") + "(" + p.value(env.Data, level) + ")"
	case TagUnknown:
		if s, ok := env.Data.(string); ok {
			return s
		}
		return p.value(env.Data, level)
	default:
		return p.value(env.Data, level)
	}
}

// structLike renders Cls(field=value, ...) with fields in sorted order.
func (p printer) structLike(cls string, data any, level int) string {
	fields, ok := asStringMap(data)
	if !ok {
		return cls + "(" + p.value(data, level) + ")"
	}
	keys := sortedKeys(fields)
	items := make([]string, len(keys))
	for i, k := range keys {
		items[i] = k + "=" + p.value(fields[k], level+1)
	}
	return p.join(cls+"(", ")", items, level)
}

func (p printer) mapping(m map[string]any, level int) string {
	keys := sortedKeys(m)
	items := make([]string, len(keys))
	for i, k := range keys {
		items[i] = quote(k) + ": " + p.value(m[k], level+1)
	}
	return p.join("{", "}", items, level)
}

func (p printer) seq(open, close string, xs []any, level int) string {
	items := make([]string, len(xs))
	for i, x := range xs {
		items[i] = p.value(x, level+1)
	}
	return p.join(open, close, items, level)
}

func (p printer) tuple(data any, level int) string {
	xs, ok := data.([]any)
	if !ok {
		return "(" + p.value(data, level) + ")"
	}
	if len(xs) == 1 {
		return "(" + p.value(xs[0], level+1) + ",)"
	}
	return p.seq("(", ")", xs, level)
}

func (p printer) join(open, close string, items []string, level int) string {
	if len(items) == 0 {
		return open + close
	}
	if p.indent <= 0 {
		return open + strings.Join(items, ", ") + close
	}
	pad := strings.Repeat(" ", p.indent*(level+1))
	closePad := strings.Repeat(" ", p.indent*level)
	return open + "\n" + pad + strings.Join(items, ",\n"+pad) + "\n" + closePad + close
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", `\'`)
	return "'" + s + "'"
}

func asStringMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
