package format

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// specFields is the parsed form of a format spec:
// [[fill]align][sign][#][0][width][.precision][type]
type specFields struct {
	fill  rune
	align rune // '<', '>', '^', or 0
	sign  rune // '+', '-', ' ', or 0
	alt   bool
	zero  bool
	width int
	prec  int // -1 when unset
	verb  rune
}

func parseSpec(spec string) (specFields, error) {
	sf := specFields{fill: ' ', prec: -1}
	rs := []rune(spec)
	i := 0

	// [[fill]align]
	if len(rs) >= 2 && isAlign(rs[1]) {
		sf.fill, sf.align = rs[0], rs[1]
		i = 2
	} else if len(rs) >= 1 && isAlign(rs[0]) {
		sf.align = rs[0]
		i = 1
	}

	if i < len(rs) && (rs[i] == '+' || rs[i] == '-' || rs[i] == ' ') {
		sf.sign = rs[i]
		i++
	}
	if i < len(rs) && rs[i] == '#' {
		sf.alt = true
		i++
	}
	if i < len(rs) && rs[i] == '0' {
		sf.zero = true
		i++
	}

	start := i
	for i < len(rs) && rs[i] >= '0' && rs[i] <= '9' {
		i++
	}
	if i > start {
		sf.width, _ = strconv.Atoi(string(rs[start:i]))
	}

	if i < len(rs) && rs[i] == '.' {
		i++
		start = i
		for i < len(rs) && rs[i] >= '0' && rs[i] <= '9' {
			i++
		}
		if i == start {
			return sf, fmt.Errorf("%w: missing precision in %q", ErrBadSpec, spec)
		}
		sf.prec, _ = strconv.Atoi(string(rs[start:i]))
	}

	if i < len(rs) {
		sf.verb = rs[i]
		i++
	}
	if i != len(rs) {
		return sf, fmt.Errorf("%w: trailing %q in %q", ErrBadSpec, string(rs[i:]), spec)
	}
	switch sf.verb {
	case 0, 'd', 'b', 'o', 'x', 'X', 'f', 'F', 'e', 'E', 'g', 'G', 's', '%':
	default:
		return sf, fmt.Errorf("%w: unknown type %q in %q", ErrBadSpec, string(sf.verb), spec)
	}
	return sf, nil
}

func isAlign(r rune) bool {
	return r == '<' || r == '>' || r == '^'
}

// applySpec renders value under a parsed format spec. Numeric verbs format
// the original value; everything else pads/limits the converted text.
func applySpec(value any, text, spec string) (string, error) {
	if spec == "" {
		return text, nil
	}
	sf, err := parseSpec(spec)
	if err != nil {
		return "", err
	}

	switch sf.verb {
	case 'd', 'b', 'o', 'x', 'X':
		n, ok := toInt(value)
		if !ok {
			return "", fmt.Errorf("%w: %q needs an integer, got %T", ErrBadSpec, spec, value)
		}
		text = formatInt(n, sf)
	case 'f', 'F', 'e', 'E', 'g', 'G', '%':
		f, ok := toFloat(value)
		if !ok {
			return "", fmt.Errorf("%w: %q needs a number, got %T", ErrBadSpec, spec, value)
		}
		text = formatFloat(f, sf)
	default:
		if sf.prec >= 0 && utf8.RuneCountInString(text) > sf.prec {
			text = string([]rune(text)[:sf.prec])
		}
	}
	return pad(text, sf), nil
}

func formatInt(n int64, sf specFields) string {
	base := 10
	prefix := ""
	switch sf.verb {
	case 'b':
		base, prefix = 2, "0b"
	case 'o':
		base, prefix = 8, "0o"
	case 'x':
		base, prefix = 16, "0x"
	case 'X':
		base, prefix = 16, "0X"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	s := strconv.FormatInt(n, base)
	if sf.verb == 'X' {
		s = strings.ToUpper(s)
	}
	if sf.alt && prefix != "" {
		s = prefix + s
	}
	return signed(s, neg, sf)
}

func formatFloat(f float64, sf specFields) string {
	prec := sf.prec
	verb := byte('g')
	switch sf.verb {
	case 'f', 'F':
		verb = 'f'
		if prec < 0 {
			prec = 6
		}
	case 'e', 'E':
		verb = byte(sf.verb)
		if prec < 0 {
			prec = 6
		}
	case 'g', 'G':
		verb = byte(sf.verb)
	case '%':
		verb = 'f'
		if prec < 0 {
			prec = 6
		}
		f *= 100
	}
	neg := f < 0
	if neg {
		f = -f
	}
	s := strconv.FormatFloat(f, verb, prec, 64)
	if sf.verb == '%' {
		s += "%"
	}
	return signed(s, neg, sf)
}

func signed(s string, neg bool, sf specFields) string {
	switch {
	case neg:
		s = "-" + s
	case sf.sign == '+':
		s = "+" + s
	case sf.sign == ' ':
		s = " " + s
	}
	return s
}

// pad applies fill/align/width. Zero-padding implies right alignment with
// the fill inserted after any sign.
func pad(s string, sf specFields) string {
	n := utf8.RuneCountInString(s)
	if sf.width <= n {
		return s
	}
	gap := sf.width - n

	if sf.zero && sf.align == 0 {
		sign := ""
		if len(s) > 0 && (s[0] == '-' || s[0] == '+' || s[0] == ' ') {
			sign, s = s[:1], s[1:]
		}
		return sign + strings.Repeat("0", gap) + s
	}

	fill := string(sf.fill)
	switch sf.align {
	case '>':
		return strings.Repeat(fill, gap) + s
	case '^':
		left := gap / 2
		return strings.Repeat(fill, left) + s + strings.Repeat(fill, gap-left)
	default: // '<' and unset
		return s + strings.Repeat(fill, gap)
	}
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	if n, ok := toInt(v); ok {
		return float64(n), true
	}
	switch f := v.(type) {
	case float32:
		return float64(f), true
	case float64:
		return f, true
	}
	return 0, false
}
