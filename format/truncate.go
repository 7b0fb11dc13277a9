package format

// ellipsis marks the elided middle of a truncated value.
const ellipsis = "[...]"

// TruncateMiddle caps s at max runes, replacing the middle with an ellipsis
// marker so both head and tail context survive. Values at or under the cap
// pass through unchanged.
func TruncateMiddle(s string, max int) string {
	if max <= 0 {
		return s
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= len(ellipsis) {
		return string(rs[:max])
	}
	keep := max - len(ellipsis)
	head := (keep + 1) / 2
	tail := keep - head
	return string(rs[:head]) + ellipsis + string(rs[len(rs)-tail:])
}
