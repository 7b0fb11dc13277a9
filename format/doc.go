// Package format parses message templates with embedded {field} placeholders
// into ordered chunk sequences. It supports echo-equals fields ({x=}),
// conversions (!r, !s), nested format specs with a bounded recursion depth,
// and automatic or manual positional indexing. Joining the chunks in order
// reproduces the rendered message exactly.
package format
