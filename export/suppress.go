package export

import "context"

type suppressKey struct{}

// Suppress marks ctx so span creation triggered under it is dropped. The
// exporter applies it to its own HTTP work; instrumented transports would
// otherwise generate spans whose export generates more spans, without bound.
func Suppress(ctx context.Context) context.Context {
	return context.WithValue(ctx, suppressKey{}, true)
}

// IsSuppressed reports whether ctx carries the suppression flag.
func IsSuppressed(ctx context.Context) bool {
	v, _ := ctx.Value(suppressKey{}).(bool)
	return v
}
