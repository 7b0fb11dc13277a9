package lantern

import (
	"context"

	"github.com/lanternhq/lantern/export"
)

// SuppressInstrumentation marks ctx so span and log emission under it
// becomes a no-op. The exporter uses this around its own HTTP work to keep
// instrumented transports from recursing.
func SuppressInstrumentation(ctx context.Context) context.Context {
	return export.Suppress(ctx)
}

// InstrumentationSuppressed reports whether emission is suppressed in ctx.
func InstrumentationSuppressed(ctx context.Context) bool {
	return export.IsSuppressed(ctx)
}
