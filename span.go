package lantern

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lanternhq/lantern/encode"
	"github.com/lanternhq/lantern/export"
)

// Span is an open operation. End must be called exactly once; a Span from a
// suppressed context is a no-op and End on it is safe.
type Span struct {
	client *Client
	span   trace.Span

	mu    sync.Mutex
	raw   map[string]any
	ended bool
}

// Span opens an operation as two spans: a zero-duration start marker named
// by the rendered template, then the real span named by name, nested under
// the marker. The marker records the previously-active span id in
// lantern.start_parent_id so the backend can reparent the pair.
//
// Template grammar violations degrade to the raw template with a diagnostic
// warning; span creation itself never fails.
func (c *Client) Span(ctx context.Context, name, template string, attrs ...Attr) (context.Context, *Span) {
	return c.startSpan(ctx, name, template, attrs, 3)
}

func (c *Client) startSpan(ctx context.Context, name, template string, attrs []Attr, skip int) (context.Context, *Span) {
	if export.IsSuppressed(ctx) || c.shutdown.Load() {
		return ctx, &Span{}
	}

	set := c.buildAttrs(attrs)
	msg, err := c.render(template, set.raw)
	if err != nil {
		c.diag.Warn("span template did not render", "template", template, "error", err)
		msg = template
	}

	common := make([]attribute.KeyValue, 0, len(set.kvs)+8)
	common = append(common, set.kvs...)
	common = append(common, attribute.String(attrMsgTemplate, template))
	if tags := c.consumeTags(); len(tags) > 0 {
		common = append(common, attribute.StringSlice(attrTags, tags))
	}
	common = append(common, callerAttrs(skip)...)

	markerKvs := append([]attribute.KeyValue{}, common...)
	markerKvs = append(markerKvs, attribute.String(attrSpanType, "start_span"))
	if sc := trace.SpanContextFromContext(ctx); sc.SpanID().IsValid() {
		markerKvs = append(markerKvs,
			attribute.String(attrStartParentID, sc.SpanID().String()))
	}

	now := time.Now()
	mctx, marker := c.tracer.Start(ctx, msg,
		trace.WithTimestamp(now),
		trace.WithAttributes(markerKvs...),
	)
	marker.End(trace.WithTimestamp(now))

	realKvs := append(common,
		attribute.String(attrSpanType, "span"),
		attribute.String(attrMsg, msg),
	)
	rctx, real := c.tracer.Start(mctx, name,
		trace.WithTimestamp(now),
		trace.WithAttributes(realKvs...),
	)

	return rctx, &Span{client: c, span: real, raw: set.raw}
}

// SetAttr merges one attribute into the open span. The value participates in
// the schema written at End.
func (s *Span) SetAttr(key string, value any) {
	if s.span == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.raw[key] = value
	if encode.IsScalar(value) {
		s.span.SetAttributes(s.client.scalarAttr(key, value))
		return
	}
	js, err := encode.ToJSON(value)
	if err != nil {
		s.client.diag.Warn("attribute not serializable", "key", key, "error", err)
		return
	}
	s.span.SetAttributes(attribute.String(key+jsonSuffix, js))
}

// End closes the span, recording any non-nil errors and writing the final
// attribute schema. Extra calls are no-ops.
func (s *Span) End(errs ...error) {
	if s.span == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.ended = true

	if sa, ok := schemaAttr(s.raw); ok {
		s.span.SetAttributes(sa)
	}
	for _, err := range errs {
		if err == nil {
			continue
		}
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	}
	s.span.End()
}

// InstrumentOptions tunes Instrument.
type InstrumentOptions struct {
	// SpanName overrides the span name; default is the template text.
	SpanName string

	// ArgExtractor produces call-time attributes from the context. A panic
	// inside the extractor is recovered and logged; it never breaks the
	// instrumented call.
	ArgExtractor func(ctx context.Context) []Attr
}

// Instrument wraps a function in a Span. The returned decorator opens the
// span, runs fn with the span context, and ends with fn's error.
func (c *Client) Instrument(template string, opts InstrumentOptions) func(context.Context, func(context.Context) error) error {
	name := opts.SpanName
	if name == "" {
		name = template
	}
	return func(ctx context.Context, fn func(context.Context) error) error {
		var attrs []Attr
		if opts.ArgExtractor != nil {
			attrs = c.extractArgs(ctx, opts.ArgExtractor)
		}
		// Attribute the wrapper's caller, not this closure.
		sctx, sp := c.startSpan(ctx, name, template, attrs, 3)
		err := fn(sctx)
		sp.End(err)
		return err
	}
}

func (c *Client) extractArgs(ctx context.Context, extract func(ctx context.Context) []Attr) (attrs []Attr) {
	defer func() {
		if r := recover(); r != nil {
			c.diag.Warn("argument extractor panicked", "panic", r)
			attrs = nil
		}
	}()
	return extract(ctx)
}
