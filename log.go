package lantern

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lanternhq/lantern/export"
	"github.com/lanternhq/lantern/format"
)

// Log emits one zero-duration span representing a log record. template is
// rendered against the attribute values; the only errors returned are
// template grammar violations — export problems never surface here.
func (c *Client) Log(ctx context.Context, level Level, template string, attrs ...Attr) error {
	return c.emitLog(ctx, level, template, attrs, 3)
}

// Trace logs at LevelTrace.
func (c *Client) Trace(ctx context.Context, template string, attrs ...Attr) error {
	return c.emitLog(ctx, LevelTrace, template, attrs, 3)
}

// Debug logs at LevelDebug.
func (c *Client) Debug(ctx context.Context, template string, attrs ...Attr) error {
	return c.emitLog(ctx, LevelDebug, template, attrs, 3)
}

// Info logs at LevelInfo.
func (c *Client) Info(ctx context.Context, template string, attrs ...Attr) error {
	return c.emitLog(ctx, LevelInfo, template, attrs, 3)
}

// Notice logs at LevelNotice.
func (c *Client) Notice(ctx context.Context, template string, attrs ...Attr) error {
	return c.emitLog(ctx, LevelNotice, template, attrs, 3)
}

// Warn logs at LevelWarn.
func (c *Client) Warn(ctx context.Context, template string, attrs ...Attr) error {
	return c.emitLog(ctx, LevelWarn, template, attrs, 3)
}

// Error logs at LevelError. The span status is set to error.
func (c *Client) Error(ctx context.Context, template string, attrs ...Attr) error {
	return c.emitLog(ctx, LevelError, template, attrs, 3)
}

// Fatal logs at LevelFatal. It does not exit the process.
func (c *Client) Fatal(ctx context.Context, template string, attrs ...Attr) error {
	return c.emitLog(ctx, LevelFatal, template, attrs, 3)
}

func (c *Client) emitLog(ctx context.Context, level Level, template string, attrs []Attr, skip int) error {
	if export.IsSuppressed(ctx) || c.shutdown.Load() {
		return nil
	}

	set := c.buildAttrs(attrs)
	msg, err := c.render(template, set.raw)
	if err != nil {
		return err
	}

	kvs := set.kvs
	kvs = append(kvs,
		attribute.String(attrSpanType, "log"),
		attribute.String(attrMsgTemplate, template),
		attribute.String(attrMsg, msg),
		attribute.Int(attrLevelNum, int(level)),
	)
	if tags := c.consumeTags(); len(tags) > 0 {
		kvs = append(kvs, attribute.StringSlice(attrTags, tags))
	}
	if sa, ok := schemaAttr(set.raw); ok {
		kvs = append(kvs, sa)
	}
	kvs = append(kvs, callerAttrs(skip)...)

	// A log is a span whose start and end coincide.
	now := time.Now()
	_, sp := c.tracer.Start(ctx, msg,
		trace.WithTimestamp(now),
		trace.WithAttributes(kvs...),
	)
	if level >= LevelError {
		sp.SetStatus(codes.Error, msg)
	}
	sp.End(trace.WithTimestamp(now))
	return nil
}

func (c *Client) render(template string, kwargs map[string]any) (string, error) {
	return format.Message(template, kwargs, format.Options{
		Scrubber: c.scrubber,
		OnWarn:   func(msg string) { c.diag.Warn(msg) },
	})
}
