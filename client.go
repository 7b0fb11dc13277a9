package lantern

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/lmittmann/tint"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/lanternhq/lantern/auth"
	"github.com/lanternhq/lantern/export"
	"github.com/lanternhq/lantern/scrub"
)

// tracerName is the instrumentation scope for all spans the SDK emits.
const tracerName = "lantern"

// Client is the emission facade. All methods are safe for concurrent use.
// WithTags returns lightweight handles sharing the same pipeline.
type Client struct {
	tracer   trace.Tracer
	scrubber scrub.Scrubber
	diag     *slog.Logger

	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider

	// pending holds tags for the next emission; consumed by swap-to-nil.
	pending *atomic.Pointer[[]string]

	// shutdown is shared by every WithTags handle.
	shutdown *atomic.Bool
}

// New validates cfg and builds a Client with its tracer and meter pipelines.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	diag := newDiagLogger(cfg.Console)

	if cfg.Token != "" {
		warnExpiredToken(diag, cfg.Token)
	}

	scrubber := cfg.Scrubber
	if scrubber == nil {
		scrubber = scrub.MustMatcher(scrub.Options{})
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.Version),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("lantern: create resource: %w", err)
	}

	reader, err := export.NewMetricsReader(ctx, cfg.Metrics.Exporter)
	if err != nil {
		return nil, fmt.Errorf("lantern: setup metrics: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)

	selfMetrics, err := export.NewSelfMetrics(mp.Meter(tracerName))
	if err != nil {
		return nil, fmt.Errorf("lantern: setup self metrics: %w", err)
	}

	exporter, err := export.NewSpanExporter(ctx, cfg.Export.Exporter, export.Options{
		Endpoint:    cfg.Export.Endpoint,
		Headers:     authHeaders(cfg.Token),
		Compression: cfg.Export.Compression,
		HexIDs:      cfg.Export.HexIDs,
		MaxBodySize: cfg.Export.MaxBodySize,
		Logger:      diag,
		Metrics:     selfMetrics,
	})
	if err != nil {
		return nil, fmt.Errorf("lantern: setup exporter: %w", err)
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SamplePct)),
	}
	for _, sp := range cfg.SpanProcessors {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(sp))
	}
	tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter))
	tp := sdktrace.NewTracerProvider(tpOpts...)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	return &Client{
		tracer:         tp.Tracer(tracerName),
		scrubber:       scrubber,
		diag:           diag,
		tracerProvider: tp,
		meterProvider:  mp,
		pending:        &atomic.Pointer[[]string]{},
		shutdown:       &atomic.Bool{},
	}, nil
}

// Shutdown flushes and stops both providers concurrently. Idempotent; a
// second call is a no-op.
func (c *Client) Shutdown(ctx context.Context) error {
	if !c.shutdown.CompareAndSwap(false, true) {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	if c.tracerProvider != nil {
		g.Go(func() error {
			if err := c.tracerProvider.Shutdown(ctx); err != nil {
				return fmt.Errorf("tracer shutdown: %w", err)
			}
			return nil
		})
	}
	if c.meterProvider != nil {
		g.Go(func() error {
			if err := c.meterProvider.Shutdown(ctx); err != nil {
				return fmt.Errorf("meter shutdown: %w", err)
			}
			return nil
		})
	}
	return g.Wait()
}

// ForceFlush drains buffered spans without stopping the pipelines.
func (c *Client) ForceFlush(ctx context.Context) error {
	if c.tracerProvider == nil {
		return nil
	}
	return c.tracerProvider.ForceFlush(ctx)
}

// WithTags returns a handle whose next emission carries tags in the
// lantern.tags attribute. Tags are one-shot: the emission after the next
// one sees none.
func (c *Client) WithTags(tags ...string) *Client {
	h := *c
	p := &atomic.Pointer[[]string]{}
	p.Store(&tags)
	h.pending = p
	return &h
}

func (c *Client) consumeTags() []string {
	if c.pending == nil {
		return nil
	}
	if p := c.pending.Swap(nil); p != nil {
		return *p
	}
	return nil
}

func sampler(pct float64) sdktrace.Sampler {
	switch {
	case pct >= 1.0:
		return sdktrace.AlwaysSample()
	case pct <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(pct)
	}
}

func newDiagLogger(cfg ConsoleConfig) *slog.Logger {
	if !cfg.Enabled {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	level := slog.LevelWarn
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level}))
}

func authHeaders(token string) map[string]string {
	if token == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

func warnExpiredToken(diag *slog.Logger, token string) {
	info, err := auth.InspectToken(token)
	if err != nil {
		// Opaque tokens carry no claims worth warning about.
		return
	}
	now := time.Now()
	switch {
	case info.Expired(now):
		diag.Warn("write token is expired", "expires_at", info.ExpiresAt)
	case info.ExpiresWithin(now, 24*time.Hour):
		diag.Warn("write token expires soon", "expires_at", info.ExpiresAt)
	}
}
