package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/klauspost/compress/gzip"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/lanternhq/lantern/format"
)

// DefaultMaxBodySize caps serialized request bodies at 5 MiB.
const DefaultMaxBodySize = 5 << 20

// DefaultTimeout is the per-attempt HTTP timeout.
const DefaultTimeout = 10 * time.Second

// Options configures a JSONExporter.
type Options struct {
	// Endpoint is the collector URL, e.g. "https://collector/v1/traces".
	Endpoint string

	// Headers are added to every request (authorization and friends).
	Headers map[string]string

	// Compression is "gzip" or "none"/"". Gzip applies before the size cap
	// is checked: the cap governs wire bytes.
	Compression string

	// HexIDs rewrites traceId/spanId/parentSpanId from protojson's base64
	// byte encoding to the hex encoding the protocol specifies.
	HexIDs bool

	// MaxBodySize overrides DefaultMaxBodySize when positive.
	MaxBodySize int

	// Timeout overrides DefaultTimeout when positive. It applies per HTTP
	// attempt, not to the whole retry loop.
	Timeout time.Duration

	// Retry governs transient-failure backoff.
	Retry RetryConfig

	// HTTPClient overrides the default client.
	HTTPClient *http.Client

	// Logger receives diagnostics. Nil uses slog.Default.
	Logger *slog.Logger

	// Metrics optionally records exporter self-metrics.
	Metrics *SelfMetrics
}

// JSONExporter ships span batches as OTLP JSON over HTTP.
//
// Contract:
// - Concurrency: safe for concurrent use; batches are independent.
// - Context: honors cancellation between retries and per attempt.
// - Errors: export failures are returned, never panicked; a failure must
//   never propagate into the instrumented application's control flow.
type JSONExporter struct {
	endpoint    string
	headers     map[string]string
	gzipBody    bool
	hexIDs      bool
	maxBodySize int
	retry       RetryConfig
	client      *http.Client
	log         *slog.Logger
	metrics     *SelfMetrics
	stopped     atomic.Bool
}

// NewJSONExporter validates opts and builds the exporter.
func NewJSONExporter(opts Options) (*JSONExporter, error) {
	if opts.Endpoint == "" {
		return nil, ErrMissingEndpoint
	}
	gzipBody := false
	switch opts.Compression {
	case "gzip":
		gzipBody = true
	case "", "none":
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidCompression, opts.Compression)
	}

	maxBody := opts.MaxBodySize
	if maxBody <= 0 {
		maxBody = DefaultMaxBodySize
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &JSONExporter{
		endpoint:    opts.Endpoint,
		headers:     opts.Headers,
		gzipBody:    gzipBody,
		hexIDs:      opts.HexIDs,
		maxBodySize: maxBody,
		retry:       opts.Retry.withDefaults(),
		client:      client,
		log:         logger,
		metrics:     opts.Metrics,
	}, nil
}

// ExportSpans delivers one batch, splitting recursively when the serialized
// body exceeds the size cap. Both halves of a split must succeed for the
// batch to succeed; a half that succeeded is not resent when its sibling
// fails.
func (e *JSONExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	if e.stopped.Load() || len(spans) == 0 {
		return nil
	}
	ctx = Suppress(ctx)

	start := time.Now()
	err := e.export(ctx, spans)
	e.metrics.record(ctx, len(spans), time.Since(start), err)
	return err
}

// Shutdown makes further exports no-ops.
func (e *JSONExporter) Shutdown(ctx context.Context) error {
	e.stopped.Store(true)
	return ctx.Err()
}

func (e *JSONExporter) export(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	body, err := e.encodeBody(spans)
	if err != nil {
		return err
	}

	if len(body) > e.maxBodySize {
		oversize := &OversizeError{Size: len(body), Limit: e.maxBodySize}
		if len(spans) == 1 {
			e.logOversizedSpan(spans[0], oversize)
			return oversize
		}
		mid := len(spans) / 2
		return errors.Join(
			e.export(ctx, spans[:mid]),
			e.export(ctx, spans[mid:]),
		)
	}

	return e.send(ctx, body)
}

func (e *JSONExporter) encodeBody(spans []sdktrace.ReadOnlySpan) ([]byte, error) {
	raw, err := protojson.Marshal(Transform(spans))
	if err != nil {
		return nil, fmt.Errorf("export: marshal batch: %w", err)
	}
	if e.hexIDs {
		raw, err = rewriteHexIDs(raw)
		if err != nil {
			return nil, err
		}
	}
	if !e.gzipBody {
		return raw, nil
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("export: compress batch: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("export: compress batch: %w", err)
	}
	return buf.Bytes(), nil
}

// send posts one body with bounded exponential backoff on retryable
// failures. Exhausting the backoff budget abandons the batch.
func (e *JSONExporter) send(ctx context.Context, body []byte) error {
	for attempt := 1; ; attempt++ {
		err := e.post(ctx, body)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var se *StatusError
		if errors.As(err, &se) && !se.Retryable() {
			return err
		}

		delay, ok := e.retry.delay(attempt)
		if !ok {
			return fmt.Errorf("%w after %d attempts: %w", ErrRetryBudgetExhausted, attempt, err)
		}
		e.metrics.retried(ctx)
		e.log.Debug("export attempt failed, backing off",
			"attempt", attempt, "delay", delay, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (e *JSONExporter) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("export: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.gzipBody {
		req.Header.Set("Content-Encoding", "gzip")
	}
	for k, v := range e.headers {
		req.Header.Set(k, v)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("export: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusAccepted {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	return &StatusError{StatusCode: resp.StatusCode, Body: string(snippet)}
}

// logOversizedSpan emits the diagnostic for a span that cannot be shrunk by
// splitting, with pruned location and size metadata.
func (e *JSONExporter) logOversizedSpan(span sdktrace.ReadOnlySpan, oversize *OversizeError) {
	args := []any{
		"span_name", format.TruncateMiddle(span.Name(), 128),
		"body_size", oversize.Size,
		"max_size", oversize.Limit,
	}
	for _, kv := range span.Attributes() {
		switch string(kv.Key) {
		case "code.filepath":
			args = append(args, "code.filepath", filepath.Base(kv.Value.AsString()))
		case "code.lineno":
			args = append(args, "code.lineno", kv.Value.AsInt64())
		}
	}
	e.log.Warn("span exceeds maximum export size and was dropped", args...)
}

var _ sdktrace.SpanExporter = (*JSONExporter)(nil)
