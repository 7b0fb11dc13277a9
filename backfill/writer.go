package backfill

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// StartSpan opens a span in the backfill stream. ParentSpanID is nil for
// root spans and serializes as JSON null.
type StartSpan struct {
	SpanName       string         `json:"spanName"`
	SpanID         uint64         `json:"spanId"`
	TraceID        uint64         `json:"traceId"`
	ParentSpanID   *uint64        `json:"parentSpanId"`
	StartTimestamp time.Time      `json:"startTimestamp"`
	Attributes     map[string]any `json:"attributes,omitempty"`
}

// EndSpan closes a previously-opened span.
type EndSpan struct {
	SpanID       uint64    `json:"spanId"`
	EndTimestamp time.Time `json:"endTimestamp"`
}

// Log records a standalone log entry, optionally attached to an open span.
type Log struct {
	Message      string         `json:"message"`
	Level        int            `json:"level"`
	SpanID       uint64         `json:"spanId"`
	TraceID      uint64         `json:"traceId"`
	ParentSpanID *uint64        `json:"parentSpanId"`
	Timestamp    time.Time      `json:"timestamp"`
	Attributes   map[string]any `json:"attributes,omitempty"`
}

type startSpanRecord struct {
	Type string `json:"type"`
	StartSpan
}

type endSpanRecord struct {
	Type string `json:"type"`
	EndSpan
}

type logRecord struct {
	Type string `json:"type"`
	Log
}

// Writer emits newline-delimited JSON telemetry records. It tracks the set
// of open span ids; ending a span that is not open is a programming error
// and panics. Writer is not safe for concurrent use.
type Writer struct {
	w    *bufio.Writer
	c    io.Closer
	enc  *json.Encoder
	open map[uint64]struct{}
}

// NewWriter wraps an arbitrary destination. If w also implements io.Closer,
// Close closes it after flushing.
func NewWriter(w io.Writer) *Writer {
	bw := bufio.NewWriter(w)
	out := &Writer{
		w:    bw,
		enc:  json.NewEncoder(bw),
		open: make(map[uint64]struct{}),
	}
	if c, ok := w.(io.Closer); ok {
		out.c = c
	}
	return out
}

// PrepareBackfill creates (or truncates) the file at path and returns a
// Writer over it.
func PrepareBackfill(path string) (*Writer, error) {
	f, err := os.Create(path) // #nosec G304 -- caller-chosen output path
	if err != nil {
		return nil, fmt.Errorf("backfill: create %s: %w", path, err)
	}
	return NewWriter(f), nil
}

// WriteStartSpan records the opening of a span and marks its id open.
// Reusing an id that is still open is allowed; the open set is idempotent
// on starts.
func (w *Writer) WriteStartSpan(s StartSpan) error {
	if err := w.enc.Encode(startSpanRecord{Type: "start_span", StartSpan: s}); err != nil {
		return fmt.Errorf("backfill: write start_span: %w", err)
	}
	w.open[s.SpanID] = struct{}{}
	return nil
}

// WriteEndSpan records the close of an open span. Ending a span that was
// never started, or was already ended, panics.
func (w *Writer) WriteEndSpan(e EndSpan) error {
	if _, ok := w.open[e.SpanID]; !ok {
		panic(fmt.Sprintf("backfill: span %d not found in open spans", e.SpanID))
	}
	if err := w.enc.Encode(endSpanRecord{Type: "end_span", EndSpan: e}); err != nil {
		return fmt.Errorf("backfill: write end_span: %w", err)
	}
	delete(w.open, e.SpanID)
	return nil
}

// WriteLog records a log entry.
func (w *Writer) WriteLog(l Log) error {
	if err := w.enc.Encode(logRecord{Type: "log", Log: l}); err != nil {
		return fmt.Errorf("backfill: write log: %w", err)
	}
	return nil
}

// Open reports how many spans are currently open.
func (w *Writer) Open() int {
	return len(w.open)
}

// Close flushes buffered records and closes the destination when it is
// closable.
func (w *Writer) Close() error {
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("backfill: flush: %w", err)
	}
	if w.c != nil {
		if err := w.c.Close(); err != nil {
			return fmt.Errorf("backfill: close: %w", err)
		}
	}
	return nil
}
