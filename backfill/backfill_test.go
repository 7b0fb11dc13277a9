package backfill

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestWriter_StartEndRoundTrip checks the file contains exactly the records
// written, with a null parent for a root span.
func TestWriter_StartEndRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backfill.ndjson")
	w, err := PrepareBackfill(path)
	if err != nil {
		t.Fatalf("PrepareBackfill: %v", err)
	}

	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 1, 2, 0, 0, 1, 0, time.UTC)

	if err := w.WriteStartSpan(StartSpan{
		SpanName:       "session",
		SpanID:         1,
		TraceID:        2,
		StartTimestamp: start,
	}); err != nil {
		t.Fatalf("WriteStartSpan: %v", err)
	}
	if err := w.WriteEndSpan(EndSpan{SpanID: 1, EndTimestamp: end}); err != nil {
		t.Fatalf("WriteEndSpan: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var lines []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		var rec map[string]any
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("bad JSON line %q: %v", sc.Text(), err)
		}
		lines = append(lines, rec)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	first := lines[0]
	if first["type"] != "start_span" {
		t.Errorf("expected type start_span, got %v", first["type"])
	}
	if first["spanName"] != "session" {
		t.Errorf("expected spanName session, got %v", first["spanName"])
	}
	if first["spanId"] != float64(1) || first["traceId"] != float64(2) {
		t.Errorf("unexpected ids: %v / %v", first["spanId"], first["traceId"])
	}
	if v, ok := first["parentSpanId"]; !ok || v != nil {
		t.Errorf("expected parentSpanId null, got %v (present=%v)", v, ok)
	}
	if first["startTimestamp"] != start.Format(time.RFC3339) {
		t.Errorf("unexpected startTimestamp %v", first["startTimestamp"])
	}

	second := lines[1]
	if second["type"] != "end_span" {
		t.Errorf("expected type end_span, got %v", second["type"])
	}
	if second["spanId"] != float64(1) {
		t.Errorf("unexpected spanId %v", second["spanId"])
	}
	if second["endTimestamp"] != end.Format(time.RFC3339) {
		t.Errorf("unexpected endTimestamp %v", second["endTimestamp"])
	}
}

// TestWriter_EndUnopenedPanics covers both flavors of the open-set violation:
// ending a span twice, and ending one that was never started.
func TestWriter_EndUnopenedPanics(t *testing.T) {
	mustPanic := func(t *testing.T, fn func()) {
		t.Helper()
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic")
			}
		}()
		fn()
	}

	t.Run("double end", func(t *testing.T) {
		w := NewWriter(&bytes.Buffer{})
		if err := w.WriteStartSpan(StartSpan{SpanID: 1, TraceID: 2}); err != nil {
			t.Fatal(err)
		}
		if err := w.WriteEndSpan(EndSpan{SpanID: 1}); err != nil {
			t.Fatal(err)
		}
		mustPanic(t, func() { _ = w.WriteEndSpan(EndSpan{SpanID: 1}) })
	})

	t.Run("never started", func(t *testing.T) {
		w := NewWriter(&bytes.Buffer{})
		mustPanic(t, func() { _ = w.WriteEndSpan(EndSpan{SpanID: 99}) })
	})
}

// TestWriter_RepeatedStartThenEnd mirrors the documented sequence: two starts
// for the same id, one end succeeds, the second end panics.
func TestWriter_RepeatedStartThenEnd(t *testing.T) {
	w := NewWriter(&bytes.Buffer{})
	if err := w.WriteStartSpan(StartSpan{SpanID: 1}); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteStartSpan(StartSpan{SpanID: 1}); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteEndSpan(EndSpan{SpanID: 1}); err != nil {
		t.Fatalf("first end should succeed: %v", err)
	}
	if w.Open() != 0 {
		t.Fatalf("expected no open spans, got %d", w.Open())
	}
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on second end")
		}
	}()
	_ = w.WriteEndSpan(EndSpan{SpanID: 1})
}

// TestWriter_LogRecord checks log lines carry the type discriminator and
// attributes.
func TestWriter_LogRecord(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	err := w.WriteLog(Log{
		Message:    "hello",
		Level:      9,
		SpanID:     1,
		TraceID:    2,
		Timestamp:  time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC),
		Attributes: map[string]any{"user": "alice"},
	})
	if err != nil {
		t.Fatalf("WriteLog: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if rec["type"] != "log" || rec["message"] != "hello" {
		t.Errorf("unexpected record %v", rec)
	}
	attrs, _ := rec["attributes"].(map[string]any)
	if attrs["user"] != "alice" {
		t.Errorf("unexpected attributes %v", rec["attributes"])
	}
}

// TestGenerator_SameMillisecondOrdering verifies numeric ordering holds for
// ids generated inside one millisecond and across an overflow bump.
func TestGenerator_SameMillisecondOrdering(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	g := &Generator{now: func() time.Time { return fixed }}

	prev := g.Next()
	for i := 0; i < 1000; i++ {
		next := g.Next()
		if next.Compare(prev) <= 0 {
			t.Fatalf("id %d not increasing: %s <= %s", i, next, prev)
		}
		prev = next
	}
}

// TestGenerator_CounterOverflowBumpsTimestamp forces the 32-bit counter to
// wrap and checks the timestamp field advances past the clock.
func TestGenerator_CounterOverflowBumpsTimestamp(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	g := &Generator{now: func() time.Time { return fixed }}

	first := g.Next()
	g.counter = ^uint32(0) // next increment wraps
	bumped := g.Next()

	if bumped.Compare(first) <= 0 {
		t.Fatalf("overflow id must still order after earlier ids: %s <= %s", bumped, first)
	}
	millis := int64(bumped[0])<<40 | int64(bumped[1])<<32 | int64(bumped[2])<<24 |
		int64(bumped[3])<<16 | int64(bumped[4])<<8 | int64(bumped[5])
	if millis != fixed.UnixMilli()+1 {
		t.Fatalf("expected timestamp bump to %d, got %d", fixed.UnixMilli()+1, millis)
	}
}

// TestGenerator_TimestampAdvances checks a later clock resets the counter.
func TestGenerator_TimestampAdvances(t *testing.T) {
	current := time.UnixMilli(1700000000000)
	g := &Generator{now: func() time.Time { return current }}

	a := g.Next()
	current = current.Add(5 * time.Millisecond)
	b := g.Next()

	if b.Compare(a) <= 0 {
		t.Fatalf("later-clock id must order after: %s <= %s", b, a)
	}
	if got := beUint32(b[12:]); got != 0 {
		t.Fatalf("expected counter reset, got %d", got)
	}
}

func beUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// TestGenerator_NextUUID checks version and variant bits.
func TestGenerator_NextUUID(t *testing.T) {
	g := NewGenerator()
	id := g.NextUUID()
	if v := id.Version(); v != 7 {
		t.Errorf("expected version 7, got %d", v)
	}
	if vr := id.Variant(); vr != 1 { // RFC 4122
		t.Errorf("expected RFC 4122 variant, got %v", vr)
	}
}
