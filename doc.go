// Package lantern is an observability SDK built on OpenTelemetry. It renders
// message templates into span names and attribute chunks, encodes rich values
// into tagged JSON envelopes with accompanying schemas, and ships finished
// spans through a batching OTLP/JSON exporter.
//
// The facade is the Client: build one with New, emit logs with the level
// helpers and operations with Span, and flush everything with Shutdown.
package lantern
