// Package export ships finished spans to a collector. The primary exporter
// serializes batches to the OTLP JSON encoding and POSTs them over HTTP with
// bounded exponential retry on transient failures and adaptive batch
// bisection when a request body exceeds the configured size cap. Factory
// helpers also cover the gRPC, stdout and no-op exporters plus metric
// readers.
//
// Export work runs on the SDK's background batch drain, never on the
// caller's goroutine, and wraps itself in a suppression context so
// instrumentation on the transport cannot trigger export-of-the-export
// recursion.
package export
