// Package backfill writes externally-generated telemetry as newline-
// delimited JSON records for later ingestion, and generates sortable
// time-ordered identifiers for those records. The writer enforces the
// open-set invariant: every end_span record must close a span that a
// start_span record opened and that is still open.
package backfill
