// Package scrub redacts sensitive substrings from formatted values before
// they are attached to telemetry. Scrubbing happens before truncation so a
// length cap can never split a secret in half and leak the remainder.
package scrub
