package export

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingEndpoint indicates the exporter was built without a URL.
	ErrMissingEndpoint = errors.New("export: endpoint is required")

	// ErrInvalidCompression indicates an unknown compression name.
	ErrInvalidCompression = errors.New("export: invalid compression")

	// ErrUnknownExporter indicates an unknown exporter name was requested.
	ErrUnknownExporter = errors.New("export: unknown exporter")

	// ErrRetryBudgetExhausted indicates the backoff delay grew past the
	// maximum without a successful delivery.
	ErrRetryBudgetExhausted = errors.New("export: retry budget exhausted")
)

// OversizeError signals that a serialized request body exceeds the
// configured cap. It is raised by the transport before any bytes hit the
// network and consumed exclusively by the batch-splitting logic.
type OversizeError struct {
	Size  int
	Limit int
}

func (e *OversizeError) Error() string {
	return fmt.Sprintf("export: request body of %d bytes exceeds limit of %d", e.Size, e.Limit)
}

// StatusError is a non-2xx collector response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("export: collector returned status %d", e.StatusCode)
}

// Retryable reports whether the status is worth backing off and retrying.
func (e *StatusError) Retryable() bool {
	switch e.StatusCode {
	case 408, 429, 500, 502, 503, 504:
		return true
	}
	return false
}
