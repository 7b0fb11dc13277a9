package lantern

import "errors"

var (
	// ErrMissingServiceName is returned by Config.Validate when ServiceName
	// is empty.
	ErrMissingServiceName = errors.New("lantern: service name is required")

	// ErrBadSamplePct is returned for a sample percentage outside [0, 1].
	ErrBadSamplePct = errors.New("lantern: sample percentage must be between 0.0 and 1.0")

	// ErrUnknownExporter is returned for an unrecognized exporter name.
	ErrUnknownExporter = errors.New("lantern: unknown exporter")
)
