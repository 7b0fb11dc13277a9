package lantern

import (
	"fmt"
	"slices"

	"github.com/kelseyhightower/envconfig"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/lanternhq/lantern/export"
	"github.com/lanternhq/lantern/scrub"
)

// Config holds all configuration for a Client.
type Config struct {
	// ServiceName identifies the instrumented service. Required.
	ServiceName string `envconfig:"SERVICE_NAME"`

	// Version is the service version recorded on the resource.
	Version string `envconfig:"SERVICE_VERSION"`

	// Environment is the deployment environment (production, staging, ...).
	Environment string `envconfig:"ENVIRONMENT"`

	// Token is the write token sent as the Authorization header. It is
	// inspected (never verified) to warn about expired credentials.
	Token string `envconfig:"TOKEN"`

	// Console configures diagnostic logging to stderr.
	Console ConsoleConfig

	// Export configures the span pipeline.
	Export ExportConfig

	// Metrics configures the metrics pipeline.
	Metrics MetricsConfig

	// SamplePct is the head sampling ratio. 1.0 (the env default) samples
	// everything, 0 samples nothing, values between use trace-id ratio
	// sampling.
	SamplePct float64 `envconfig:"SAMPLE_PCT" default:"1.0"`

	// Scrubber redacts sensitive values before they reach span names and
	// attributes. Nil installs the default pattern Matcher.
	Scrubber scrub.Scrubber `ignored:"true"`

	// SpanProcessors are additional processors registered on the tracer
	// provider, ahead of the exporter's batcher. Used by tests and by
	// applications that tee spans elsewhere.
	SpanProcessors []sdktrace.SpanProcessor `ignored:"true"`
}

// ConsoleConfig controls the diagnostic slog output.
type ConsoleConfig struct {
	// Enabled turns stderr diagnostics on.
	Enabled bool `envconfig:"ENABLED" default:"true"`

	// Level is debug|info|warn|error. Default: warn.
	Level string `envconfig:"LEVEL" default:"warn"`
}

// ExportConfig selects and tunes the span exporter.
type ExportConfig struct {
	// Exporter is http-json|otlp|stdout|none. Default: http-json.
	Exporter string `envconfig:"EXPORTER" default:"http-json"`

	// Endpoint is the collector URL for the http-json exporter.
	Endpoint string `envconfig:"ENDPOINT"`

	// Compression is gzip|none.
	Compression string `envconfig:"COMPRESSION"`

	// HexIDs switches the wire encoding of span ids from protojson's base64
	// to lowercase hex.
	HexIDs bool `envconfig:"HEX_IDS"`

	// MaxBodySize caps the serialized request body in bytes.
	MaxBodySize int `envconfig:"MAX_BODY_SIZE"`
}

// MetricsConfig selects the metrics reader.
type MetricsConfig struct {
	// Exporter is otlp|prometheus|stdout|none. Default: none.
	Exporter string `envconfig:"EXPORTER" default:"none"`
}

// Valid console log levels.
var validConsoleLevels = []string{"debug", "info", "warn", "error", ""}

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return ErrMissingServiceName
	}
	if c.SamplePct < 0 || c.SamplePct > 1.0 {
		return fmt.Errorf("%w, got: %f", ErrBadSamplePct, c.SamplePct)
	}
	if !slices.Contains(export.ValidSpanExporters, c.Export.Exporter) {
		return fmt.Errorf("%w: %q", ErrUnknownExporter, c.Export.Exporter)
	}
	if !slices.Contains(export.ValidMetricsExporters, c.Metrics.Exporter) {
		return fmt.Errorf("%w: %q", ErrUnknownExporter, c.Metrics.Exporter)
	}
	if !slices.Contains(validConsoleLevels, c.Console.Level) {
		return fmt.Errorf("lantern: unknown console level: %q", c.Console.Level)
	}
	return nil
}

// ConfigFromEnv builds a Config from LANTERN_-prefixed environment variables,
// e.g. LANTERN_SERVICE_NAME, LANTERN_EXPORT_ENDPOINT, LANTERN_CONSOLE_LEVEL.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process("lantern", &cfg); err != nil {
		return Config{}, fmt.Errorf("lantern: read environment: %w", err)
	}
	return cfg, nil
}
