package export

import (
	"math"
	"math/rand/v2"
	"time"
)

// RetryConfig governs backoff between transient-failure retries. The delay
// doubles each attempt; once the computed delay passes MaxDelay the attempt
// set is abandoned. Timeouts apply per HTTP attempt, not to the whole loop.
type RetryConfig struct {
	// InitialDelay is the delay before the first retry. Default: 1s.
	InitialDelay time.Duration

	// MaxDelay bounds the backoff; a computed delay beyond it abandons the
	// export. Default: 30s.
	MaxDelay time.Duration

	// Multiplier is the per-attempt growth factor. Default: 2.0.
	Multiplier float64

	// Jitter adds up to 25% randomness to each delay.
	Jitter bool
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.InitialDelay <= 0 {
		c.InitialDelay = time.Second
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 30 * time.Second
	}
	if c.Multiplier <= 0 {
		c.Multiplier = 2.0
	}
	return c
}

// delay returns the backoff before retry number attempt (1-based) and
// whether the retry budget still allows it.
func (c RetryConfig) delay(attempt int) (time.Duration, bool) {
	multiplier := math.Pow(c.Multiplier, float64(attempt-1))
	d := time.Duration(float64(c.InitialDelay) * multiplier)
	if d > c.MaxDelay {
		return 0, false
	}
	if c.Jitter && d >= 4 {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		d += time.Duration(rand.Int64N(int64(d / 4)))
	}
	return d, true
}
