package domain

import "time"

// Defaults for engine tuning. The remote imposes the batch ceiling; the
// retry bound follows the transport's usual budget for flaky calls.
const (
	DefaultBatchSize  = 100
	DefaultMaxRetries = 3
	DefaultRetryDelay = time.Second
)

// SyncConfig tunes one reconciliation pass. The zero value is not usable;
// construct with DefaultSyncConfig and override as needed.
type SyncConfig struct {
	// BatchSize is the maximum number of records per group submitted to
	// the remote in one call.
	BatchSize int

	// MaxRetries bounds automatic retries of a transient failure for a
	// single unit of work (one page, one group).
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff between
	// retries.
	RetryDelay time.Duration

	// Limits are the per-field truncation limits applied before pushing.
	Limits FieldLimits
}

// DefaultSyncConfig returns the engine defaults.
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		BatchSize:  DefaultBatchSize,
		MaxRetries: DefaultMaxRetries,
		RetryDelay: DefaultRetryDelay,
		Limits:     DefaultFieldLimits(),
	}
}

// Defaults for the background poller.
const (
	DefaultPollInterval  = 5 * time.Minute
	DefaultBackoffFactor = 2.0
	DefaultMaxInterval   = time.Hour
)

// PollerConfig tunes the background poller.
type PollerConfig struct {
	// Interval is the baseline delay between passes.
	Interval time.Duration

	// BackoffFactor multiplies the delay after a failed pass. The delay
	// resets to Interval after the next success.
	BackoffFactor float64

	// MaxInterval caps the backed-off delay.
	MaxInterval time.Duration

	// MaxConsecutiveFailures stops the poller after this many failed
	// passes in a row. Zero means never stop on failures.
	MaxConsecutiveFailures int
}

// DefaultPollerConfig returns the poller defaults.
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		Interval:      DefaultPollInterval,
		BackoffFactor: DefaultBackoffFactor,
		MaxInterval:   DefaultMaxInterval,
	}
}
