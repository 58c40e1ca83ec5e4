package fanin

import (
	"github.com/sirupsen/logrus"
	"github.com/ygrebnov/errorc"

	"github.com/ygrebnov/fanin/metrics"
)

// config holds Engine configuration.
type config struct {
	// BatchSize is the number of items a worker buffers locally before publishing them.
	// Default: 10000.
	BatchSize uint

	// PoolSize is the maximum number of concurrently draining workers.
	// The effective pool is never larger than the number of producers.
	// Default: 10.
	PoolSize uint

	// Logger receives engine lifecycle events. Default: logrus.StandardLogger().
	Logger logrus.FieldLogger

	// Metrics records engine instruments. Default: metrics.NoopProvider.
	Metrics metrics.Provider
}

// Option configures an Engine. Invalid input is reported by New.
type Option func(*config) error

// WithBatchSize sets the number of items buffered by a worker before publication (must be > 0).
func WithBatchSize(n uint) Option {
	return func(cfg *config) error {
		if n == 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithBatchSize requires n > 0"))
		}
		cfg.BatchSize = n
		return nil
	}
}

// WithPoolSize sets the maximum number of parallel workers (must be > 0).
func WithPoolSize(n uint) Option {
	return func(cfg *config) error {
		if n == 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithPoolSize requires n > 0"))
		}
		cfg.PoolSize = n
		return nil
	}
}

// WithLogger sets the logger used for engine events.
func WithLogger(l logrus.FieldLogger) Option {
	return func(cfg *config) error {
		if l == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithLogger requires a non-nil logger"))
		}
		cfg.Logger = l
		return nil
	}
}

// WithMetrics sets the metrics provider.
func WithMetrics(p metrics.Provider) Option {
	return func(cfg *config) error {
		if p == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithMetrics requires a non-nil provider"))
		}
		cfg.Metrics = p
		return nil
	}
}
