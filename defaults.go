package fanin

import (
	"github.com/sirupsen/logrus"
	"github.com/ygrebnov/errorc"

	"github.com/ygrebnov/fanin/metrics"
)

const (
	DefaultBatchSize = 10000
	DefaultPoolSize  = 10
)

// defaultConfig centralizes default values for config.
func defaultConfig() config {
	return config{
		BatchSize: DefaultBatchSize,
		PoolSize:  DefaultPoolSize,
		Logger:    logrus.StandardLogger(),
		Metrics:   metrics.NewNoopProvider(),
	}
}

// validateConfig checks invariants that options cannot enforce on their own,
// e.g. a config assembled without going through the With* helpers.
func validateConfig(cfg *config) error {
	switch {
	case cfg.BatchSize == 0:
		return errorc.With(ErrInvalidConfig, errorc.String("", "batch size must be > 0"))
	case cfg.PoolSize == 0:
		return errorc.With(ErrInvalidConfig, errorc.String("", "pool size must be > 0"))
	case cfg.Logger == nil:
		return errorc.With(ErrInvalidConfig, errorc.String("", "logger must not be nil"))
	case cfg.Metrics == nil:
		return errorc.With(ErrInvalidConfig, errorc.String("", "metrics provider must not be nil"))
	}
	return nil
}
