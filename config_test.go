package fanin

import (
	"context"
	"errors"
	"testing"

	"github.com/ygrebnov/fanin/metrics"
)

func TestValidateConfig_Defaults(t *testing.T) {
	cfg := defaultConfig()
	if err := validateConfig(&cfg); err != nil {
		t.Fatalf("validateConfig returned error for defaults: %v", err)
	}
}

func TestDefaultConfig_Values(t *testing.T) {
	cfg := defaultConfig()
	if cfg.BatchSize != 10000 {
		t.Fatalf("BatchSize default = %d; want 10000", cfg.BatchSize)
	}
	if cfg.PoolSize != 10 {
		t.Fatalf("PoolSize default = %d; want 10", cfg.PoolSize)
	}
	if cfg.Logger == nil {
		t.Fatalf("Logger default is nil")
	}
	if _, ok := cfg.Metrics.(metrics.NoopProvider); !ok {
		t.Fatalf("Metrics default = %T; want metrics.NoopProvider", cfg.Metrics)
	}
}

func TestValidateConfig_RejectsZeroValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config)
	}{
		{name: "batch size", mutate: func(c *config) { c.BatchSize = 0 }},
		{name: "pool size", mutate: func(c *config) { c.PoolSize = 0 }},
		{name: "logger", mutate: func(c *config) { c.Logger = nil }},
		{name: "metrics", mutate: func(c *config) { c.Metrics = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(&cfg)
			if err := validateConfig(&cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("validateConfig error = %v; want ErrInvalidConfig", err)
			}
		})
	}
}

func TestNew_ValidOptions_Succeeds(t *testing.T) {
	t.Parallel()

	e, err := New[int](
		context.Background(),
		[]Producer[int]{FromSlice([]int{1})},
		WithBatchSize(4),
		WithPoolSize(2),
		WithLogger(quietLogger()),
		WithMetrics(metrics.NewBasicProvider()),
		nil,
	)
	if err != nil {
		t.Fatalf("unexpected error from New with valid options: %v", err)
	}
	if e == nil {
		t.Fatalf("expected non-nil engine instance")
	}
	defer e.Close()

	if e.config.BatchSize != 4 || e.config.PoolSize != 2 {
		t.Fatalf("config = %+v; want BatchSize=4 PoolSize=2", *e.config)
	}
}

func TestNew_CopiesProducers(t *testing.T) {
	ps := []Producer[int]{FromSlice([]int{1}), FromSlice([]int{2})}
	e, err := New[int](context.Background(), ps, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()

	ps[0] = nil
	if e.producers[0] == nil {
		t.Fatalf("engine shares the caller's producers slice")
	}
}
