package testsupport

import (
	"path/filepath"
	"testing"

	"warden/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config rooted in a unique temp directory per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "data", "logs")
	cfg.Metrics.Listen = "127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithMonitorInterval overrides the health scan interval on the test config.
func WithMonitorInterval(seconds int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Monitor.IntervalSeconds = seconds
	}
}

// WithMetricsEnabled switches the metrics listener on for the test config.
func WithMetricsEnabled() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Metrics.Enabled = true
	}
}
