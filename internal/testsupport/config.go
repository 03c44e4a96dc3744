package testsupport

import (
	"path/filepath"
	"testing"

	"vetter/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// Timings are shrunk so polling tests finish quickly.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Workflow.SweepIntervalMin = 1
	cfg.Workflow.SweepIntervalMax = 1
	cfg.Workflow.ErrorRetryInterval = 1
	cfg.Inspector.SettleSeconds = 0

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithInspectorCommand sets the external inspector command on the test config.
func WithInspectorCommand(command string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Inspector.Command = command
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
