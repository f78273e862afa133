package testsupport

import (
	"path/filepath"
	"testing"

	"lectern/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test
// and intervals short enough for scheduler tests to finish quickly.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Queue.PollIntervalSeconds = 1
	cfg.Queue.IdlePollIntervalSeconds = 1
	cfg.Queue.WorkerPoolSize = 2
	cfg.LLM.APIKey = "test"

	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithMaxRetries overrides the queue retry cap on the test config.
func WithMaxRetries(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Queue.MaxRetries = n
	}
}

// WithContentTypes overrides the supported content types on the test config.
func WithContentTypes(types ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Content.Types = types
	}
}
