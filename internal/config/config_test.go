package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lectern/internal/config"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")
	cfg, resolved, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.Queue.MaxRetries != config.Default().Queue.MaxRetries {
		t.Fatalf("missing file did not fall back to defaults: %#v", cfg.Queue)
	}
}

func TestLoadParsesFileAndValidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"
api_bind = "127.0.0.1:9999"

[queue]
poll_interval_seconds = 2
idle_poll_interval_seconds = 4
max_retries = 5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Paths.APIBind != "127.0.0.1:9999" {
		t.Fatalf("api_bind = %q", cfg.Paths.APIBind)
	}
	if cfg.Queue.MaxRetries != 5 || cfg.Queue.PollIntervalSeconds != 2 {
		t.Fatalf("queue settings not applied: %#v", cfg.Queue)
	}
	// Sections absent from the file keep their defaults.
	if cfg.Queue.WorkerPoolSize != config.Default().Queue.WorkerPoolSize {
		t.Fatalf("worker pool size = %d", cfg.Queue.WorkerPoolSize)
	}
	if len(cfg.Content.Types) == 0 {
		t.Fatal("content types default lost")
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[queue]
poll_interval_seconds = 0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, _, err := config.Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "poll_interval_seconds") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("LECTERN_API_BIND", "127.0.0.1:7777")
	t.Setenv("LECTERN_LLM_API_KEY", "from-env")
	t.Setenv("LECTERN_LOG_LEVEL", "debug")

	cfg, _, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7777" {
		t.Fatalf("api_bind = %q, env override ignored", cfg.Paths.APIBind)
	}
	if cfg.LLM.APIKey != "from-env" {
		t.Fatalf("llm api key = %q", cfg.LLM.APIKey)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("log level = %q", cfg.Logging.Level)
	}
}

func TestValidateCatchesBadValues(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Format = "xml"
	cfg.Queue.WorkerPoolSize = 0
	cfg.Content.Types = nil

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"logging.format", "worker_pool_size", "content.types"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q missing %q", err.Error(), want)
		}
	}
}

func TestWriteSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	written, err := config.WriteSample(path, false)
	if err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if written != path {
		t.Fatalf("written path = %q", written)
	}
	if _, err := config.WriteSample(path, false); err == nil {
		t.Fatal("expected refusal to overwrite without force")
	}
	if _, err := config.WriteSample(path, true); err != nil {
		t.Fatalf("WriteSample force: %v", err)
	}

	// The sample must itself load cleanly.
	if _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
}
