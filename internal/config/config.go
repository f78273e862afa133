package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/sethvargo/go-envconfig"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Logging controls log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Queue contains scheduler and retry configuration for the task queue.
type Queue struct {
	PollIntervalSeconds     int `toml:"poll_interval_seconds"`
	IdlePollIntervalSeconds int `toml:"idle_poll_interval_seconds"`
	MaxRetries              int `toml:"max_retries"`
	CleanupAgeHours         int `toml:"cleanup_age_hours"`
	WorkerPoolSize          int `toml:"worker_pool_size"`
}

// Tracking contains session lifecycle windows for the status tracker.
type Tracking struct {
	CompletedTTLMinutes int `toml:"completed_ttl_minutes"`
	CancelGraceSeconds  int `toml:"cancel_grace_seconds"`
	RecentWindowMinutes int `toml:"recent_window_minutes"`
}

// Content lists the artifact types the generation pipeline can produce.
type Content struct {
	Types []string `toml:"types"`
}

// LLM contains configuration for the chat-completions generation backend.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// YouTube contains configuration for metadata and caption retrieval.
type YouTube struct {
	CaptionLanguage string `toml:"caption_language"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
}

// Config is the root configuration for the lectern daemon and CLI.
type Config struct {
	Paths    Paths    `toml:"paths"`
	Logging  Logging  `toml:"logging"`
	Queue    Queue    `toml:"queue"`
	Tracking Tracking `toml:"tracking"`
	Content  Content  `toml:"content"`
	LLM      LLM      `toml:"llm"`
	YouTube  YouTube  `toml:"youtube"`
}

// envOverrides mirrors the subset of settings that may come from the
// environment. Values here win over the config file.
type envOverrides struct {
	APIBind    string `env:"LECTERN_API_BIND"`
	APIToken   string `env:"LECTERN_API_TOKEN"`
	LogLevel   string `env:"LECTERN_LOG_LEVEL"`
	LogFormat  string `env:"LECTERN_LOG_FORMAT"`
	LLMAPIKey  string `env:"LECTERN_LLM_API_KEY"`
	LLMBaseURL string `env:"LECTERN_LLM_BASE_URL"`
	LLMModel   string `env:"LECTERN_LLM_MODEL"`
	DataDir    string `env:"LECTERN_DATA_DIR"`
	LogDir     string `env:"LECTERN_LOG_DIR"`
}

// DefaultConfigPath returns the preferred config file location.
func DefaultConfigPath() string {
	return expandPath("~/.config/lectern/config.toml")
}

// Load reads configuration from path (or the default location when empty),
// applies environment overrides, normalizes paths, and validates the result.
// The resolved path is returned alongside the config.
func Load(path string) (*Config, string, error) {
	resolved := strings.TrimSpace(path)
	if resolved == "" {
		resolved = DefaultConfigPath()
	} else {
		resolved = expandPath(resolved)
	}

	cfg := Default()
	data, err := os.ReadFile(resolved)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, resolved, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// Defaults apply when no config file exists.
	default:
		return nil, resolved, fmt.Errorf("read config %s: %w", resolved, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, resolved, err
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, resolved, err
	}
	return &cfg, resolved, nil
}

// WriteSample writes the embedded sample config to path, refusing to
// overwrite unless force is set. The resolved path is returned.
func WriteSample(path string, force bool) (string, error) {
	path = expandPath(path)
	if !force {
		if _, err := os.Stat(path); err == nil {
			return path, fmt.Errorf("config file already exists at %s", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return path, fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return path, fmt.Errorf("write sample config: %w", err)
	}
	return path, nil
}

// EnsureDirectories creates the data and log directories when missing.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func applyEnv(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process(context.Background(), &env); err != nil {
		return fmt.Errorf("read environment overrides: %w", err)
	}
	if env.APIBind != "" {
		cfg.Paths.APIBind = env.APIBind
	}
	if env.APIToken != "" {
		cfg.Paths.APIToken = env.APIToken
	}
	if env.LogLevel != "" {
		cfg.Logging.Level = env.LogLevel
	}
	if env.LogFormat != "" {
		cfg.Logging.Format = env.LogFormat
	}
	if env.LLMAPIKey != "" {
		cfg.LLM.APIKey = env.LLMAPIKey
	}
	if env.LLMBaseURL != "" {
		cfg.LLM.BaseURL = env.LLMBaseURL
	}
	if env.LLMModel != "" {
		cfg.LLM.Model = env.LLMModel
	}
	if env.DataDir != "" {
		cfg.Paths.DataDir = env.DataDir
	}
	if env.LogDir != "" {
		cfg.Paths.LogDir = env.LogDir
	}
	return nil
}

func (c *Config) normalize() {
	c.Paths.DataDir = expandPath(c.Paths.DataDir)
	c.Paths.LogDir = expandPath(c.Paths.LogDir)
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))

	types := make([]string, 0, len(c.Content.Types))
	seen := make(map[string]struct{}, len(c.Content.Types))
	for _, t := range c.Content.Types {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		types = append(types, t)
	}
	c.Content.Types = types
}

func expandPath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return path
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
