package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate reports configuration errors that would prevent startup.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.DataDir) == "" {
		problems = append(problems, "paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		problems = append(problems, "paths.log_dir must be set")
	}
	if strings.TrimSpace(c.Paths.APIBind) == "" {
		problems = append(problems, "paths.api_bind must be set")
	}

	switch c.Logging.Format {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format: unsupported value %q", c.Logging.Format))
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level: unsupported value %q", c.Logging.Level))
	}

	if c.Queue.PollIntervalSeconds <= 0 {
		problems = append(problems, "queue.poll_interval_seconds must be positive")
	}
	if c.Queue.IdlePollIntervalSeconds < c.Queue.PollIntervalSeconds {
		problems = append(problems, "queue.idle_poll_interval_seconds must be >= queue.poll_interval_seconds")
	}
	if c.Queue.MaxRetries < 0 {
		problems = append(problems, "queue.max_retries must not be negative")
	}
	if c.Queue.WorkerPoolSize <= 0 {
		problems = append(problems, "queue.worker_pool_size must be positive")
	}
	if c.Queue.CleanupAgeHours <= 0 {
		problems = append(problems, "queue.cleanup_age_hours must be positive")
	}

	if c.Tracking.CompletedTTLMinutes <= 0 {
		problems = append(problems, "tracking.completed_ttl_minutes must be positive")
	}
	if c.Tracking.CancelGraceSeconds <= 0 {
		problems = append(problems, "tracking.cancel_grace_seconds must be positive")
	}
	if c.Tracking.RecentWindowMinutes <= 0 {
		problems = append(problems, "tracking.recent_window_minutes must be positive")
	}

	if len(c.Content.Types) == 0 {
		problems = append(problems, "content.types must list at least one content type")
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.New("invalid configuration: " + strings.Join(problems, "; "))
}
