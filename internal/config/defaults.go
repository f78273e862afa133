package config

const (
	defaultDataDir             = "~/.local/share/lectern"
	defaultLogDir              = "~/.local/share/lectern/logs"
	defaultAPIBind             = "127.0.0.1:7603"
	defaultLogLevel            = "info"
	defaultLogFormat           = "console"
	defaultPollInterval        = 10
	defaultIdlePollInterval    = 30
	defaultMaxRetries          = 3
	defaultCleanupAgeHours     = 24
	defaultWorkerPoolSize      = 4
	defaultCompletedTTLMinutes = 30
	defaultCancelGraceSeconds  = 5
	defaultRecentWindowMinutes = 5
	defaultLLMBaseURL          = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel            = "google/gemini-3-flash-preview"
	defaultLLMTimeoutSeconds   = 60
	defaultCaptionLanguage     = "en"
	defaultYouTubeTimeout      = 30
)

// DefaultContentTypes lists the artifact types supported out of the box.
func DefaultContentTypes() []string {
	return []string{
		"summary_text",
		"study_guide",
		"quiz",
		"titles",
		"thumbnails",
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Queue: Queue{
			PollIntervalSeconds:     defaultPollInterval,
			IdlePollIntervalSeconds: defaultIdlePollInterval,
			MaxRetries:              defaultMaxRetries,
			CleanupAgeHours:         defaultCleanupAgeHours,
			WorkerPoolSize:          defaultWorkerPoolSize,
		},
		Tracking: Tracking{
			CompletedTTLMinutes: defaultCompletedTTLMinutes,
			CancelGraceSeconds:  defaultCancelGraceSeconds,
			RecentWindowMinutes: defaultRecentWindowMinutes,
		},
		Content: Content{
			Types: DefaultContentTypes(),
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		YouTube: YouTube{
			CaptionLanguage: defaultCaptionLanguage,
			TimeoutSeconds:  defaultYouTubeTimeout,
		},
	}
}
