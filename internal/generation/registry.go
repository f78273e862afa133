package generation

import (
	"log/slog"

	"lectern/internal/config"
	"lectern/internal/services/llm"
	"lectern/internal/services/ytmeta"
	"lectern/internal/task"
)

// BuildRegistry wires the concrete executors into a task registry. The
// returned library is shared between the extractors and generators.
func BuildRegistry(cfg *config.Config, logger *slog.Logger) (*task.Registry, *Library) {
	library := NewLibrary()
	metaClient := ytmeta.NewClient(cfg.YouTube.CaptionLanguage)
	completer := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})

	registry := task.NewRegistry()
	registry.Register(task.TypeExtractMetadata, NewMetadataExecutor(metaClient, library, logger))
	registry.Register(task.TypeExtractTranscript, NewTranscriptExecutor(metaClient, library, logger))

	content := NewContentExecutor(completer, library, logger)
	registry.Register(task.TypeGenerateContent, content)
	registry.Register(task.TypeGenerateSummary, content)
	registry.Register(task.TypeGenerateTitles, content)
	registry.Register(task.TypeGenerateThumbnails, content)
	return registry, library
}
