package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"lectern/internal/services"
	"lectern/internal/services/ytmeta"
	"lectern/internal/task"
)

// MetadataClient is the slice of the ytmeta client the extractors need.
type MetadataClient interface {
	GetVideo(ctx context.Context, url string) (*ytmeta.VideoInfo, error)
	FetchTranscript(ctx context.Context, video *ytmeta.VideoInfo) (string, error)
}

// Completer is the slice of the llm client the generators need.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	Model() string
}

// MetadataExecutor resolves video metadata and records it in the library.
type MetadataExecutor struct {
	client  MetadataClient
	library *Library
	logger  *slog.Logger
}

func NewMetadataExecutor(client MetadataClient, library *Library, logger *slog.Logger) *MetadataExecutor {
	return &MetadataExecutor{client: client, library: library, logger: logger}
}

func (e *MetadataExecutor) Execute(ctx context.Context, req task.Request) (task.Outcome, error) {
	sourceURL := strings.TrimSpace(req.Payload.SourceURL)
	if sourceURL == "" {
		return task.Outcome{}, services.Wrap(services.ErrValidation, "generation", "extract_metadata",
			"source_url missing from task payload", nil)
	}

	info, err := e.client.GetVideo(ctx, sourceURL)
	if err != nil {
		return task.Outcome{}, err
	}
	e.library.PutMetadata(req.VideoID, info.Title, info.Author, sourceURL, info.Duration)
	e.logger.Info("metadata extracted",
		"video_id", req.VideoID,
		"title", info.Title,
		"duration", info.Duration)

	return task.Outcome{Result: info.Title, Provider: "youtube"}, nil
}

// TranscriptExecutor downloads the caption transcript and records it in the
// library for the generators.
type TranscriptExecutor struct {
	client  MetadataClient
	library *Library
	logger  *slog.Logger
}

func NewTranscriptExecutor(client MetadataClient, library *Library, logger *slog.Logger) *TranscriptExecutor {
	return &TranscriptExecutor{client: client, library: library, logger: logger}
}

func (e *TranscriptExecutor) Execute(ctx context.Context, req task.Request) (task.Outcome, error) {
	sourceURL := strings.TrimSpace(req.Payload.SourceURL)
	if sourceURL == "" {
		if record, ok := e.library.Get(req.VideoID); ok {
			sourceURL = record.SourceURL
		}
	}
	if sourceURL == "" {
		return task.Outcome{}, services.Wrap(services.ErrValidation, "generation", "extract_transcript",
			"source_url missing from task payload", nil)
	}

	info, err := e.client.GetVideo(ctx, sourceURL)
	if err != nil {
		return task.Outcome{}, err
	}
	transcript, err := e.client.FetchTranscript(ctx, info)
	if err != nil {
		return task.Outcome{}, err
	}
	e.library.PutTranscript(req.VideoID, transcript)
	e.logger.Info("transcript extracted",
		"video_id", req.VideoID,
		"characters", len(transcript))

	return task.Outcome{Result: fmt.Sprintf("%d characters", len(transcript)), Provider: "youtube"}, nil
}

// ContentExecutor produces one study artifact from a stored transcript.
type ContentExecutor struct {
	completer Completer
	library   *Library
	logger    *slog.Logger
}

func NewContentExecutor(completer Completer, library *Library, logger *slog.Logger) *ContentExecutor {
	return &ContentExecutor{completer: completer, library: library, logger: logger}
}

func (e *ContentExecutor) Execute(ctx context.Context, req task.Request) (task.Outcome, error) {
	contentType := req.ContentType()
	if contentType == "" {
		return task.Outcome{}, services.Wrap(services.ErrValidation, "generation", "generate_content",
			"content_type missing from task payload", nil)
	}

	record, ok := e.library.Get(req.VideoID)
	if !ok || strings.TrimSpace(record.Transcript) == "" {
		// The transcript task may still be running; a transient error lets
		// the queue retry after it lands.
		return task.Outcome{}, services.Wrap(services.ErrTransient, "generation", "generate_content",
			fmt.Sprintf("transcript not yet available for %s", req.VideoID), nil)
	}

	artifact, err := e.completer.Complete(ctx, systemPrompt, promptFor(contentType, record.Title, record.Transcript))
	if err != nil {
		return task.Outcome{}, services.Wrap(services.ErrExternalTool, "generation", "generate_content",
			fmt.Sprintf("generate %s", contentType), err)
	}
	e.logger.Info("content generated",
		"video_id", req.VideoID,
		"content_type", contentType,
		"characters", len(artifact))

	return task.Outcome{Result: artifact, Provider: e.completer.Model()}, nil
}
