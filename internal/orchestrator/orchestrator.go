package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"lectern/internal/config"
	"lectern/internal/dispatch"
	"lectern/internal/fanout"
	"lectern/internal/logging"
	"lectern/internal/queue"
	"lectern/internal/task"
	"lectern/internal/tracking"
)

// Enqueue priorities for the import pipeline. Metadata lands first, then the
// transcript, then the generators that depend on it.
const (
	priorityMetadata   = 10
	priorityTranscript = 8
	priorityContent    = 5
)

// Orchestrator is the composition root: it owns the tracker, the fanout hub,
// and the task dispatcher, and exposes the operations the API surface needs.
type Orchestrator struct {
	cfg        *config.Config
	logger     *slog.Logger
	tracker    *tracking.Tracker
	hub        *fanout.Hub
	dispatcher *dispatch.Dispatcher
	supported  []string
}

// New wires the processing components together. The tracker pushes every
// session change into the fanout hub, and terminal sessions are recorded by
// the default finalizer.
func New(cfg *config.Config, store *queue.Store, registry *task.Registry, logger *slog.Logger) (*Orchestrator, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	tracker := tracking.New(tracking.Config{
		CompletedTTL: time.Duration(cfg.Tracking.CompletedTTLMinutes) * time.Minute,
		CancelGrace:  time.Duration(cfg.Tracking.CancelGraceSeconds) * time.Second,
		RecentWindow: time.Duration(cfg.Tracking.RecentWindowMinutes) * time.Minute,
	}, logger)

	hub := fanout.NewHub(tracker, logger)
	tracker.SetNotifier(hub)
	tracker.SetFinalizer(&logFinalizer{logger: logger})

	dispatcher, err := dispatch.New(cfg, store, registry, tracker, logger)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: build dispatcher: %w", err)
	}

	return &Orchestrator{
		cfg:        cfg,
		logger:     logger,
		tracker:    tracker,
		hub:        hub,
		dispatcher: dispatcher,
		supported:  cfg.Content.Types,
	}, nil
}

// Start launches the dispatcher scheduler loop.
func (o *Orchestrator) Start(ctx context.Context) error {
	return o.dispatcher.Start(ctx)
}

// Stop drains the dispatcher and stops tracker timers.
func (o *Orchestrator) Stop() {
	o.dispatcher.Stop()
	o.tracker.Stop()
}

// ImportRequest describes one video to process.
type ImportRequest struct {
	VideoID       string
	VideoRecordID string
	UserID        string
	SourceURL     string
	ContentTypes  []string
}

// StartProcessing initializes a session for the video and enqueues the
// extraction and generation tasks. Content types the deployment does not
// support are marked skipped by the tracker rather than enqueued.
func (o *Orchestrator) StartProcessing(ctx context.Context, req ImportRequest) (*tracking.Session, error) {
	videoID := strings.TrimSpace(req.VideoID)
	userID := strings.TrimSpace(req.UserID)
	sourceURL := strings.TrimSpace(req.SourceURL)
	if videoID == "" {
		return nil, fmt.Errorf("orchestrator: video id required")
	}
	if userID == "" {
		return nil, fmt.Errorf("orchestrator: user id required")
	}
	if sourceURL == "" {
		return nil, fmt.Errorf("orchestrator: source url required")
	}

	requested := req.ContentTypes
	if len(requested) == 0 {
		requested = o.supported
	}

	session := o.tracker.Initialize(videoID, userID, req.VideoRecordID, requested, o.supported)

	base := task.Payload{UserID: userID, SourceURL: sourceURL}
	if _, err := o.dispatcher.Enqueue(ctx, videoID, task.TypeExtractMetadata, priorityMetadata, base); err != nil {
		return nil, fmt.Errorf("orchestrator: enqueue metadata task: %w", err)
	}
	if _, err := o.dispatcher.Enqueue(ctx, videoID, task.TypeExtractTranscript, priorityTranscript, base); err != nil {
		return nil, fmt.Errorf("orchestrator: enqueue transcript task: %w", err)
	}
	for _, contentType := range requested {
		if !contains(o.supported, contentType) {
			continue
		}
		payload := base
		payload.ContentType = contentType
		if _, err := o.dispatcher.Enqueue(ctx, videoID, task.TypeGenerateContent, priorityContent, payload); err != nil {
			return nil, fmt.Errorf("orchestrator: enqueue %s task: %w", contentType, err)
		}
	}

	o.logger.Info("processing started",
		"video_id", videoID,
		"user_id", userID,
		"content_types", requested)
	return session, nil
}

// Cancel marks the video's session cancelled. It returns false when no
// session is tracked for the video.
func (o *Orchestrator) Cancel(videoID string) bool {
	return o.tracker.Cancel(videoID)
}

// VideoStatus returns a snapshot of the session for videoID, or nil.
func (o *Orchestrator) VideoStatus(videoID string) *tracking.Session {
	return o.tracker.VideoStatus(videoID)
}

// UserSessions returns the in-flight and recently completed sessions for a
// user.
func (o *Orchestrator) UserSessions(userID string) []*tracking.Session {
	return o.tracker.UserSessions(userID)
}

// ClearCompletedForUser drops the user's completed sessions from tracking.
func (o *Orchestrator) ClearCompletedForUser(userID string) int {
	return o.tracker.ClearCompletedForUser(userID)
}

// ForceClearForUser removes every session for a user, including in-flight
// ones. Late task callbacks against removed sessions are absorbed by the
// tracker.
func (o *Orchestrator) ForceClearForUser(userID string) int {
	return o.tracker.ForceClearForUser(userID)
}

// Hub exposes the fanout hub so the API can register live connections.
func (o *Orchestrator) Hub() *fanout.Hub {
	return o.hub
}

// QueueStatus reports queue counts and scheduler state.
func (o *Orchestrator) QueueStatus(ctx context.Context) (dispatch.Status, error) {
	return o.dispatcher.QueueStatus(ctx)
}

// RetryFailed requeues failed items for another attempt.
func (o *Orchestrator) RetryFailed(ctx context.Context) (int64, error) {
	return o.dispatcher.RetryFailed(ctx)
}

// CleanupQueue removes completed items older than maxAge.
func (o *Orchestrator) CleanupQueue(ctx context.Context, maxAge time.Duration) (int64, error) {
	return o.dispatcher.Cleanup(ctx, maxAge)
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

// logFinalizer records terminal sessions. Deployments that persist results
// elsewhere replace it through tracker.SetFinalizer.
type logFinalizer struct {
	logger *slog.Logger
}

func (f *logFinalizer) FinalizeSession(ctx context.Context, session *tracking.Session) error {
	failed := 0
	for _, sub := range session.Content {
		if sub.Status == tracking.StatusFailed {
			failed++
		}
	}
	f.logger.Info("session finalized",
		"video_id", session.VideoID,
		"user_id", session.UserID,
		"cancelled", session.Cancelled,
		"failed_subtasks", failed)
	return nil
}
