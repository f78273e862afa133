package tracking

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"lectern/internal/logging"
)

// Notifier receives a snapshot after every observable session mutation.
// SessionChanged is invoked while the tracker holds its internal lock so that
// snapshots for one video are delivered in mutation order; implementations
// must not call back into the tracker synchronously.
type Notifier interface {
	SessionChanged(userID, videoID string, snapshot *Session)
}

// Finalizer persists the terminal snapshot of a session externally. It is
// invoked asynchronously once per session when the session completes.
type Finalizer interface {
	FinalizeSession(ctx context.Context, snapshot *Session) error
}

// Config holds the session lifecycle windows.
type Config struct {
	// CompletedTTL is how long a completed session stays visible before the
	// tracker removes it.
	CompletedTTL time.Duration
	// CancelGrace is how long a cancelled session stays visible so watchers
	// can observe the cancelled snapshot.
	CancelGrace time.Duration
	// RecentWindow bounds how far back UserSessions reports completed
	// sessions, so a client reconnecting shortly after completion still sees
	// the final state.
	RecentWindow time.Duration
}

// DefaultConfig returns the production lifecycle windows.
func DefaultConfig() Config {
	return Config{
		CompletedTTL: 30 * time.Minute,
		CancelGrace:  5 * time.Second,
		RecentWindow: 5 * time.Minute,
	}
}

type entry struct {
	session     *Session
	completedAt time.Time
	cleanup     *time.Timer
}

// Tracker owns one ProcessingSession per in-flight video. Producers (task
// callbacks) mutate it; consumers (status endpoints, the fanout hub) read
// snapshots. All state is in-memory and scoped to this process.
type Tracker struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*entry
	notifier Notifier
	finalize Finalizer
	stopped  bool
}

// New constructs a tracker with the provided lifecycle windows.
func New(cfg Config, logger *slog.Logger) *Tracker {
	if cfg.CompletedTTL <= 0 {
		cfg.CompletedTTL = DefaultConfig().CompletedTTL
	}
	if cfg.CancelGrace <= 0 {
		cfg.CancelGrace = DefaultConfig().CancelGrace
	}
	if cfg.RecentWindow <= 0 {
		cfg.RecentWindow = DefaultConfig().RecentWindow
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Tracker{
		cfg:      cfg,
		logger:   logger.With(logging.String(logging.FieldComponent, "tracking")),
		sessions: make(map[string]*entry),
	}
}

// SetNotifier installs the fanout target. Resolved once at startup; the
// tracker and the hub reference each other, so one side is wired after
// construction.
func (t *Tracker) SetNotifier(notifier Notifier) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notifier = notifier
}

// SetFinalizer installs the hook invoked when sessions complete.
func (t *Tracker) SetFinalizer(finalize Finalizer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.finalize = finalize
}

// Initialize creates (or replaces) the session for a video. Supported content
// types that were not requested are marked skipped immediately and never
// transition. Replacing an existing session cancels its cleanup timer; any
// in-flight task still referencing the old session will act on the new one.
func (t *Tracker) Initialize(videoID, userID, videoRecordID string, requested, supported []string) *Session {
	now := time.Now().UTC()

	requestedSet := make(map[string]struct{}, len(requested))
	for _, contentType := range requested {
		requestedSet[normalizeContentType(contentType)] = struct{}{}
	}

	content := make(map[string]SubTask, len(supported))
	for _, contentType := range supported {
		contentType = normalizeContentType(contentType)
		if contentType == "" {
			continue
		}
		if _, ok := requestedSet[contentType]; ok {
			content[contentType] = SubTask{Status: StatusPending}
			continue
		}
		skippedAt := now
		content[contentType] = SubTask{Status: StatusSkipped, CompletedAt: &skippedAt}
	}

	session := &Session{
		VideoID:       videoID,
		VideoRecordID: videoRecordID,
		UserID:        userID,
		StartTime:     now,
		LastUpdate:    now,
		Transcript:    SubTask{Status: StatusPending},
		Content:       content,
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if prior, ok := t.sessions[videoID]; ok {
		stopTimer(prior)
		t.logger.Info("replacing existing session",
			logging.String(logging.FieldVideoID, videoID),
			logging.String(logging.FieldUserID, userID),
		)
	}
	t.sessions[videoID] = &entry{session: session}
	t.notifyLocked(session)
	return session.Clone()
}

// UpdateTranscriptStatus sets the transcript sub-status. A missing session is
// benign: it may have been removed by cancellation or TTL expiry racing with
// the task callback.
func (t *Tracker) UpdateTranscriptStatus(videoID string, status Status, errMsg string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.sessions[videoID]
	if !ok {
		t.logger.Warn("transcript update for unknown video",
			logging.String(logging.FieldVideoID, videoID),
			logging.String("status", string(status)),
		)
		return
	}
	if e.session.Completed {
		return
	}

	now := time.Now().UTC()
	sub := SubTask{Status: status, Error: errMsg}
	if status.IsTerminal() {
		sub.CompletedAt = &now
	}
	e.session.Transcript = sub
	e.session.LastUpdate = now

	t.checkCompletionLocked(e)
	t.notifyLocked(e.session)
}

// UpdateContentStatus sets one content-type sub-status. Unknown content types
// for a known session indicate schema drift and are absorbed with a warning.
func (t *Tracker) UpdateContentStatus(videoID, contentType string, status Status, errMsg string, meta *Metadata) {
	contentType = normalizeContentType(contentType)

	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.sessions[videoID]
	if !ok {
		t.logger.Warn("content update for unknown video",
			logging.String(logging.FieldVideoID, videoID),
			logging.String(logging.FieldContentType, contentType),
			logging.String("status", string(status)),
		)
		return
	}
	if e.session.Completed {
		return
	}
	if _, known := e.session.Content[contentType]; !known {
		t.logger.Warn("content update for unknown content type",
			logging.String(logging.FieldVideoID, videoID),
			logging.String(logging.FieldContentType, contentType),
		)
		return
	}

	now := time.Now().UTC()
	sub := SubTask{Status: status, Error: errMsg}
	if status.IsTerminal() {
		sub.CompletedAt = &now
	}
	if meta != nil {
		sub.ErrorCode = meta.ErrorCode
		sub.ErrorType = meta.ErrorType
		sub.IsFiltered = meta.IsFiltered
		sub.SuggestedFix = meta.SuggestedFix
		sub.FailureReason = meta.FailureReason
		sub.ProviderUsed = meta.ProviderUsed
	}
	e.session.Content[contentType] = sub
	e.session.LastUpdate = now

	t.checkCompletionLocked(e)
	t.notifyLocked(e.session)
}

// Cancel forces every pending sub-task to cancelled, marks the session
// completed, and schedules removal after the grace period. Returns false when
// no session exists for the video.
func (t *Tracker) Cancel(videoID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.sessions[videoID]
	if !ok {
		return false
	}

	now := time.Now().UTC()
	if e.session.Transcript.Status == StatusPending {
		e.session.Transcript = SubTask{Status: StatusCancelled, CompletedAt: &now}
	}
	for contentType, sub := range e.session.Content {
		if sub.Status == StatusPending {
			e.session.Content[contentType] = SubTask{Status: StatusCancelled, CompletedAt: &now}
		}
	}
	e.session.Cancelled = true
	e.session.LastUpdate = now
	if !e.session.Completed {
		e.session.Completed = true
		e.completedAt = now
		t.runFinalizerLocked(e.session)
	}

	t.armCleanupLocked(videoID, e, t.cfg.CancelGrace)
	t.notifyLocked(e.session)

	t.logger.Info("session cancelled",
		logging.String(logging.FieldVideoID, videoID),
		logging.String(logging.FieldUserID, e.session.UserID),
	)
	return true
}

// VideoStatus returns a snapshot of the session for a video, or nil.
func (t *Tracker) VideoStatus(videoID string) *Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.sessions[videoID]
	if !ok {
		return nil
	}
	return e.session.Clone()
}

// UserSessions returns sessions for a user that are in-flight or completed
// within the recent window, sorted by start time descending.
func (t *Tracker) UserSessions(userID string) []*Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := time.Now().UTC().Add(-t.cfg.RecentWindow)
	var sessions []*Session
	for _, e := range t.sessions {
		if e.session.UserID != userID {
			continue
		}
		if e.session.Completed && e.completedAt.Before(cutoff) {
			continue
		}
		sessions = append(sessions, e.session.Clone())
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartTime.After(sessions[j].StartTime)
	})
	return sessions
}

// ClearCompletedForUser removes completed sessions for a user. In-flight
// sessions are preserved so task callbacks arriving after a disconnect still
// find their session.
func (t *Tracker) ClearCompletedForUser(userID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for videoID, e := range t.sessions {
		if e.session.UserID != userID || !e.session.Completed {
			continue
		}
		stopTimer(e)
		delete(t.sessions, videoID)
		removed++
	}
	return removed
}

// ForceClearForUser unconditionally removes every session for a user,
// including in-flight ones. Late task callbacks are then silently dropped;
// intended only for logout or administrative reset.
func (t *Tracker) ForceClearForUser(userID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for videoID, e := range t.sessions {
		if e.session.UserID != userID {
			continue
		}
		stopTimer(e)
		delete(t.sessions, videoID)
		removed++
	}
	if removed > 0 {
		t.logger.Info("force-cleared user sessions",
			logging.String(logging.FieldUserID, userID),
			logging.Int("removed", removed),
		)
	}
	return removed
}

// Stop cancels all cleanup timers; no new timers are armed afterwards.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	for _, e := range t.sessions {
		stopTimer(e)
	}
}

func (t *Tracker) checkCompletionLocked(e *entry) {
	if e.session.Completed || !e.session.terminal() {
		return
	}
	now := time.Now().UTC()
	e.session.Completed = true
	e.completedAt = now
	t.runFinalizerLocked(e.session)
	t.armCleanupLocked(e.session.VideoID, e, t.cfg.CompletedTTL)

	t.logger.Info("session completed",
		logging.String(logging.FieldVideoID, e.session.VideoID),
		logging.String(logging.FieldUserID, e.session.UserID),
		logging.Duration("elapsed", now.Sub(e.session.StartTime)),
	)
}

// armCleanupLocked replaces any existing cleanup timer for the entry. The
// handle lives on the entry so reprocessing the same video cannot be deleted
// out from under a stale timer.
func (t *Tracker) armCleanupLocked(videoID string, e *entry, after time.Duration) {
	if t.stopped {
		return
	}
	stopTimer(e)
	e.cleanup = time.AfterFunc(after, func() {
		t.expire(videoID, e)
	})
}

func (t *Tracker) expire(videoID string, expired *entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	current, ok := t.sessions[videoID]
	if !ok || current != expired {
		// The session was replaced or already removed; nothing to do.
		return
	}
	delete(t.sessions, videoID)
	t.logger.Debug("session expired",
		logging.String(logging.FieldVideoID, videoID),
		logging.String(logging.FieldUserID, expired.session.UserID),
	)
}

func (t *Tracker) notifyLocked(session *Session) {
	if t.notifier == nil {
		return
	}
	t.notifier.SessionChanged(session.UserID, session.VideoID, session.Clone())
}

func (t *Tracker) runFinalizerLocked(session *Session) {
	if t.finalize == nil {
		return
	}
	snapshot := session.Clone()
	finalize := t.finalize
	logger := t.logger
	go func() {
		if err := finalize.FinalizeSession(context.Background(), snapshot); err != nil {
			logger.Warn("session finalize hook failed",
				logging.String(logging.FieldVideoID, snapshot.VideoID),
				logging.Error(err),
			)
		}
	}()
}

func stopTimer(e *entry) {
	if e.cleanup != nil {
		e.cleanup.Stop()
		e.cleanup = nil
	}
}

func normalizeContentType(contentType string) string {
	return strings.ToLower(strings.TrimSpace(contentType))
}
