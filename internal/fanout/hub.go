package fanout

import (
	"log/slog"
	"sync"

	"lectern/internal/logging"
	"lectern/internal/tracking"
)

// EventStatus is the event name used for session snapshot pushes.
const EventStatus = "status"

// StatusEvent is the payload shape pushed to live connections.
type StatusEvent struct {
	VideoID string            `json:"videoId"`
	Status  *tracking.Session `json:"status"`
}

// Connection is one live duplex push handle (for example an SSE stream).
// Send must report delivery failure so the hub can treat it as a disconnect.
type Connection interface {
	Send(event string, payload any) error
}

// SessionSource exposes the tracker reads the hub needs. Split out as an
// interface so tests can register connections against a fake.
type SessionSource interface {
	UserSessions(userID string) []*tracking.Session
	ClearCompletedForUser(userID string) int
}

// Hub maintains the registry of live connections per user and pushes status
// snapshots to them. It implements tracking.Notifier.
type Hub struct {
	source SessionSource
	logger *slog.Logger

	mu    sync.Mutex
	conns map[string]map[Connection]struct{}
}

// NewHub constructs a hub reading session state from source.
func NewHub(source SessionSource, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Hub{
		source: source,
		logger: logger.With(logging.String(logging.FieldComponent, "fanout")),
		conns:  make(map[string]map[Connection]struct{}),
	}
}

// Register adds a connection for a user and immediately pushes the current
// snapshot of every in-flight or recently completed session to it.
func (h *Hub) Register(userID string, conn Connection) {
	if conn == nil {
		return
	}

	h.mu.Lock()
	set, ok := h.conns[userID]
	if !ok {
		set = make(map[Connection]struct{})
		h.conns[userID] = set
	}
	set[conn] = struct{}{}
	count := len(set)
	h.mu.Unlock()

	h.logger.Debug("connection registered",
		logging.String(logging.FieldUserID, userID),
		logging.Int("connections", count),
	)

	for _, session := range h.source.UserSessions(userID) {
		if err := conn.Send(EventStatus, StatusEvent{VideoID: session.VideoID, Status: session}); err != nil {
			h.Unregister(userID, conn)
			return
		}
	}
}

// Unregister removes a connection. When the last connection for a user goes
// away, completed sessions for that user are cleared from the tracker.
func (h *Hub) Unregister(userID string, conn Connection) {
	h.mu.Lock()
	set, ok := h.conns[userID]
	if ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.conns, userID)
		}
	}
	remaining := len(set)
	h.mu.Unlock()

	if ok && remaining == 0 {
		h.source.ClearCompletedForUser(userID)
		h.logger.Debug("last connection gone, cleared completed sessions",
			logging.String(logging.FieldUserID, userID),
		)
	}
}

// Emit pushes a session snapshot to every live connection for the user.
// Connections that fail delivery are dropped (transport failure is treated as
// an implicit disconnect) and the loop continues for the rest.
func (h *Hub) Emit(userID, videoID string, session *tracking.Session) {
	h.mu.Lock()
	targets := make([]Connection, 0, len(h.conns[userID]))
	for conn := range h.conns[userID] {
		targets = append(targets, conn)
	}
	h.mu.Unlock()

	event := StatusEvent{VideoID: videoID, Status: session}
	var failed []Connection
	for _, conn := range targets {
		if err := conn.Send(EventStatus, event); err != nil {
			h.logger.Warn("push delivery failed, dropping connection",
				logging.String(logging.FieldUserID, userID),
				logging.String(logging.FieldVideoID, videoID),
				logging.Error(err),
			)
			failed = append(failed, conn)
		}
	}

	if len(failed) == 0 {
		return
	}

	h.mu.Lock()
	set := h.conns[userID]
	for _, conn := range failed {
		delete(set, conn)
	}
	empty := set != nil && len(set) == 0
	if empty {
		delete(h.conns, userID)
	}
	h.mu.Unlock()

	if empty {
		// Emit can run inside the tracker's critical section; clear completed
		// sessions from a fresh goroutine to keep the callback non-reentrant.
		go h.source.ClearCompletedForUser(userID)
	}
}

// SessionChanged implements tracking.Notifier.
func (h *Hub) SessionChanged(userID, videoID string, snapshot *tracking.Session) {
	h.Emit(userID, videoID, snapshot)
}

// Connections reports the number of live connections for a user.
func (h *Hub) Connections(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns[userID])
}
