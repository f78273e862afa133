package fanout_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"lectern/internal/fanout"
	"lectern/internal/tracking"
)

type fakeSource struct {
	mu       sync.Mutex
	sessions []*tracking.Session
	cleared  []string
}

func (s *fakeSource) UserSessions(userID string) []*tracking.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*tracking.Session
	for _, session := range s.sessions {
		if session.UserID == userID {
			out = append(out, session)
		}
	}
	return out
}

func (s *fakeSource) ClearCompletedForUser(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared = append(s.cleared, userID)
	return 0
}

func (s *fakeSource) clearedUsers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.cleared))
	copy(out, s.cleared)
	return out
}

type fakeConn struct {
	mu     sync.Mutex
	events []fanout.StatusEvent
	err    error
}

func (c *fakeConn) Send(event string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	if status, ok := payload.(fanout.StatusEvent); ok {
		c.events = append(c.events, status)
	}
	return nil
}

func (c *fakeConn) received() []fanout.StatusEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]fanout.StatusEvent, len(c.events))
	copy(out, c.events)
	return out
}

func session(videoID, userID string) *tracking.Session {
	return &tracking.Session{VideoID: videoID, UserID: userID}
}

func TestRegisterPushesCurrentSnapshot(t *testing.T) {
	source := &fakeSource{sessions: []*tracking.Session{
		session("vid-1", "user-1"),
		session("vid-2", "user-1"),
		session("vid-3", "user-2"),
	}}
	hub := fanout.NewHub(source, nil)
	conn := &fakeConn{}

	hub.Register("user-1", conn)

	events := conn.received()
	if len(events) != 2 {
		t.Fatalf("received %d snapshot events, want 2", len(events))
	}
	seen := map[string]bool{}
	for _, event := range events {
		seen[event.VideoID] = true
	}
	if !seen["vid-1"] || !seen["vid-2"] {
		t.Fatalf("snapshot events missing sessions: %#v", events)
	}
}

func TestEmitDeliversOnlyToUsersConnections(t *testing.T) {
	source := &fakeSource{}
	hub := fanout.NewHub(source, nil)
	mine := &fakeConn{}
	other := &fakeConn{}
	hub.Register("user-1", mine)
	hub.Register("user-2", other)

	hub.Emit("user-1", "vid-1", session("vid-1", "user-1"))

	if got := len(mine.received()); got != 1 {
		t.Fatalf("user-1 connection received %d events, want 1", got)
	}
	if got := len(other.received()); got != 0 {
		t.Fatalf("user-2 connection received %d events, want 0", got)
	}
}

func TestEmitDropsFailingConnection(t *testing.T) {
	source := &fakeSource{}
	hub := fanout.NewHub(source, nil)
	healthy := &fakeConn{}
	broken := &fakeConn{err: errors.New("pipe closed")}
	hub.Register("user-1", healthy)
	hub.Register("user-1", broken)

	hub.Emit("user-1", "vid-1", session("vid-1", "user-1"))

	if got := hub.Connections("user-1"); got != 1 {
		t.Fatalf("connections after failed delivery = %d, want 1", got)
	}
	if got := len(healthy.received()); got != 1 {
		t.Fatalf("healthy connection received %d events, want 1", got)
	}

	// The healthy connection keeps receiving after the drop.
	hub.Emit("user-1", "vid-1", session("vid-1", "user-1"))
	if got := len(healthy.received()); got != 2 {
		t.Fatalf("healthy connection received %d events after second emit, want 2", got)
	}
}

func TestUnregisterLastConnectionClearsCompleted(t *testing.T) {
	source := &fakeSource{}
	hub := fanout.NewHub(source, nil)
	first := &fakeConn{}
	second := &fakeConn{}
	hub.Register("user-1", first)
	hub.Register("user-1", second)

	hub.Unregister("user-1", first)
	if cleared := source.clearedUsers(); len(cleared) != 0 {
		t.Fatalf("cleared after non-final unregister: %v", cleared)
	}

	hub.Unregister("user-1", second)
	cleared := source.clearedUsers()
	if len(cleared) != 1 || cleared[0] != "user-1" {
		t.Fatalf("cleared users = %v, want [user-1]", cleared)
	}
}

func TestEmitFailureEmptyingSetClearsCompleted(t *testing.T) {
	source := &fakeSource{}
	hub := fanout.NewHub(source, nil)
	broken := &fakeConn{err: errors.New("pipe closed")}
	hub.Register("user-1", broken)

	hub.Emit("user-1", "vid-1", session("vid-1", "user-1"))

	// The clear runs on a separate goroutine.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cleared := source.clearedUsers(); len(cleared) == 1 && cleared[0] == "user-1" {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("completed sessions not cleared, got %v", source.clearedUsers())
}
