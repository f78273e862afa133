package tracking

import "time"

// Status represents the lifecycle of one sub-task inside a processing session.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether the status will never transition again.
func (s Status) IsTerminal() bool {
	return s != StatusPending && s != ""
}

// Valid reports whether the status is one of the known values.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed, StatusSkipped, StatusCancelled:
		return true
	default:
		return false
	}
}

// SubTask captures the state of one transcript or content-type sub-task.
type SubTask struct {
	Status        Status     `json:"status"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	Error         string     `json:"error,omitempty"`
	ErrorCode     string     `json:"errorCode,omitempty"`
	ErrorType     string     `json:"errorType,omitempty"`
	IsFiltered    bool       `json:"isFiltered,omitempty"`
	SuggestedFix  string     `json:"suggestedFix,omitempty"`
	FailureReason string     `json:"failureReason,omitempty"`
	ProviderUsed  string     `json:"providerUsed,omitempty"`
}

// Metadata carries optional diagnostic detail attached to a status update.
type Metadata struct {
	ErrorCode     string
	ErrorType     string
	IsFiltered    bool
	SuggestedFix  string
	FailureReason string
	ProviderUsed  string
}

// Session is the full processing record for one video: transcript extraction
// plus every requested content type.
type Session struct {
	VideoID       string             `json:"videoId"`
	VideoRecordID string             `json:"videoRecordId,omitempty"`
	UserID        string             `json:"userId"`
	StartTime     time.Time          `json:"startTime"`
	LastUpdate    time.Time          `json:"lastUpdate"`
	Completed     bool               `json:"completed"`
	Cancelled     bool               `json:"cancelled"`
	Transcript    SubTask            `json:"transcript"`
	Content       map[string]SubTask `json:"content"`
}

// Clone returns a deep copy safe to hand to consumers outside the tracker.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	if s.Transcript.CompletedAt != nil {
		t := *s.Transcript.CompletedAt
		cp.Transcript.CompletedAt = &t
	}
	cp.Content = make(map[string]SubTask, len(s.Content))
	for contentType, sub := range s.Content {
		if sub.CompletedAt != nil {
			t := *sub.CompletedAt
			sub.CompletedAt = &t
		}
		cp.Content[contentType] = sub
	}
	return &cp
}

// terminal reports whether every sub-task in the session has reached a
// terminal status.
func (s *Session) terminal() bool {
	if !s.Transcript.Status.IsTerminal() {
		return false
	}
	for _, sub := range s.Content {
		if !sub.Status.IsTerminal() {
			return false
		}
	}
	return true
}
