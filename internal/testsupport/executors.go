package testsupport

import (
	"context"
	"errors"
	"sync"

	"lectern/internal/task"
)

// ErrStubFailure is the default error returned by failing stub executions.
var ErrStubFailure = errors.New("stub executor failure")

// StubExecutor records every request it receives and returns a scripted
// outcome. FailTimes > 0 makes the next N executions fail; a negative value
// makes every execution fail.
type StubExecutor struct {
	FailTimes int
	Err       error
	Outcome   task.Outcome

	mu       sync.Mutex
	requests []task.Request
}

func (s *StubExecutor) Execute(ctx context.Context, req task.Request) (task.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.FailTimes != 0 {
		if s.FailTimes > 0 {
			s.FailTimes--
		}
		if s.Err != nil {
			return task.Outcome{}, s.Err
		}
		return task.Outcome{}, ErrStubFailure
	}
	return s.Outcome, nil
}

// Calls returns a copy of the recorded requests.
func (s *StubExecutor) Calls() []task.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]task.Request, len(s.requests))
	copy(out, s.requests)
	return out
}
