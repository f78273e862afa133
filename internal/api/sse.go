package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"lectern/internal/logging"
)

const streamBufferSize = 16

type streamMessage struct {
	event string
	data  []byte
}

// streamConn adapts one SSE response to the fanout Connection contract.
// Send never blocks: a full buffer means the client is too slow and the
// connection reports failure so the hub drops it.
type streamConn struct {
	messages chan streamMessage
	done     chan struct{}
}

func newStreamConn() *streamConn {
	return &streamConn{
		messages: make(chan streamMessage, streamBufferSize),
		done:     make(chan struct{}),
	}
}

func (c *streamConn) Send(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode event payload: %w", err)
	}
	select {
	case <-c.done:
		return errors.New("stream closed")
	case c.messages <- streamMessage{event: event, data: data}:
		return nil
	default:
		return errors.New("stream buffer full")
	}
}

func (c *streamConn) close() {
	close(c.done)
}

// handleEvents serves the live session event stream for one user. Each
// connected stream is registered with the fanout hub and receives the current
// snapshot on connect, then every subsequent change.
func (s *Server) handleEvents(c echo.Context) error {
	userID := c.Param("userID")
	resp := c.Response()
	flusher, ok := resp.Writer.(http.Flusher)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
	}

	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)
	flusher.Flush()

	conn := newStreamConn()
	hub := s.orch.Hub()
	hub.Register(userID, conn)
	defer func() {
		conn.close()
		hub.Unregister(userID, conn)
	}()

	s.logger.Debug("event stream opened", logging.String(logging.FieldUserID, userID))
	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-conn.messages:
			if _, err := fmt.Fprintf(resp.Writer, "event: %s\ndata: %s\n\n", msg.event, msg.data); err != nil {
				return nil
			}
			flusher.Flush()
		}
	}
}
