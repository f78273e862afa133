package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"lectern/internal/logging"
	"lectern/internal/orchestrator"
)

type importRequest struct {
	VideoID       string   `json:"videoId"`
	VideoRecordID string   `json:"videoRecordId"`
	UserID        string   `json:"userId"`
	URL           string   `json:"url"`
	ContentTypes  []string `json:"contentTypes"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleImport(c echo.Context) error {
	var req importRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	session, err := s.orch.StartProcessing(c.Request().Context(), orchestrator.ImportRequest{
		VideoID:       req.VideoID,
		VideoRecordID: req.VideoRecordID,
		UserID:        req.UserID,
		SourceURL:     req.URL,
		ContentTypes:  req.ContentTypes,
	})
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusAccepted, session)
}

func (s *Server) handleVideoStatus(c echo.Context) error {
	videoID := c.Param("videoID")
	session := s.orch.VideoStatus(videoID)
	if session == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no session for video"})
	}
	return c.JSON(http.StatusOK, session)
}

func (s *Server) handleCancel(c echo.Context) error {
	videoID := c.Param("videoID")
	if !s.orch.Cancel(videoID) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no session for video"})
	}
	s.logger.Info("processing cancelled", logging.String(logging.FieldVideoID, videoID))
	return c.JSON(http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) handleUserSessions(c echo.Context) error {
	sessions := s.orch.UserSessions(c.Param("userID"))
	return c.JSON(http.StatusOK, sessions)
}

func (s *Server) handleClearCompleted(c echo.Context) error {
	cleared := s.orch.ClearCompletedForUser(c.Param("userID"))
	return c.JSON(http.StatusOK, map[string]int{"cleared": cleared})
}

func (s *Server) handleForceClear(c echo.Context) error {
	cleared := s.orch.ForceClearForUser(c.Param("userID"))
	return c.JSON(http.StatusOK, map[string]int{"cleared": cleared})
}

func (s *Server) handleQueueStatus(c echo.Context) error {
	status, err := s.orch.QueueStatus(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, status)
}

func (s *Server) handleQueueRetry(c echo.Context) error {
	retried, err := s.orch.RetryFailed(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]int64{"retried": retried})
}

func (s *Server) handleQueueCleanup(c echo.Context) error {
	maxAge := 24 * time.Hour
	if raw := strings.TrimSpace(c.QueryParam("maxAgeHours")); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours < 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "maxAgeHours must be a non-negative integer"})
		}
		maxAge = time.Duration(hours) * time.Hour
	}
	removed, err := s.orch.CleanupQueue(c.Request().Context(), maxAge)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]int64{"removed": removed})
}
