package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"lectern/internal/config"
	"lectern/internal/logging"
	"lectern/internal/orchestrator"
)

// Server exposes the daemon's HTTP surface: video import, status reads,
// cancellation, queue maintenance, and the live event stream.
type Server struct {
	bind   string
	token  string
	logger *slog.Logger
	orch   *orchestrator.Orchestrator
	echo   *echo.Echo
}

// NewServer builds the HTTP server around an orchestrator. A nil return with
// nil error means no bind address is configured and the API is disabled.
func NewServer(cfg *config.Config, orch *orchestrator.Orchestrator, logger *slog.Logger) (*Server, error) {
	if cfg == nil || orch == nil {
		return nil, errors.New("api server requires config and orchestrator")
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	s := &Server{
		bind:   bind,
		token:  strings.TrimSpace(cfg.Paths.APIToken),
		logger: logger.With(logging.String(logging.FieldComponent, "api")),
		orch:   orch,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.GET("/healthz", s.handleHealth)

	group := e.Group("/api", s.authMiddleware)
	group.POST("/videos", s.handleImport)
	group.GET("/videos/:videoID/status", s.handleVideoStatus)
	group.POST("/videos/:videoID/cancel", s.handleCancel)
	group.GET("/users/:userID/sessions", s.handleUserSessions)
	group.DELETE("/users/:userID/sessions/completed", s.handleClearCompleted)
	group.DELETE("/users/:userID/sessions", s.handleForceClear)
	group.GET("/users/:userID/events", s.handleEvents)
	group.GET("/queue", s.handleQueueStatus)
	group.POST("/queue/retry", s.handleQueueRetry)
	group.POST("/queue/cleanup", s.handleQueueCleanup)

	e.Server.ReadHeaderTimeout = 5 * time.Second
	e.Server.IdleTimeout = 60 * time.Second
	s.echo = e
	return s, nil
}

// Start begins serving and shuts the server down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	go func() {
		if err := s.echo.Start(s.bind); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.echo.Shutdown(shutdownCtx)
	}()
	s.logger.Info("api server listening", logging.String("address", s.bind))
	return nil
}

// Shutdown stops the server immediately.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.echo.Shutdown(ctx)
}

// Handler exposes the routing tree for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// authMiddleware validates a static bearer token when one is configured.
func (s *Server) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	if s.token == "" {
		return next
	}
	return func(c echo.Context) error {
		auth := c.Request().Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != s.token {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}
		return next(c)
	}
}
