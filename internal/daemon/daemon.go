package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"lectern/internal/api"
	"lectern/internal/config"
	"lectern/internal/logging"
	"lectern/internal/orchestrator"
	"lectern/internal/queue"
)

// Daemon binds the orchestrator and the HTTP API into a single-instance
// background process guarded by a file lock.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *queue.Store
	orch   *orchestrator.Orchestrator
	server *api.Server

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// New constructs a daemon with initialized dependencies. server may be nil
// when no API bind address is configured.
func New(cfg *config.Config, store *queue.Store, orch *orchestrator.Orchestrator, server *api.Server, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || orch == nil {
		return nil, errors.New("daemon requires config, store, and orchestrator")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := filepath.Join(cfg.Paths.LogDir, "lecternd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		orch:     orch,
		server:   server,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and launches the orchestrator and API
// server. A second daemon on the same log directory fails fast.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another lectern daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.orch.Start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		return fmt.Errorf("start orchestrator: %w", err)
	}
	if err := d.server.Start(runCtx); err != nil {
		d.orch.Stop()
		_ = d.lock.Unlock()
		cancel()
		return fmt.Errorf("start api server: %w", err)
	}

	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("lectern daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.orch.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("lectern daemon stopped")
}

// Close stops the daemon and releases the queue store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether Start has succeeded and Stop has not been called.
func (d *Daemon) Running() bool {
	return d.running.Load()
}
