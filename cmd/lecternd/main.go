package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"lectern/internal/api"
	"lectern/internal/config"
	"lectern/internal/daemon"
	"lectern/internal/generation"
	"lectern/internal/logging"
	"lectern/internal/orchestrator"
	"lectern/internal/queue"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// A local .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return
	}

	registry, _ := generation.BuildRegistry(cfg, logger)
	orch, err := orchestrator.New(cfg, store, registry, logger)
	if err != nil {
		logger.Error("create orchestrator", logging.Error(err))
		_ = store.Close()
		return
	}

	server, err := api.NewServer(cfg, orch, logger)
	if err != nil {
		logger.Error("create api server", logging.Error(err))
		_ = store.Close()
		return
	}

	d, err := daemon.New(cfg, store, orch, server, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		_ = store.Close()
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("lecternd shutting down")
}
