package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/emis-viewer/internal/application"
	"github.com/JonMunkholm/emis-viewer/internal/config"
	"github.com/JonMunkholm/emis-viewer/internal/logging"
	"github.com/JonMunkholm/emis-viewer/internal/web"
)

func main() {
	// .env is optional; Overload lets it win over the inherited environment
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()
	source, err := application.OpenSource(ctx, cfg)
	if err != nil {
		logger.Error("failed to open data source", "kind", cfg.Source.Kind, "error", err)
		os.Exit(1)
	}
	logger.Info("data source ready", "kind", source.Kind, "max_concurrent", cfg.Source.MaxConcurrent)

	sessions := web.NewSessionStore(
		application.ControllerFactory(cfg, source, logger),
		cfg.Viewer.SessionIdleTimeout,
	)
	server := web.NewServer(sessions, cfg)
	server.ReportHealth("fetches", func() any { return source.Status() })

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go sessions.StartSweeper(jobCtx, cfg.Viewer.SessionSweepInterval)

	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// closes all sessions, which cancels their fetches
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
		if err := source.Close(shutdownCtx); err != nil {
			logger.Error("data source close error", "error", err)
		}
	}()

	logger.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
	<-done
	logger.Info("server stopped")
}
