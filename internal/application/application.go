// Package application assembles the viewer from configuration: it opens
// the configured data source and builds per-session controllers.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/JonMunkholm/emis-viewer/internal/config"
	"github.com/JonMunkholm/emis-viewer/internal/datasource"
	"github.com/JonMunkholm/emis-viewer/internal/datasource/mock"
	"github.com/JonMunkholm/emis-viewer/internal/datasource/pgsource"
	"github.com/JonMunkholm/emis-viewer/internal/datasource/sqlsource"
	"github.com/JonMunkholm/emis-viewer/internal/viewer"
)

// Source is the opened data source behind the concurrency limiter.
type Source struct {
	*datasource.Limiter
	Kind  string
	close func() error
}

// Close drains running fetches (bounded by ctx) and releases the backend.
func (s *Source) Close(ctx context.Context) error {
	if err := s.WaitForDrain(ctx); err != nil {
		slog.Warn("fetches still running at close", "error", err)
	}
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenSource opens the data source selected by cfg.Source.Kind.
func OpenSource(ctx context.Context, cfg *config.Config) (*Source, error) {
	sc := cfg.Source
	kind := strings.ToLower(sc.Kind)

	var (
		src     viewer.DataSource
		closeFn func() error
	)

	switch kind {
	case config.SourceMock:
		src = mock.New(sc.MockLatency)

	case config.SourcePostgres:
		pg, err := pgsource.Open(ctx, pgsource.PoolConfig{
			URL:             sc.DatabaseURL,
			MaxConns:        sc.MaxConns,
			MinConns:        sc.MinConns,
			MaxConnLifetime: sc.MaxConnLifetime,
			MaxConnIdleTime: sc.MaxConnIdleTime,
		})
		if err != nil {
			return nil, err
		}
		src = pg
		closeFn = func() error { pg.Close(); return nil }

	case config.SourceSQLite:
		sq, err := sqlsource.Open(sc.SQLitePath)
		if err != nil {
			return nil, err
		}
		if sc.SQLiteSeed {
			today := time.Now().UTC().Format(time.DateOnly)
			if err := sq.Seed(ctx, today); err != nil {
				_ = sq.Close()
				return nil, fmt.Errorf("seed sqlite: %w", err)
			}
			slog.Info("sqlite demo data ready", "path", sc.SQLitePath, "attendance_date", today)
		}
		src = sq
		closeFn = sq.Close

	default:
		return nil, fmt.Errorf("unknown data source %q", sc.Kind)
	}

	return &Source{
		Limiter: datasource.NewLimiter(src, sc.MaxConcurrent, sc.MaxWait),
		Kind:    kind,
		close:   closeFn,
	}, nil
}

// ControllerFactory returns a constructor for session controllers that
// share src and log with the session id attached.
func ControllerFactory(cfg *config.Config, src viewer.DataSource, logger *slog.Logger) func(sessionID string) *viewer.Controller {
	return func(sessionID string) *viewer.Controller {
		return viewer.New(src, viewer.Options{
			Logger:             logger.With("session_id", sessionID),
			FetchTimeout:       cfg.Source.FetchTimeout,
			ExportPrefix:       cfg.Viewer.ExportPrefix,
			StatusDismissAfter: cfg.Viewer.StatusDismissAfter,
		})
	}
}
