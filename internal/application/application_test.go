package application

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/emis-viewer/internal/config"
	"github.com/JonMunkholm/emis-viewer/internal/viewer"
)

func baseConfig() *config.Config {
	return &config.Config{
		Source: config.SourceConfig{
			Kind:          config.SourceMock,
			MaxConcurrent: 2,
			MaxWait:       time.Second,
			FetchTimeout:  5 * time.Second,
		},
		Viewer: config.ViewerConfig{
			ExportPrefix:       "district",
			StatusDismissAfter: time.Second,
		},
	}
}

func TestOpenSource_Mock(t *testing.T) {
	cfg := baseConfig()
	ctx := context.Background()

	src, err := OpenSource(ctx, cfg)
	require.NoError(t, err)
	defer src.Close(ctx)

	assert.Equal(t, config.SourceMock, src.Kind)
	assert.Equal(t, 2, src.Status().MaxConcurrent)

	rs, err := src.Fetch(ctx, viewer.QueryParameters{"type": "classes"})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(rs), 10)
}

func TestOpenSource_SQLiteSeeded(t *testing.T) {
	cfg := baseConfig()
	cfg.Source.Kind = config.SourceSQLite
	cfg.Source.SQLitePath = filepath.Join(t.TempDir(), "emis.db")
	cfg.Source.SQLiteSeed = true
	ctx := context.Background()

	src, err := OpenSource(ctx, cfg)
	require.NoError(t, err)
	defer src.Close(ctx)

	rs, err := src.Fetch(ctx, viewer.QueryParameters{"type": "students"})
	require.NoError(t, err)
	assert.NotEmpty(t, rs)
}

func TestOpenSource_Unknown(t *testing.T) {
	cfg := baseConfig()
	cfg.Source.Kind = "oracle"

	_, err := OpenSource(context.Background(), cfg)
	require.Error(t, err)
}

func TestControllerFactory_AppliesConfig(t *testing.T) {
	cfg := baseConfig()
	cfg.Source.MockLatency = 0
	ctx := context.Background()

	src, err := OpenSource(ctx, cfg)
	require.NoError(t, err)
	defer src.Close(ctx)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctrl := ControllerFactory(cfg, src, logger)("sess-1")
	defer ctrl.Close()

	f, err := ctrl.SubmitQuery(viewer.QueryParameters{"type": "students"})
	require.NoError(t, err)
	require.NoError(t, f.Wait(ctx))

	var gotName string
	err = ctrl.ExportCSV(viewer.DownloaderFunc(func(name string, _ []byte) error {
		gotName = name
		return nil
	}))
	require.NoError(t, err)
	assert.Regexp(t, `^district_\d{4}-\d{2}-\d{2}\.csv$`, gotName)
}
