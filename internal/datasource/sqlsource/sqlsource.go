// Package sqlsource is a viewer.DataSource backed by a SQLite database,
// accessed through gorm. It is intended for local development.
package sqlsource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/JonMunkholm/emis-viewer/internal/datasource"
	"github.com/JonMunkholm/emis-viewer/internal/viewer"
)

// Source runs catalog queries against SQLite.
type Source struct {
	db *gorm.DB
}

// Open opens (creating if needed) the database at path and migrates the
// viewer tables.
func Open(path string) (*Source, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := db.AutoMigrate(allModels()...); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Source{db: db}, nil
}

// New wraps an already opened gorm handle.
func New(db *gorm.DB) *Source {
	return &Source{db: db}
}

// DB exposes the gorm handle, e.g. for seeding.
func (s *Source) DB() *gorm.DB { return s.db }

// Fetch implements viewer.DataSource. Unknown types yield an empty result.
func (s *Source) Fetch(ctx context.Context, params viewer.QueryParameters) (viewer.ResultSet, error) {
	st, err := datasource.Build(datasource.SQLite, params)
	if errors.Is(err, datasource.ErrUnknownType) {
		return viewer.ResultSet{}, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.WithContext(ctx).Raw(st.SQL, st.Args...).Rows()
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", params.Type(), err)
	}
	defer rows.Close()

	return collect(rows)
}

func collect(rows *sql.Rows) (viewer.ResultSet, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	rs := viewer.ResultSet{}
	values := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		rec := make(viewer.Record, 0, len(columns))
		for i, col := range columns {
			rec = rec.With(col, datasource.Scalar(values[i]))
		}
		rs = append(rs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return rs, nil
}

// Close closes the underlying connection.
func (s *Source) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
