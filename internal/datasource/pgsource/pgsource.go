// Package pgsource is a viewer.DataSource backed by PostgreSQL.
package pgsource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/emis-viewer/internal/datasource"
	"github.com/JonMunkholm/emis-viewer/internal/viewer"
)

// Querier is the subset of *pgxpool.Pool the source needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PoolConfig holds connection pool settings.
type PoolConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Source runs catalog queries against PostgreSQL.
type Source struct {
	db   Querier
	pool *pgxpool.Pool // nil when constructed with New
}

// New wraps an existing querier. The caller owns its lifecycle.
func New(db Querier) *Source {
	return &Source{db: db}
}

// Open creates a pool from cfg and verifies it with a ping.
func Open(ctx context.Context, cfg PoolConfig) (*Source, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Source{db: pool, pool: pool}, nil
}

// Fetch implements viewer.DataSource. Unknown types yield an empty result.
func (s *Source) Fetch(ctx context.Context, params viewer.QueryParameters) (viewer.ResultSet, error) {
	st, err := datasource.Build(datasource.Postgres, params)
	if errors.Is(err, datasource.ErrUnknownType) {
		return viewer.ResultSet{}, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, st.SQL, st.Args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", params.Type(), err)
	}
	defer rows.Close()

	return collect(rows)
}

func collect(rows pgx.Rows) (viewer.ResultSet, error) {
	columns := columnNames(rows.FieldDescriptions())

	rs := viewer.ResultSet{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		rec := make(viewer.Record, 0, len(columns))
		for i, col := range columns {
			if i < len(values) {
				rec = rec.With(col, datasource.Scalar(values[i]))
			}
		}
		rs = append(rs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return rs, nil
}

func columnNames(fields []pgconn.FieldDescription) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

// Close releases the pool opened by Open.
func (s *Source) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
