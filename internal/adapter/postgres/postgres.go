// Package postgres implements the domain repositories using PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"phrasebook/internal/config"
	"phrasebook/internal/domain"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Ensure interfaces are met.
var (
	_ domain.UserRepository       = (*DB)(nil)
	_ domain.PhraseListRepository = (*DB)(nil)
	_ domain.TxManager            = (*DB)(nil)
)

// DB wraps a *sql.DB and implements domain repository interfaces.
type DB struct {
	sql          *sql.DB
	queryTimeout time.Duration
}

// Open connects to PostgreSQL, pings, and runs migrations.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	s, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, err
	}
	s.SetMaxOpenConns(cfg.MaxOpenConns)
	s.SetMaxIdleConns(cfg.MaxIdleConns)
	s.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.PingContext(pingCtx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	if err := Migrate(ctx, s); err != nil {
		_ = s.Close()
		return nil, err
	}
	return New(s, cfg.QueryTimeout), nil
}

// New wraps an open connection pool. A zero queryTimeout disables the
// per-query deadline.
func New(s *sql.DB, queryTimeout time.Duration) *DB {
	return &DB{sql: s, queryTimeout: queryTimeout}
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

// Ping reports whether the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()
	return d.sql.PingContext(ctx)
}

// Migrate applies the embedded goose migrations.
func Migrate(ctx context.Context, s *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := goose.UpContext(ctx, s, "migrations"); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (d *DB) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d.queryTimeout)
}
