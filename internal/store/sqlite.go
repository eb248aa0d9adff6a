package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/solarview/solarview/internal/config"
	"github.com/solarview/solarview/internal/database"
	"github.com/solarview/solarview/internal/panel"
	"github.com/solarview/solarview/internal/user"
)

// SQLite is a Store backed by an embedded SQLite database file.
type SQLite struct {
	db     *sql.DB
	tx     *sql.Tx
	users  user.Repository
	panels panel.Repository
}

// NewSQLite wraps a handle returned by database.OpenSQLite.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{
		db:     db,
		users:  user.NewSQLiteRepository(db),
		panels: panel.NewSQLiteRepository(db),
	}
}

func (s *SQLite) Users() user.Repository   { return s.users }
func (s *SQLite) Panels() panel.Repository { return s.panels }

// WithinTx runs fn in a database/sql transaction.
func (s *SQLite) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if s.tx != nil {
		return fn(ctx, s)
	}

	err := database.WithSQLTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, &SQLite{
			db:     s.db,
			tx:     tx,
			users:  user.NewSQLiteRepository(tx),
			panels: panel.NewSQLiteRepository(tx),
		})
	})
	if err != nil {
		return fmt.Errorf("sqlite transaction: %w", err)
	}
	return nil
}

func (s *SQLite) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLite) Backend() string { return config.BackendSQLite }

// Close closes the database. Transaction-bound stores leave it open.
func (s *SQLite) Close() {
	if s.tx == nil {
		_ = s.db.Close()
	}
}
