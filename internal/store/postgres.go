package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/solarview/solarview/internal/config"
	"github.com/solarview/solarview/internal/database"
	"github.com/solarview/solarview/internal/panel"
	"github.com/solarview/solarview/internal/user"
)

// Postgres is a Store backed by a pgx connection pool.
type Postgres struct {
	db     *database.DB
	tx     pgx.Tx
	users  user.Repository
	panels panel.Repository
}

// NewPostgres wraps an open database pool.
func NewPostgres(db *database.DB) *Postgres {
	return &Postgres{
		db:     db,
		users:  user.NewPostgresRepository(db.Pool()),
		panels: panel.NewPostgresRepository(db.Pool()),
	}
}

func (s *Postgres) Users() user.Repository   { return s.users }
func (s *Postgres) Panels() panel.Repository { return s.panels }

// WithinTx runs fn in a read-committed transaction.
func (s *Postgres) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if s.tx != nil {
		return fn(ctx, s)
	}

	err := pgx.BeginTxFunc(ctx, s.db.Pool(), pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, &Postgres{
			db:     s.db,
			tx:     tx,
			users:  user.NewPostgresRepository(tx),
			panels: panel.NewPostgresRepository(tx),
		})
	})
	if err != nil {
		return fmt.Errorf("postgres transaction: %w", err)
	}
	return nil
}

func (s *Postgres) Ping(ctx context.Context) error { return s.db.Ping(ctx) }

func (s *Postgres) Backend() string { return config.BackendPostgres }

// Close releases the pool. Transaction-bound stores leave it open.
func (s *Postgres) Close() {
	if s.tx == nil {
		s.db.Close()
	}
}
