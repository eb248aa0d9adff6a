package store

import (
	"context"
	"fmt"

	"github.com/solarview/solarview/internal/config"
	"github.com/solarview/solarview/internal/database"
)

// Migrator is implemented by backends with a schema to apply.
type Migrator interface {
	Migrate(ctx context.Context) error
}

// Open connects the backend selected by cfg.StoreBackend.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := database.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("opening postgres: %w", err)
		}
		return NewPostgres(db), nil
	case config.BackendSQLite:
		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite: %w", err)
		}
		return NewSQLite(db), nil
	case config.BackendFile:
		f, err := OpenFile(cfg.StoreFile)
		if err != nil {
			return nil, fmt.Errorf("opening store file: %w", err)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// Migrate applies pending schema migrations when the backend has a schema.
func Migrate(ctx context.Context, st Store) error {
	m, ok := st.(Migrator)
	if !ok {
		return nil
	}
	return m.Migrate(ctx)
}

// Migrate applies the embedded Postgres migrations.
func (s *Postgres) Migrate(ctx context.Context) error {
	return s.db.Migrate(ctx)
}

// Migrate applies the embedded SQLite migrations.
func (s *SQLite) Migrate(ctx context.Context) error {
	return database.Migrate(ctx, s.db, database.DialectSQLite)
}
