// Package store binds the user and panel repositories to a storage backend and
// gives the policy layer a single unit of work over both.
package store

import (
	"context"
	"errors"

	"github.com/solarview/solarview/internal/panel"
	"github.com/solarview/solarview/internal/user"
)

// ErrClosed is returned by operations on a store that has been closed.
var ErrClosed = errors.New("store is closed")

// Store is the persistence port used by the account and catalog managers.
type Store interface {
	Users() user.Repository
	Panels() panel.Repository

	// WithinTx runs fn inside a transaction. The Store handed to fn is bound to
	// that transaction. The transaction commits when fn returns nil and rolls
	// back otherwise. Nested calls reuse the outer transaction.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error

	Ping(ctx context.Context) error
	Backend() string
	Close()
}
