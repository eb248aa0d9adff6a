package panel

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no panel model with the id exists for the
// owner. Panels of other owners are reported the same way.
var ErrNotFound = errors.New("panel model not found")

// Repository provides owner-scoped operations on the panel_models table.
type Repository interface {
	Create(ctx context.Context, np NewPanel) (Panel, error)
	Get(ctx context.Context, id uuid.UUID, ownerID int64) (Panel, error)
	List(ctx context.Context, ownerID int64, filter ListFilter) ([]Panel, error)
	Update(ctx context.Context, id uuid.UUID, ownerID int64, fields UpdateFields) (Panel, error)
	Delete(ctx context.Context, id uuid.UUID, ownerID int64) error
}
