// Package catalog enforces per-owner visibility and admin-only mutation of
// the solar-panel model catalog.
package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/solarview/solarview/internal/auth"
	"github.com/solarview/solarview/internal/panel"
	"github.com/solarview/solarview/internal/store"
	"github.com/solarview/solarview/internal/user"
	"github.com/solarview/solarview/internal/validation"
)

// Manager implements the panel model operations on top of a Store.
type Manager struct {
	store store.Store
}

// NewManager creates a new catalog Manager.
func NewManager(st store.Store) *Manager {
	return &Manager{store: st}
}

// CreateInput holds the fields of a new panel model.
type CreateInput struct {
	Name         string
	Capacity     float64
	Efficiency   float64
	Manufacturer string
	Type         string
}

// Create adds a panel model owned by the acting admin.
func (m *Manager) Create(ctx context.Context, actor user.User, in CreateInput) (panel.Panel, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return panel.Panel{}, err
	}

	if err := validation.AsError(validation.ValidateCreatePanelRequest(validation.CreatePanelRequest{
		Name:         in.Name,
		Capacity:     in.Capacity,
		Efficiency:   in.Efficiency,
		Manufacturer: in.Manufacturer,
		Type:         in.Type,
	})); err != nil {
		return panel.Panel{}, err
	}

	var created panel.Panel
	err := m.store.WithinTx(ctx, func(ctx context.Context, tx store.Store) error {
		var err error
		created, err = tx.Panels().Create(ctx, panel.NewPanel{
			OwnerID:      actor.ID,
			Name:         strings.TrimSpace(in.Name),
			Capacity:     in.Capacity,
			Efficiency:   in.Efficiency,
			Manufacturer: strings.TrimSpace(in.Manufacturer),
			Type:         strings.TrimSpace(in.Type),
		})
		return err
	})
	if err != nil {
		return panel.Panel{}, err
	}
	return created, nil
}

// List returns the actor's own panel models ordered by name.
func (m *Manager) List(ctx context.Context, actor user.User, filter panel.ListFilter) ([]panel.Panel, error) {
	return m.store.Panels().List(ctx, actor.ID, filter)
}

// Get returns one of the actor's panel models. Models owned by someone else
// are reported as panel.ErrNotFound.
func (m *Manager) Get(ctx context.Context, actor user.User, id uuid.UUID) (panel.Panel, error) {
	return m.store.Panels().Get(ctx, id, actor.ID)
}

// Update applies a partial update to one of the acting admin's panel models.
func (m *Manager) Update(ctx context.Context, actor user.User, id uuid.UUID, fields panel.UpdateFields) (panel.Panel, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return panel.Panel{}, err
	}

	if err := validation.AsError(validation.ValidateUpdatePanelRequest(validation.UpdatePanelRequest{
		Name:         fields.Name,
		Capacity:     fields.Capacity,
		Efficiency:   fields.Efficiency,
		Manufacturer: fields.Manufacturer,
		Type:         fields.Type,
	})); err != nil {
		return panel.Panel{}, err
	}

	fields.Name = trimmed(fields.Name)
	fields.Manufacturer = trimmed(fields.Manufacturer)
	fields.Type = trimmed(fields.Type)

	var updated panel.Panel
	err := m.store.WithinTx(ctx, func(ctx context.Context, tx store.Store) error {
		var err error
		updated, err = tx.Panels().Update(ctx, id, actor.ID, fields)
		return err
	})
	if err != nil {
		return panel.Panel{}, err
	}
	return updated, nil
}

// Delete removes one of the acting admin's panel models.
func (m *Manager) Delete(ctx context.Context, actor user.User, id uuid.UUID) error {
	if err := auth.RequireAdmin(actor); err != nil {
		return err
	}

	return m.store.WithinTx(ctx, func(ctx context.Context, tx store.Store) error {
		return tx.Panels().Delete(ctx, id, actor.ID)
	})
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
