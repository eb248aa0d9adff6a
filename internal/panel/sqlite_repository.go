package panel

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/solarview/solarview/internal/database"
)

// SQLiteRepository implements Repository on a SQLite database or transaction.
type SQLiteRepository struct {
	db  database.SQLDBTX
	now func() time.Time
}

// NewSQLiteRepository creates a new Repository backed by the given database/sql handle.
func NewSQLiteRepository(db database.SQLDBTX) *SQLiteRepository {
	return &SQLiteRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Create inserts a new panel model record.
func (r *SQLiteRepository) Create(ctx context.Context, np NewPanel) (Panel, error) {
	if np.ID == uuid.Nil {
		np.ID = uuid.New()
	}
	now := r.now()

	query := `
		INSERT INTO panel_models (id, owner_id, name, capacity, efficiency, manufacturer, type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		np.ID.String(), np.OwnerID, np.Name, np.Capacity, np.Efficiency, np.Manufacturer, np.Type, now, now,
	)
	if err != nil {
		return Panel{}, fmt.Errorf("inserting panel model: %w", err)
	}

	return r.Get(ctx, np.ID, np.OwnerID)
}

// Get retrieves a panel model owned by ownerID.
func (r *SQLiteRepository) Get(ctx context.Context, id uuid.UUID, ownerID int64) (Panel, error) {
	query := `SELECT ` + panelColumns + ` FROM panel_models WHERE id = ? AND owner_id = ?`

	var p Panel
	err := r.db.QueryRowContext(ctx, query, id.String(), ownerID).Scan(
		&p.ID, &p.OwnerID, &p.Name, &p.Capacity, &p.Efficiency,
		&p.Manufacturer, &p.Type, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Panel{}, ErrNotFound
		}
		return Panel{}, fmt.Errorf("scanning panel model row: %w", err)
	}
	return p, nil
}

// List retrieves the owner's panel models ordered by name.
func (r *SQLiteRepository) List(ctx context.Context, ownerID int64, filter ListFilter) ([]Panel, error) {
	conditions := []string{"owner_id = ?"}
	args := []any{ownerID}

	if filter.Manufacturer != nil {
		conditions = append(conditions, "manufacturer = ?")
		args = append(args, *filter.Manufacturer)
	}
	if filter.MinCapacity != nil {
		conditions = append(conditions, "capacity >= ?")
		args = append(args, *filter.MinCapacity)
	}
	if filter.MinEfficiency != nil {
		conditions = append(conditions, "efficiency >= ?")
		args = append(args, *filter.MinEfficiency)
	}

	query := `SELECT ` + panelColumns + ` FROM panel_models WHERE ` +
		strings.Join(conditions, " AND ") + ` ORDER BY name ASC, created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing panel models: %w", err)
	}
	defer rows.Close()

	panels := []Panel{}
	for rows.Next() {
		var p Panel
		if err := rows.Scan(
			&p.ID, &p.OwnerID, &p.Name, &p.Capacity, &p.Efficiency,
			&p.Manufacturer, &p.Type, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning panel model row: %w", err)
		}
		panels = append(panels, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating panel model rows: %w", err)
	}

	return panels, nil
}

// Update modifies the set fields of an owned panel model.
func (r *SQLiteRepository) Update(ctx context.Context, id uuid.UUID, ownerID int64, fields UpdateFields) (Panel, error) {
	var setClauses []string
	var args []any

	add := func(column string, value any) {
		setClauses = append(setClauses, column+" = ?")
		args = append(args, value)
	}

	if fields.Name != nil {
		add("name", *fields.Name)
	}
	if fields.Capacity != nil {
		add("capacity", *fields.Capacity)
	}
	if fields.Efficiency != nil {
		add("efficiency", *fields.Efficiency)
	}
	if fields.Manufacturer != nil {
		add("manufacturer", *fields.Manufacturer)
	}
	if fields.Type != nil {
		add("type", *fields.Type)
	}

	if len(setClauses) == 0 {
		return r.Get(ctx, id, ownerID)
	}

	add("updated_at", r.now())
	args = append(args, id.String(), ownerID)

	query := `UPDATE panel_models SET ` + strings.Join(setClauses, ", ") + ` WHERE id = ? AND owner_id = ?`

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return Panel{}, fmt.Errorf("updating panel model: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return Panel{}, fmt.Errorf("reading affected rows: %w", err)
	}
	if affected == 0 {
		return Panel{}, ErrNotFound
	}

	return r.Get(ctx, id, ownerID)
}

// Delete removes an owned panel model.
func (r *SQLiteRepository) Delete(ctx context.Context, id uuid.UUID, ownerID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM panel_models WHERE id = ? AND owner_id = ?`, id.String(), ownerID)
	if err != nil {
		return fmt.Errorf("deleting panel model: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
