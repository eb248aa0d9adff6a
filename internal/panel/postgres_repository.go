package panel

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/solarview/solarview/internal/database"
)

const panelColumns = `id, owner_id, name, capacity, efficiency, manufacturer, type, created_at, updated_at`

// PostgresRepository implements Repository on a pool or an open transaction.
type PostgresRepository struct {
	db database.PgxDBTX
}

// NewPostgresRepository creates a new Repository backed by the given pgx handle.
func NewPostgresRepository(db database.PgxDBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new panel model record.
func (r *PostgresRepository) Create(ctx context.Context, np NewPanel) (Panel, error) {
	if np.ID == uuid.Nil {
		np.ID = uuid.New()
	}

	query := `
		INSERT INTO panel_models (id, owner_id, name, capacity, efficiency, manufacturer, type)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + panelColumns

	p, err := r.scanOne(ctx, query,
		np.ID, np.OwnerID, np.Name, np.Capacity, np.Efficiency, np.Manufacturer, np.Type,
	)
	if err != nil {
		return Panel{}, fmt.Errorf("inserting panel model: %w", err)
	}
	return p, nil
}

// Get retrieves a panel model owned by ownerID.
func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID, ownerID int64) (Panel, error) {
	query := `SELECT ` + panelColumns + ` FROM panel_models WHERE id = $1 AND owner_id = $2`
	return r.scanOne(ctx, query, id, ownerID)
}

// List retrieves the owner's panel models ordered by name.
func (r *PostgresRepository) List(ctx context.Context, ownerID int64, filter ListFilter) ([]Panel, error) {
	conditions := []string{"owner_id = $1"}
	args := []any{ownerID}
	argIdx := 2

	if filter.Manufacturer != nil {
		conditions = append(conditions, fmt.Sprintf("manufacturer = $%d", argIdx))
		args = append(args, *filter.Manufacturer)
		argIdx++
	}
	if filter.MinCapacity != nil {
		conditions = append(conditions, fmt.Sprintf("capacity >= $%d", argIdx))
		args = append(args, *filter.MinCapacity)
		argIdx++
	}
	if filter.MinEfficiency != nil {
		conditions = append(conditions, fmt.Sprintf("efficiency >= $%d", argIdx))
		args = append(args, *filter.MinEfficiency)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM panel_models
		WHERE %s
		ORDER BY name ASC, created_at ASC`, panelColumns, strings.Join(conditions, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
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

// Update modifies the set fields of an owned panel model in one statement.
func (r *PostgresRepository) Update(ctx context.Context, id uuid.UUID, ownerID int64, fields UpdateFields) (Panel, error) {
	var setClauses []string
	var args []any
	argIdx := 1

	add := func(column string, value any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
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

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, id, ownerID)

	query := fmt.Sprintf(`
		UPDATE panel_models
		SET %s
		WHERE id = $%d AND owner_id = $%d
		RETURNING `+panelColumns,
		strings.Join(setClauses, ", "), argIdx, argIdx+1)

	return r.scanOne(ctx, query, args...)
}

// Delete removes an owned panel model.
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID, ownerID int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM panel_models WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("deleting panel model: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// scanOne scans a single Panel row from a query. Returns ErrNotFound if no rows.
func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (Panel, error) {
	var p Panel
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&p.ID, &p.OwnerID, &p.Name, &p.Capacity, &p.Efficiency,
		&p.Manufacturer, &p.Type, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Panel{}, ErrNotFound
		}
		return Panel{}, fmt.Errorf("scanning panel model row: %w", err)
	}
	return p, nil
}
