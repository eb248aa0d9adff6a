package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/solarview/solarview/internal/database"
)

const userColumns = `id, email, password_hash, api_key, is_active, is_admin, created_at, updated_at`

// PostgresRepository implements Repository on a pool or an open transaction.
type PostgresRepository struct {
	db database.PgxDBTX
}

// NewPostgresRepository creates a new Repository backed by the given pgx handle.
func NewPostgresRepository(db database.PgxDBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user record.
func (r *PostgresRepository) Create(ctx context.Context, nu NewUser) (User, error) {
	query := `
		INSERT INTO users (email, password_hash, api_key, is_active, is_admin)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns

	u, err := r.scanOne(ctx, query, nu.Email, nu.PasswordHash, nu.APIKey, nu.IsActive, nu.IsAdmin)
	if err != nil {
		return User{}, mapPgError(err, "inserting user")
	}
	return u, nil
}

// GetByID retrieves a single user by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (User, error) {
	return r.scanOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail retrieves a single user by email.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.scanOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// GetByAPIKey retrieves the user holding the exact API key.
func (r *PostgresRepository) GetByAPIKey(ctx context.Context, key string) (User, error) {
	return r.scanOne(ctx, `SELECT `+userColumns+` FROM users WHERE api_key = $1`, key)
}

// List retrieves a page of users in insertion order.
func (r *PostgresRepository) List(ctx context.Context, skip, limit int) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id ASC LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		var u User
		if err := rows.Scan(
			&u.ID, &u.Email, &u.PasswordHash, &u.APIKey,
			&u.IsActive, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user rows: %w", err)
	}

	return users, nil
}

// Update modifies the set fields of a user and bumps updated_at.
func (r *PostgresRepository) Update(ctx context.Context, id int64, fields UpdateFields) (User, error) {
	var setClauses []string
	var args []any
	argIdx := 1

	add := func(column string, value any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if fields.Email != nil {
		add("email", *fields.Email)
	}
	if fields.PasswordHash != nil {
		add("password_hash", *fields.PasswordHash)
	}
	if fields.APIKey != nil {
		add("api_key", *fields.APIKey)
	}
	if fields.IsActive != nil {
		add("is_active", *fields.IsActive)
	}
	if fields.IsAdmin != nil {
		add("is_admin", *fields.IsAdmin)
	}

	if len(setClauses) == 0 {
		return r.GetByID(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE users
		SET %s
		WHERE id = $%d
		RETURNING `+userColumns,
		strings.Join(setClauses, ", "), argIdx)

	u, err := r.scanOne(ctx, query, args...)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, err
		}
		return User{}, mapPgError(err, "updating user")
	}
	return u, nil
}

// Delete removes a user. Panel models owned by the user are removed by the
// ON DELETE CASCADE foreign key.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Count returns the total number of users.
func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

// CountAdmins returns the number of admin accounts.
func (r *PostgresRepository) CountAdmins(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM users WHERE is_admin").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting admins: %w", err)
	}
	return count, nil
}

// scanOne scans a single User row from a query. Returns ErrNotFound if no rows.
func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (User, error) {
	var u User
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.APIKey,
		&u.IsActive, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("scanning user row: %w", err)
	}
	return u, nil
}

// mapPgError converts unique violations into the package's sentinel errors.
func mapPgError(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case "users_email_key":
			return ErrDuplicateEmail
		case "users_api_key_key":
			return ErrDuplicateAPIKey
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
