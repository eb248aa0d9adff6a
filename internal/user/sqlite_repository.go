package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

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

// Create inserts a new user record.
func (r *SQLiteRepository) Create(ctx context.Context, nu NewUser) (User, error) {
	now := r.now()
	query := `
		INSERT INTO users (email, password_hash, api_key, is_active, is_admin, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query, nu.Email, nu.PasswordHash, nu.APIKey, nu.IsActive, nu.IsAdmin, now, now)
	if err != nil {
		return User{}, mapSQLiteError(err, "inserting user")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return User{}, fmt.Errorf("reading inserted user id: %w", err)
	}

	// Re-read through SELECT so the DATETIME columns decode into time.Time.
	return r.GetByID(ctx, id)
}

// GetByID retrieves a single user by id.
func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (User, error) {
	return r.scanOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetByEmail retrieves a single user by email.
func (r *SQLiteRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.scanOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

// GetByAPIKey retrieves the user holding the exact API key.
func (r *SQLiteRepository) GetByAPIKey(ctx context.Context, key string) (User, error) {
	return r.scanOne(ctx, `SELECT `+userColumns+` FROM users WHERE api_key = ?`, key)
}

// List retrieves a page of users in insertion order.
func (r *SQLiteRepository) List(ctx context.Context, skip, limit int) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id ASC LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, limit, skip)
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
func (r *SQLiteRepository) Update(ctx context.Context, id int64, fields UpdateFields) (User, error) {
	var setClauses []string
	var args []any

	add := func(column string, value any) {
		setClauses = append(setClauses, column+" = ?")
		args = append(args, value)
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

	add("updated_at", r.now())
	args = append(args, id)

	query := `UPDATE users SET ` + strings.Join(setClauses, ", ") + ` WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return User{}, mapSQLiteError(err, "updating user")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return User{}, fmt.Errorf("reading affected rows: %w", err)
	}
	if affected == 0 {
		return User{}, ErrNotFound
	}

	return r.GetByID(ctx, id)
}

// Delete removes a user; owned panel models cascade.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
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

// Count returns the total number of users.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

// CountAdmins returns the number of admin accounts.
func (r *SQLiteRepository) CountAdmins(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE is_admin = 1").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting admins: %w", err)
	}
	return count, nil
}

func (r *SQLiteRepository) scanOne(ctx context.Context, query string, args ...any) (User, error) {
	var u User
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.APIKey,
		&u.IsActive, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("scanning user row: %w", err)
	}
	return u, nil
}

// mapSQLiteError converts unique violations into the package's sentinel errors.
func mapSQLiteError(err error, op string) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		switch {
		case strings.Contains(sqliteErr.Error(), "users.email"):
			return ErrDuplicateEmail
		case strings.Contains(sqliteErr.Error(), "users.api_key"):
			return ErrDuplicateAPIKey
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
