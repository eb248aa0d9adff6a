package user

import (
	"strings"
	"time"
)

// User represents a row in the users table. Values are immutable snapshots;
// changes go through Repository.Update, which returns a fresh value.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	APIKey       string
	IsActive     bool
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser holds the fields needed to insert a user. The ID and timestamps are
// assigned by the store.
type NewUser struct {
	Email        string
	PasswordHash string
	APIKey       string
	IsActive     bool
	IsAdmin      bool
}

// UpdateFields holds updatable fields on a user record.
// Nil fields are not updated.
type UpdateFields struct {
	Email        *string
	PasswordHash *string
	APIKey       *string
	IsActive     *bool
	IsAdmin      *bool
}

// IsEmpty reports whether no field is set.
func (f UpdateFields) IsEmpty() bool {
	return f.Email == nil && f.PasswordHash == nil && f.APIKey == nil &&
		f.IsActive == nil && f.IsAdmin == nil
}

// Apply returns a copy of u with the set fields replaced.
func (f UpdateFields) Apply(u User) User {
	if f.Email != nil {
		u.Email = *f.Email
	}
	if f.PasswordHash != nil {
		u.PasswordHash = *f.PasswordHash
	}
	if f.APIKey != nil {
		u.APIKey = *f.APIKey
	}
	if f.IsActive != nil {
		u.IsActive = *f.IsActive
	}
	if f.IsAdmin != nil {
		u.IsAdmin = *f.IsAdmin
	}
	return u
}

// NormalizeEmail trims surrounding space and lower-cases an address so lookups
// and uniqueness checks are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
