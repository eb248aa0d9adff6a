package user

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a user record is not found.
var ErrNotFound = errors.New("user not found")

// ErrDuplicateEmail is returned when another user already has the email.
var ErrDuplicateEmail = errors.New("email already registered")

// ErrDuplicateAPIKey is returned when a generated API key collides with an existing one.
var ErrDuplicateAPIKey = errors.New("api key already in use")

// Repository provides operations on the users table.
type Repository interface {
	Create(ctx context.Context, nu NewUser) (User, error)
	GetByID(ctx context.Context, id int64) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByAPIKey(ctx context.Context, key string) (User, error)
	List(ctx context.Context, skip, limit int) ([]User, error)
	Update(ctx context.Context, id int64, fields UpdateFields) (User, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
	CountAdmins(ctx context.Context) (int, error)
}
