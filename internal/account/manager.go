// Package account enforces who may create, read, change and remove user
// accounts and their credentials.
package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/solarview/solarview/internal/auth"
	"github.com/solarview/solarview/internal/store"
	"github.com/solarview/solarview/internal/user"
	"github.com/solarview/solarview/internal/validation"
)

// ErrSelfDelete is returned when a caller tries to delete their own account.
var ErrSelfDelete = fmt.Errorf("cannot delete your own account: %w", auth.ErrForbidden)

// ErrCurrentPasswordRequired is returned when a self-service password change
// omits the current password.
var ErrCurrentPasswordRequired = fmt.Errorf("current password is required: %w", auth.ErrInvalidCredentials)

// maxKeyAttempts bounds retries after an API key collision.
const maxKeyAttempts = 3

// Manager implements the user account operations on top of a Store.
type Manager struct {
	store store.Store
	auth  *auth.Service
}

// NewManager creates a new account Manager.
func NewManager(st store.Store, authService *auth.Service) *Manager {
	return &Manager{store: st, auth: authService}
}

// CreateInput holds the fields accepted when creating a user.
type CreateInput struct {
	Email    string
	Password string
	IsActive *bool // defaults to true
	IsAdmin  bool
}

// UpdateInput holds the fields accepted when updating a user.
// Nil fields are left unchanged.
type UpdateInput struct {
	Email           *string
	Password        *string
	CurrentPassword *string
	IsActive        *bool
	IsAdmin         *bool
}

// Create adds a new user. Only admins may create users.
func (m *Manager) Create(ctx context.Context, actor user.User, in CreateInput) (user.User, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return user.User{}, err
	}

	if err := validation.AsError(validation.ValidateCreateUserRequest(validation.CreateUserRequest{
		Email:    in.Email,
		Password: in.Password,
	})); err != nil {
		return user.User{}, err
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	return m.insert(ctx, user.NormalizeEmail(in.Email), in.Password, active, in.IsAdmin)
}

// Get returns a user visible to actor: their own record, or any record for admins.
func (m *Manager) Get(ctx context.Context, actor user.User, id int64) (user.User, error) {
	if actor.ID != id && !actor.IsAdmin {
		return user.User{}, auth.ErrForbidden
	}
	return m.store.Users().GetByID(ctx, id)
}

// List returns a page of users with the total count. Non-admins only ever see
// their own record, whatever the paging parameters.
func (m *Manager) List(ctx context.Context, actor user.User, skip, limit int) ([]user.User, int, error) {
	if !actor.IsAdmin {
		self, err := m.store.Users().GetByID(ctx, actor.ID)
		if err != nil {
			return nil, 0, err
		}
		return []user.User{self}, 1, nil
	}

	users, err := m.store.Users().List(ctx, skip, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := m.store.Users().Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Update changes a user record. Callers may update themselves; admins may
// update anyone. Role and active flags are admin-only, and anyone changing
// their own password must prove the current one.
func (m *Manager) Update(ctx context.Context, actor user.User, id int64, in UpdateInput) (user.User, error) {
	if actor.ID != id && !actor.IsAdmin {
		return user.User{}, auth.ErrForbidden
	}
	if !actor.IsAdmin && (in.IsActive != nil || in.IsAdmin != nil) {
		return user.User{}, auth.ErrForbidden
	}

	if err := validation.AsError(validation.ValidateUpdateUserRequest(validation.UpdateUserRequest{
		Email:    in.Email,
		Password: in.Password,
	})); err != nil {
		return user.User{}, err
	}

	fields := user.UpdateFields{
		IsActive: in.IsActive,
		IsAdmin:  in.IsAdmin,
	}

	var updated user.User
	err := m.store.WithinTx(ctx, func(ctx context.Context, tx store.Store) error {
		target, err := tx.Users().GetByID(ctx, id)
		if err != nil {
			return err
		}

		if in.Email != nil {
			email := user.NormalizeEmail(*in.Email)
			if email != target.Email {
				if err := ensureEmailFree(ctx, tx, email); err != nil {
					return err
				}
				fields.Email = &email
			}
		}

		if in.Password != nil {
			if actor.ID == id {
				if err := m.verifyCurrent(target, in.CurrentPassword); err != nil {
					return err
				}
			}
			hash, err := m.auth.HashPassword(*in.Password)
			if err != nil {
				return err
			}
			fields.PasswordHash = &hash
		}

		updated, err = tx.Users().Update(ctx, id, fields)
		return err
	})
	if err != nil {
		return user.User{}, err
	}
	return updated, nil
}

// Delete removes a user and, through the store, every panel model they own.
// Only admins may delete, and never their own account.
func (m *Manager) Delete(ctx context.Context, actor user.User, id int64) error {
	if err := auth.RequireAdmin(actor); err != nil {
		return err
	}
	if id == actor.ID {
		return ErrSelfDelete
	}

	return m.store.WithinTx(ctx, func(ctx context.Context, tx store.Store) error {
		return tx.Users().Delete(ctx, id)
	})
}

// RotateAPIKey issues a new key for the user. The old key stops
// authenticating in the same write that stores the new one.
func (m *Manager) RotateAPIKey(ctx context.Context, actor user.User, id int64) (user.User, error) {
	if actor.ID != id && !actor.IsAdmin {
		return user.User{}, auth.ErrForbidden
	}

	var rotated user.User
	err := m.withFreshKey(ctx, func(ctx context.Context, tx store.Store, key string) error {
		var err error
		rotated, err = tx.Users().Update(ctx, id, user.UpdateFields{APIKey: &key})
		return err
	})
	if err != nil {
		return user.User{}, err
	}
	return rotated, nil
}

// ChangePassword replaces a user's password. Changing one's own password
// requires the current one; admins may reset anyone else's without it.
func (m *Manager) ChangePassword(ctx context.Context, actor user.User, id int64, current, next string) error {
	self := actor.ID == id
	if !self && !actor.IsAdmin {
		return auth.ErrForbidden
	}

	if err := validation.AsError(validation.ValidateNewPassword("newPassword", next)); err != nil {
		return err
	}

	return m.store.WithinTx(ctx, func(ctx context.Context, tx store.Store) error {
		target, err := tx.Users().GetByID(ctx, id)
		if err != nil {
			return err
		}

		if self {
			if err := m.verifyCurrent(target, &current); err != nil {
				return err
			}
		}

		hash, err := m.auth.HashPassword(next)
		if err != nil {
			return err
		}
		_, err = tx.Users().Update(ctx, id, user.UpdateFields{PasswordHash: &hash})
		return err
	})
}

// EnsureAdmin makes the account with email an active admin with the given
// password, creating it when absent. It reports whether a user was created.
func (m *Manager) EnsureAdmin(ctx context.Context, email, password string) (user.User, bool, error) {
	if err := validation.AsError(validation.ValidateCreateUserRequest(validation.CreateUserRequest{
		Email:    email,
		Password: password,
	})); err != nil {
		return user.User{}, false, err
	}
	email = user.NormalizeEmail(email)

	existing, err := m.store.Users().GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, user.ErrNotFound) {
		return user.User{}, false, fmt.Errorf("looking up admin: %w", err)
	}

	if err == nil {
		hash, err := m.auth.HashPassword(password)
		if err != nil {
			return user.User{}, false, err
		}
		yes := true
		promoted, err := m.store.Users().Update(ctx, existing.ID, user.UpdateFields{
			PasswordHash: &hash,
			IsActive:     &yes,
			IsAdmin:      &yes,
		})
		if err != nil {
			return user.User{}, false, fmt.Errorf("promoting admin: %w", err)
		}
		return promoted, false, nil
	}

	created, err := m.insert(ctx, email, password, true, true)
	if err != nil {
		return user.User{}, false, err
	}
	return created, true, nil
}

// BootstrapAdmin runs EnsureAdmin only when no admin exists yet. The zero
// User and false are returned when an admin is already present.
func (m *Manager) BootstrapAdmin(ctx context.Context, email, password string) (user.User, bool, error) {
	count, err := m.store.Users().CountAdmins(ctx)
	if err != nil {
		return user.User{}, false, fmt.Errorf("counting admins: %w", err)
	}
	if count > 0 {
		return user.User{}, false, nil
	}
	return m.EnsureAdmin(ctx, email, password)
}

// insert stores a new user with a hashed password and a fresh API key.
// email must already be normalized.
func (m *Manager) insert(ctx context.Context, email, password string, active, admin bool) (user.User, error) {
	hash, err := m.auth.HashPassword(password)
	if err != nil {
		return user.User{}, err
	}

	var created user.User
	err = m.withFreshKey(ctx, func(ctx context.Context, tx store.Store, key string) error {
		if err := ensureEmailFree(ctx, tx, email); err != nil {
			return err
		}
		var err error
		created, err = tx.Users().Create(ctx, user.NewUser{
			Email:        email,
			PasswordHash: hash,
			APIKey:       key,
			IsActive:     active,
			IsAdmin:      admin,
		})
		return err
	})
	if err != nil {
		return user.User{}, err
	}
	return created, nil
}

// withFreshKey runs fn in a transaction with a newly generated API key and
// starts over with another key if the store reports a collision. Each attempt
// gets its own transaction since a failed statement poisons a Postgres one.
func (m *Manager) withFreshKey(ctx context.Context, fn func(ctx context.Context, tx store.Store, key string) error) error {
	var err error
	for range maxKeyAttempts {
		var key string
		key, err = m.auth.GenerateAPIKey()
		if err != nil {
			return err
		}

		err = m.store.WithinTx(ctx, func(ctx context.Context, tx store.Store) error {
			return fn(ctx, tx, key)
		})
		if !errors.Is(err, user.ErrDuplicateAPIKey) {
			return err
		}
	}
	return err
}

func (m *Manager) verifyCurrent(target user.User, current *string) error {
	if current == nil || *current == "" {
		return ErrCurrentPasswordRequired
	}
	if !m.auth.VerifyPassword(target.PasswordHash, *current) {
		return auth.ErrInvalidCredentials
	}
	return nil
}

func ensureEmailFree(ctx context.Context, tx store.Store, email string) error {
	_, err := tx.Users().GetByEmail(ctx, email)
	switch {
	case err == nil:
		return user.ErrDuplicateEmail
	case errors.Is(err, user.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("checking email: %w", err)
	}
}
