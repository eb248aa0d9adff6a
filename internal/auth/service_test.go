package auth_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarview/solarview/internal/auth"
	"github.com/solarview/solarview/internal/store"
	"github.com/solarview/solarview/internal/user"
)

const testBcryptCost = 4 // low cost for fast tests

var apiKeyPattern = regexp.MustCompile(`^[A-Za-z0-9]{32}$`)

func setupService(t *testing.T) (*auth.Service, store.Store) {
	t.Helper()
	st := store.NewMemory()
	return auth.NewService(st.Users(), testBcryptCost), st
}

func seedUser(t *testing.T, svc *auth.Service, st store.Store, email, password string, active bool) user.User {
	t.Helper()

	hash, err := svc.HashPassword(password)
	require.NoError(t, err)
	key, err := svc.GenerateAPIKey()
	require.NoError(t, err)

	u, err := st.Users().Create(context.Background(), user.NewUser{
		Email:        email,
		PasswordHash: hash,
		APIKey:       key,
		IsActive:     active,
	})
	require.NoError(t, err)
	return u
}

// --- Key and password material ---

func TestGenerateAPIKey_Format(t *testing.T) {
	t.Parallel()

	svc, _ := setupService(t)

	key, err := svc.GenerateAPIKey()
	require.NoError(t, err)
	assert.Len(t, key, auth.APIKeyLength)
	assert.Regexp(t, apiKeyPattern, key)
}

func TestGenerateAPIKey_Uniqueness(t *testing.T) {
	t.Parallel()

	svc, _ := setupService(t)

	seen := map[string]bool{}
	for range 50 {
		key, err := svc.GenerateAPIKey()
		require.NoError(t, err)
		assert.False(t, seen[key], "generated keys should be unique")
		seen[key] = true
	}
}

func TestHashPassword_Verify(t *testing.T) {
	t.Parallel()

	svc, _ := setupService(t)

	hash, err := svc.HashPassword("Secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret123", hash)
	assert.True(t, svc.VerifyPassword(hash, "Secret123"))
	assert.False(t, svc.VerifyPassword(hash, "secret123"))
	assert.False(t, svc.VerifyPassword("not-a-hash", "Secret123"))
}

// --- Credentials ---

func TestAuthenticateByCredentials_Success(t *testing.T) {
	t.Parallel()

	svc, st := setupService(t)
	u := seedUser(t, svc, st, "alice@example.com", "Secret123", true)

	got, err := svc.AuthenticateByCredentials(context.Background(), "  ALICE@example.com ", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, u.APIKey, got.APIKey)
}

func TestAuthenticateByCredentials_FailuresAreIndistinguishable(t *testing.T) {
	t.Parallel()

	svc, st := setupService(t)
	seedUser(t, svc, st, "alice@example.com", "Secret123", true)
	seedUser(t, svc, st, "frozen@example.com", "Secret123", false)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "nobody@example.com", "Secret123"},
		{"wrong password", "alice@example.com", "Wrong1234"},
		{"inactive user", "frozen@example.com", "Secret123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AuthenticateByCredentials(context.Background(), tt.email, tt.password)
			require.ErrorIs(t, err, auth.ErrInvalidCredentials)
			assert.Equal(t, "incorrect email or password", err.Error())
		})
	}
}

// --- API keys ---

func TestAuthenticateByAPIKey(t *testing.T) {
	t.Parallel()

	svc, st := setupService(t)
	active := seedUser(t, svc, st, "alice@example.com", "Secret123", true)
	inactive := seedUser(t, svc, st, "frozen@example.com", "Secret123", false)

	t.Run("active key", func(t *testing.T) {
		got, err := svc.AuthenticateByAPIKey(context.Background(), active.APIKey)
		require.NoError(t, err)
		assert.Equal(t, active.ID, got.ID)
	})

	t.Run("blank key", func(t *testing.T) {
		_, err := svc.AuthenticateByAPIKey(context.Background(), "   ")
		assert.ErrorIs(t, err, auth.ErrUnauthenticated)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := svc.AuthenticateByAPIKey(context.Background(), "ABCDEFGHIJKLMNOPQRSTUVWXYZ012345")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("inactive user", func(t *testing.T) {
		_, err := svc.AuthenticateByAPIKey(context.Background(), inactive.APIKey)
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})
}

// --- Gates ---

func TestRequireActive(t *testing.T) {
	t.Parallel()
	assert.NoError(t, auth.RequireActive(user.User{IsActive: true}))
	assert.ErrorIs(t, auth.RequireActive(user.User{IsActive: false}), auth.ErrInactiveUser)
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()
	assert.NoError(t, auth.RequireAdmin(user.User{IsAdmin: true}))
	assert.ErrorIs(t, auth.RequireAdmin(user.User{IsAdmin: false}), auth.ErrForbidden)
}
