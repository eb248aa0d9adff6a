package user_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/solarview/solarview/internal/user"
)

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "alice@example.com", user.NormalizeEmail("  Alice@Example.COM "))
	assert.Equal(t, "", user.NormalizeEmail("   "))
}

func TestUpdateFields_Apply(t *testing.T) {
	t.Parallel()

	orig := user.User{ID: 7, Email: "a@example.com", PasswordHash: "h1", APIKey: "k1", IsActive: true}
	email := "b@example.com"
	admin := true

	got := user.UpdateFields{Email: &email, IsAdmin: &admin}.Apply(orig)

	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, "b@example.com", got.Email)
	assert.True(t, got.IsAdmin)
	assert.Equal(t, "h1", got.PasswordHash)
	assert.Equal(t, "k1", got.APIKey)
	assert.Equal(t, "a@example.com", orig.Email, "original value is not mutated")
}

func TestUpdateFields_IsEmpty(t *testing.T) {
	t.Parallel()

	active := false
	assert.True(t, user.UpdateFields{}.IsEmpty())
	assert.False(t, user.UpdateFields{IsActive: &active}.IsEmpty())
}
