package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarview/solarview/internal/auth"
	"github.com/solarview/solarview/internal/config"
	"github.com/solarview/solarview/internal/store"
)

func useFileStore(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state", "solarview.json")
	t.Setenv("STORE_BACKEND", config.BackendFile)
	t.Setenv("STORE_FILE", path)
	t.Setenv("BCRYPT_COST", "4")
	return path
}

func TestRun_Usage(t *testing.T) {
	useFileStore(t)

	for _, args := range [][]string{
		nil,
		{"unknown"},
		{"create-admin"},
		{"create-admin", "-email", "root@example.com"},
		{"create-admin", "-bogus"},
	} {
		err := run(context.Background(), args, &bytes.Buffer{})
		assert.ErrorIs(t, err, errUsage, "args %v", args)
	}
}

func TestRun_CreateAdminThenPromote(t *testing.T) {
	path := useFileStore(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, run(ctx, []string{"create-admin", "-email", "Root@Example.com", "-password", "Root12345"}, &out))
	assert.Contains(t, out.String(), "admin root@example.com created")

	st, err := store.OpenFile(path)
	require.NoError(t, err)
	authService := auth.NewService(st.Users(), 4)
	u, err := authService.AuthenticateByCredentials(ctx, "root@example.com", "Root12345")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)
	assert.Contains(t, out.String(), "api key: "+u.APIKey)

	out.Reset()
	require.NoError(t, run(ctx, []string{"create-admin", "-email", "root@example.com", "-password", "Reset1234"}, &out))
	assert.True(t, strings.HasPrefix(out.String(), "admin root@example.com promoted"))

	st, err = store.OpenFile(path)
	require.NoError(t, err)
	_, err = auth.NewService(st.Users(), 4).AuthenticateByCredentials(ctx, "root@example.com", "Reset1234")
	assert.NoError(t, err)
}

func TestRun_CreateAdminRejectsWeakPassword(t *testing.T) {
	useFileStore(t)

	err := run(context.Background(), []string{"create-admin", "-email", "root@example.com", "-password", "weak"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, errUsage)
}

func TestRun_MigrateSQLite(t *testing.T) {
	t.Setenv("STORE_BACKEND", config.BackendSQLite)
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "solarview.db"))

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"migrate"}, &out))
	assert.Equal(t, "migrations applied (sqlite)\n", out.String())

	out.Reset()
	require.NoError(t, run(context.Background(), []string{"migrate"}, &out), "migrate is idempotent")
}

func TestRun_BadConfig(t *testing.T) {
	t.Setenv("STORE_BACKEND", "redis")

	err := run(context.Background(), []string{"migrate"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading configuration")
}
