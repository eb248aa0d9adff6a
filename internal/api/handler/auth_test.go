package handler_test

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarview/solarview/internal/account"
	"github.com/solarview/solarview/internal/api/handler"
	"github.com/solarview/solarview/internal/auth"
	"github.com/solarview/solarview/internal/user"
)

type mockCredentialAuthenticator struct {
	authFn func(ctx context.Context, email, password string) (user.User, error)
}

func (m *mockCredentialAuthenticator) AuthenticateByCredentials(ctx context.Context, email, password string) (user.User, error) {
	return m.authFn(ctx, email, password)
}

func login(t *testing.T, h *handler.AuthHandler, email, password string) (int, map[string]interface{}) {
	t.Helper()
	body := mustJSON(t, map[string]any{"email": email, "password": password})
	req, w := makeChiRequest(http.MethodPost, "/auth/login", body, "/auth/login", nil)
	h.Login(w, req)
	return w.Code, parseEnvelope(t, w)
}

func TestLogin_Success(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	h := handler.NewAuthHandler(f.auth, f.accounts)

	code, env := login(t, h, "USER@example.com", "User12345")
	require.Equal(t, http.StatusOK, code)

	data := env["data"].(map[string]interface{})
	assert.Equal(t, "user@example.com", data["email"])
	assert.Equal(t, f.regular.APIKey, data["apiKey"])
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	h := handler.NewAuthHandler(f.auth, f.accounts)

	inactive := false
	_, err := f.accounts.Update(context.Background(), f.admin, f.regular.ID, account.UpdateInput{IsActive: &inactive})
	require.NoError(t, err)

	cases := []struct{ email, password string }{
		{"admin@example.com", "Wrong1234"},
		{"nobody@example.com", "Admin1234"},
		{"user@example.com", "User12345"},
	}

	var messages []string
	for _, c := range cases {
		code, env := login(t, h, c.email, c.password)
		assert.Equal(t, http.StatusUnauthorized, code)
		e := env["error"].(map[string]interface{})
		assert.Equal(t, "INVALID_CREDENTIALS", e["code"])
		messages = append(messages, e["message"].(string))
	}

	assert.Equal(t, messages[0], messages[1])
	assert.Equal(t, messages[0], messages[2])
	assert.Equal(t, "Incorrect email or password", messages[0])
}

func TestLogin_MissingFields(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	h := handler.NewAuthHandler(f.auth, f.accounts)

	code, _ := login(t, h, "", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestLogin_StoreFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	h := handler.NewAuthHandler(&mockCredentialAuthenticator{
		authFn: func(context.Context, string, string) (user.User, error) {
			return user.User{}, errors.New("connection reset")
		},
	}, f.accounts)

	code, _ := login(t, h, "user@example.com", "User12345")
	assert.Equal(t, http.StatusInternalServerError, code)
}

func TestMe(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	h := handler.NewAuthHandler(f.auth, f.accounts)

	req, w := makeChiRequest(http.MethodGet, "/auth/me", nil, "/auth/me", nil)
	h.Me(w, as(req, f.regular))

	require.Equal(t, http.StatusOK, w.Code)
	data := dataOf(t, w)
	assert.Equal(t, "user@example.com", data["email"])
	assert.NotContains(t, data, "apiKey")
}

func TestRotateKey_Self(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	h := handler.NewAuthHandler(f.auth, f.accounts)

	req, w := makeChiRequest(http.MethodPost, "/auth/rotate-key", nil, "/auth/rotate-key", nil)
	h.RotateKey(w, as(req, f.regular))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	newKey := dataOf(t, w)["apiKey"].(string)
	assert.Len(t, newKey, auth.APIKeyLength)
	assert.NotEqual(t, f.regular.APIKey, newKey)

	_, err := f.auth.AuthenticateByAPIKey(context.Background(), f.regular.APIKey)
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = f.auth.AuthenticateByAPIKey(context.Background(), newKey)
	assert.NoError(t, err)
}

func TestAdminRotateKey(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	h := handler.NewAuthHandler(f.auth, f.accounts)
	id := strconv.FormatInt(f.regular.ID, 10)

	req, w := makeChiRequest(http.MethodPost, "/auth/admin/rotate-key/"+id, nil,
		"/auth/admin/rotate-key/{user_id}", map[string]string{"user_id": id})
	h.AdminRotateKey(w, as(req, f.admin))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEqual(t, f.regular.APIKey, dataOf(t, w)["apiKey"])

	req, w = makeChiRequest(http.MethodPost, "/auth/admin/rotate-key/9999", nil,
		"/auth/admin/rotate-key/{user_id}", map[string]string{"user_id": "9999"})
	h.AdminRotateKey(w, as(req, f.admin))
	assert.Equal(t, http.StatusNotFound, w.Code)

	req, w = makeChiRequest(http.MethodPost, "/auth/admin/rotate-key/x", nil,
		"/auth/admin/rotate-key/{user_id}", map[string]string{"user_id": "x"})
	h.AdminRotateKey(w, as(req, f.admin))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
