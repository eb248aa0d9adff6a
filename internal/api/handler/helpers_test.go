package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/solarview/solarview/internal/account"
	"github.com/solarview/solarview/internal/api/middleware"
	"github.com/solarview/solarview/internal/auth"
	"github.com/solarview/solarview/internal/catalog"
	"github.com/solarview/solarview/internal/store"
	"github.com/solarview/solarview/internal/user"
)

const testBcryptCost = 4

type fixture struct {
	store    store.Store
	auth     *auth.Service
	accounts *account.Manager
	catalog  *catalog.Manager
	admin    user.User
	regular  user.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	st := store.NewMemory()
	authService := auth.NewService(st.Users(), testBcryptCost)
	accounts := account.NewManager(st, authService)

	admin, _, err := accounts.EnsureAdmin(ctx, "admin@example.com", "Admin1234")
	require.NoError(t, err)
	regular, err := accounts.Create(ctx, admin, account.CreateInput{Email: "user@example.com", Password: "User12345"})
	require.NoError(t, err)

	return &fixture{
		store:    st,
		auth:     authService,
		accounts: accounts,
		catalog:  catalog.NewManager(st),
		admin:    admin,
		regular:  regular,
	}
}

func makeChiRequest(method, path string, body []byte, routePattern string, params map[string]string) (*http.Request, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()

	rctx := chi.NewRouteContext()
	rctx.RoutePatterns = append(rctx.RoutePatterns, routePattern)
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	return req, w
}

func as(req *http.Request, u user.User) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), &u))
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func parseEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var env map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &env)
	require.NoError(t, err, "failed to parse response body")
	return env
}

func dataOf(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	data, ok := parseEnvelope(t, w)["data"].(map[string]interface{})
	require.True(t, ok, "data is not an object: %s", w.Body.String())
	return data
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	e, ok := parseEnvelope(t, w)["error"].(map[string]interface{})
	require.True(t, ok, "error is not an object: %s", w.Body.String())
	return e
}
