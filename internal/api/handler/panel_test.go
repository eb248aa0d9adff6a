package handler_test

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarview/solarview/internal/api/handler"
	"github.com/solarview/solarview/internal/user"
)

var panelABody = map[string]any{
	"name":         "Panel A",
	"capacity":     0.3,
	"efficiency":   18.5,
	"manufacturer": "SolarTech",
	"type":         "Monocristalino",
}

func createPanel(t *testing.T, h *handler.PanelHandler, actor user.User, body map[string]any) (int, map[string]interface{}) {
	t.Helper()
	req, w := makeChiRequest(http.MethodPost, "/api/panel-models", mustJSON(t, body), "/api/panel-models", nil)
	h.Create(w, as(req, actor))
	return w.Code, parseEnvelope(t, w)
}

func getPanel(t *testing.T, h *handler.PanelHandler, actor user.User, id string) int {
	t.Helper()
	req, w := makeChiRequest(http.MethodGet, "/api/panel-models/"+id, nil, "/api/panel-models/{id}", map[string]string{"id": id})
	h.Get(w, as(req, actor))
	return w.Code
}

func TestPanelCreate_OwnershipScenario(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	h := handler.NewPanelHandler(f.catalog)

	code, env := createPanel(t, h, f.admin, panelABody)
	require.Equal(t, http.StatusCreated, code)

	data := env["data"].(map[string]interface{})
	id := data["id"].(string)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, "Panel A", data["name"])
	assert.Equal(t, float64(f.admin.ID), data["ownerId"])

	assert.Equal(t, http.StatusNotFound, getPanel(t, h, f.regular, id))
	assert.Equal(t, http.StatusOK, getPanel(t, h, f.admin, id))
}

func TestPanelCreate_Rejections(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	h := handler.NewPanelHandler(f.catalog)

	code, _ := createPanel(t, h, f.regular, panelABody)
	assert.Equal(t, http.StatusForbidden, code)

	bad := map[string]any{"name": "Panel A", "capacity": 0, "efficiency": 120, "manufacturer": "X", "type": "Y"}
	code, env := createPanel(t, h, f.admin, bad)
	require.Equal(t, http.StatusBadRequest, code)
	e := env["error"].(map[string]interface{})
	assert.Equal(t, "VALIDATION_ERROR", e["code"])
	assert.Len(t, e["details"], 2)
}

func TestPanelList_FiltersAndScope(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	h := handler.NewPanelHandler(f.catalog)

	for _, body := range []map[string]any{
		panelABody,
		{"name": "Panel B", "capacity": 0.45, "efficiency": 21.0, "manufacturer": "SunCo", "type": "Mono"},
	} {
		code, _ := createPanel(t, h, f.admin, body)
		require.Equal(t, http.StatusCreated, code)
	}

	req, w := makeChiRequest(http.MethodGet, "/api/panel-models?min_efficiency=20", nil, "/api/panel-models", nil)
	h.List(w, as(req, f.admin))
	require.Equal(t, http.StatusOK, w.Code)
	env := parseEnvelope(t, w)
	items := env["data"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "Panel B", items[0].(map[string]interface{})["name"])
	meta := env["meta"].(map[string]interface{})
	assert.Equal(t, float64(1), meta["total"])
	assert.NotContains(t, meta, "limit")

	req, w = makeChiRequest(http.MethodGet, "/api/panel-models", nil, "/api/panel-models", nil)
	h.List(w, as(req, f.regular))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, parseEnvelope(t, w)["data"])

	req, w = makeChiRequest(http.MethodGet, "/api/panel-models?min_capacity=lots", nil, "/api/panel-models", nil)
	h.List(w, as(req, f.admin))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_PARAM", errorOf(t, w)["code"])
}

func TestPanelList_RejectsNonFiniteFilters(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	h := handler.NewPanelHandler(f.catalog)

	code, _ := createPanel(t, h, f.admin, panelABody)
	require.Equal(t, http.StatusCreated, code)

	for _, q := range []string{
		"min_capacity=NaN",
		"min_capacity=Inf",
		"min_efficiency=-Inf",
		"min_efficiency=nan",
		"min_capacity=1e400",
	} {
		t.Run(q, func(t *testing.T) {
			req, w := makeChiRequest(http.MethodGet, "/api/panel-models?"+q, nil, "/api/panel-models", nil)
			h.List(w, as(req, f.admin))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "INVALID_PARAM", errorOf(t, w)["code"])
		})
	}
}

func TestPanelUpdate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	h := handler.NewPanelHandler(f.catalog)

	_, env := createPanel(t, h, f.admin, panelABody)
	id := env["data"].(map[string]interface{})["id"].(string)
	params := map[string]string{"id": id}

	req, w := makeChiRequest(http.MethodPut, "/api/panel-models/"+id, mustJSON(t, map[string]any{"efficiency": 19.2}), "/api/panel-models/{id}", params)
	h.Update(w, as(req, f.admin))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := dataOf(t, w)
	assert.Equal(t, 19.2, data["efficiency"])
	assert.Equal(t, "Panel A", data["name"])

	req, w = makeChiRequest(http.MethodPut, "/api/panel-models/"+id, []byte("{}"), "/api/panel-models/{id}", params)
	h.Update(w, as(req, f.admin))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req, w = makeChiRequest(http.MethodPut, "/api/panel-models/"+id, mustJSON(t, map[string]any{"name": "X"}), "/api/panel-models/{id}", params)
	h.Update(w, as(req, f.regular))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPanelDelete(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	h := handler.NewPanelHandler(f.catalog)

	_, env := createPanel(t, h, f.admin, panelABody)
	id := env["data"].(map[string]interface{})["id"].(string)
	params := map[string]string{"id": id}

	req, w := makeChiRequest(http.MethodDelete, "/api/panel-models/"+id, nil, "/api/panel-models/{id}", params)
	h.Delete(w, as(req, f.regular))
	assert.Equal(t, http.StatusForbidden, w.Code)

	req, w = makeChiRequest(http.MethodDelete, "/api/panel-models/"+id, nil, "/api/panel-models/{id}", params)
	h.Delete(w, as(req, f.admin))
	assert.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, http.StatusNotFound, getPanel(t, h, f.admin, id))
}

func TestPanelGet_InvalidID(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	h := handler.NewPanelHandler(f.catalog)

	assert.Equal(t, http.StatusBadRequest, getPanel(t, h, f.admin, "not-a-uuid"))
	assert.Equal(t, http.StatusNotFound, getPanel(t, h, f.admin, uuid.New().String()))
}
