package handler

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/solarview/solarview/internal/api/middleware"
	"github.com/solarview/solarview/internal/api/response"
	"github.com/solarview/solarview/internal/catalog"
	"github.com/solarview/solarview/internal/panel"
)

type createPanelRequest struct {
	Name         string  `json:"name"`
	Capacity     float64 `json:"capacity"`
	Efficiency   float64 `json:"efficiency"`
	Manufacturer string  `json:"manufacturer"`
	Type         string  `json:"type"`
}

type updatePanelRequest struct {
	Name         *string  `json:"name"`
	Capacity     *float64 `json:"capacity"`
	Efficiency   *float64 `json:"efficiency"`
	Manufacturer *string  `json:"manufacturer"`
	Type         *string  `json:"type"`
}

type panelResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Capacity     float64 `json:"capacity"`
	Efficiency   float64 `json:"efficiency"`
	Manufacturer string  `json:"manufacturer"`
	Type         string  `json:"type"`
	OwnerID      int64   `json:"ownerId"`
	CreatedAt    string  `json:"createdAt"`
	UpdatedAt    string  `json:"updatedAt"`
}

func toPanelResponse(p panel.Panel) panelResponse {
	return panelResponse{
		ID:           p.ID.String(),
		Name:         p.Name,
		Capacity:     p.Capacity,
		Efficiency:   p.Efficiency,
		Manufacturer: p.Manufacturer,
		Type:         p.Type,
		OwnerID:      p.OwnerID,
		CreatedAt:    p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// PanelHandler handles the panel model catalog endpoints.
type PanelHandler struct {
	catalog *catalog.Manager
}

// NewPanelHandler creates a new PanelHandler.
func NewPanelHandler(catalog *catalog.Manager) *PanelHandler {
	return &PanelHandler{catalog: catalog}
}

// Create handles POST /api/panel-models.
func (h *PanelHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, ok := identityOrAbort(w, r)
	if !ok {
		return
	}

	var req createPanelRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.catalog.Create(r.Context(), actor, catalog.CreateInput{
		Name:         req.Name,
		Capacity:     req.Capacity,
		Efficiency:   req.Efficiency,
		Manufacturer: req.Manufacturer,
		Type:         req.Type,
	})
	if err != nil {
		writeError(w, r, err, "Failed to create panel model")
		return
	}

	response.Success(w, http.StatusCreated, toPanelResponse(p), requestID)
}

// List handles GET /api/panel-models.
func (h *PanelHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, ok := identityOrAbort(w, r)
	if !ok {
		return
	}

	var filter panel.ListFilter
	q := r.URL.Query()

	if v := q.Get("manufacturer"); v != "" {
		filter.Manufacturer = &v
	}
	for _, param := range []struct {
		name string
		dst  **float64
	}{
		{"min_capacity", &filter.MinCapacity},
		{"min_efficiency", &filter.MinEfficiency},
	} {
		v := q.Get(param.name)
		if v == "" {
			continue
		}
		f, ok := parseFiniteFloat(v)
		if !ok {
			response.Err(w, http.StatusBadRequest, "INVALID_PARAM", param.name+" must be a finite number", requestID)
			return
		}
		*param.dst = &f
	}

	panels, err := h.catalog.List(r.Context(), actor, filter)
	if err != nil {
		writeError(w, r, err, "Failed to list panel models")
		return
	}

	items := make([]panelResponse, 0, len(panels))
	for _, p := range panels {
		items = append(items, toPanelResponse(p))
	}

	response.SuccessList(w, http.StatusOK, items, len(items), nil, requestID)
}

// Get handles GET /api/panel-models/{id}.
func (h *PanelHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, ok := identityOrAbort(w, r)
	if !ok {
		return
	}
	id, ok := parsePanelID(w, r)
	if !ok {
		return
	}

	p, err := h.catalog.Get(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err, "Failed to get panel model")
		return
	}

	response.Success(w, http.StatusOK, toPanelResponse(p), requestID)
}

// Update handles PUT /api/panel-models/{id}.
func (h *PanelHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, ok := identityOrAbort(w, r)
	if !ok {
		return
	}
	id, ok := parsePanelID(w, r)
	if !ok {
		return
	}

	var req updatePanelRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.catalog.Update(r.Context(), actor, id, panel.UpdateFields{
		Name:         req.Name,
		Capacity:     req.Capacity,
		Efficiency:   req.Efficiency,
		Manufacturer: req.Manufacturer,
		Type:         req.Type,
	})
	if err != nil {
		writeError(w, r, err, "Failed to update panel model")
		return
	}

	response.Success(w, http.StatusOK, toPanelResponse(p), requestID)
}

// Delete handles DELETE /api/panel-models/{id}.
func (h *PanelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := identityOrAbort(w, r)
	if !ok {
		return
	}
	id, ok := parsePanelID(w, r)
	if !ok {
		return
	}

	if err := h.catalog.Delete(r.Context(), actor, id); err != nil {
		writeError(w, r, err, "Failed to delete panel model")
		return
	}

	response.NoContent(w)
}

// parseFiniteFloat rejects NaN and the infinities, which strconv accepts.
func parseFiniteFloat(raw string) (float64, bool) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parsePanelID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", middleware.GetRequestID(r.Context()))
		return uuid.Nil, false
	}
	return id, true
}
