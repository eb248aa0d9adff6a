package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/solarview/solarview/internal/api/middleware"
	"github.com/solarview/solarview/internal/api/response"
)

// StorePinger checks connectivity to the backing store.
type StorePinger interface {
	Ping(ctx context.Context) error
	Backend() string
}

// HealthHandler handles the GET /health endpoint.
type HealthHandler struct {
	store   StorePinger
	version string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(store StorePinger, version string) *HealthHandler {
	return &HealthHandler{
		store:   store,
		version: version,
	}
}

type storageStatus struct {
	Backend   string `json:"backend"`
	Connected bool   `json:"connected"`
}

type healthData struct {
	Status  string        `json:"status"`
	Version string        `json:"version"`
	Storage storageStatus `json:"storage"`
}

// ServeHTTP handles the health check request.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	status := "healthy"
	connected := true
	if err := h.store.Ping(r.Context()); err != nil {
		slog.Warn("store ping failed", "error", err, "backend", h.store.Backend())
		status = "degraded"
		connected = false
	}

	response.Success(w, http.StatusOK, healthData{
		Status:  status,
		Version: h.version,
		Storage: storageStatus{
			Backend:   h.store.Backend(),
			Connected: connected,
		},
	}, requestID)
}
