package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"sigs.k8s.io/yaml"

	"github.com/solarview/solarview/internal/api/middleware"
	"github.com/solarview/solarview/internal/api/response"
)

// OpenAPIHandler serves the OpenAPI document as JSON with info.version set
// to the running build.
type OpenAPIHandler struct {
	rawYAML  []byte
	version  string
	jsonOnce sync.Once
	jsonSpec []byte
	jsonErr  error
}

// NewOpenAPIHandler creates a handler that renders the YAML document on first request.
func NewOpenAPIHandler(yamlSpec []byte, version string) *OpenAPIHandler {
	return &OpenAPIHandler{rawYAML: yamlSpec, version: version}
}

// ServeHTTP writes the cached JSON rendering of the document.
func (h *OpenAPIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.jsonOnce.Do(func() {
		h.jsonSpec, h.jsonErr = h.render()
	})

	if h.jsonErr != nil {
		slog.Error("failed to render OpenAPI document", "error", h.jsonErr)
		requestID := middleware.GetRequestID(r.Context())
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to render OpenAPI document", requestID)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(h.jsonSpec); err != nil {
		slog.Error("failed to write OpenAPI response", "error", err)
	}
}

func (h *OpenAPIHandler) render() ([]byte, error) {
	raw, err := yaml.YAMLToJSON(h.rawYAML)
	if err != nil {
		return nil, err
	}
	if h.version == "" {
		return raw, nil
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	info, _ := doc["info"].(map[string]any)
	if info == nil {
		info = map[string]any{}
	}
	info["version"] = h.version
	doc["info"] = info
	return json.Marshal(doc)
}
