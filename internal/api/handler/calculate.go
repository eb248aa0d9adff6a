package handler

import (
	"net/http"

	"github.com/solarview/solarview/internal/api/middleware"
	"github.com/solarview/solarview/internal/api/response"
	"github.com/solarview/solarview/internal/pvgis"
	"github.com/solarview/solarview/internal/validation"
)

type calculateRequest struct {
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
	PeakPower *float64 `json:"peakpower"`
	Loss      *float64 `json:"loss"`
}

// CalculateHandler forwards yield estimates to the estimation service.
type CalculateHandler struct {
	estimator pvgis.Estimator
}

// NewCalculateHandler creates a new CalculateHandler.
func NewCalculateHandler(estimator pvgis.Estimator) *CalculateHandler {
	return &CalculateHandler{estimator: estimator}
}

// ServeHTTP handles POST /calculate and relays the upstream JSON under data.
func (h *CalculateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req calculateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	fieldErrors := validation.ValidateCalculationRequest(validation.CalculationRequest{
		Lat:       req.Lat,
		Lon:       req.Lon,
		PeakPower: req.PeakPower,
		Loss:      req.Loss,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	result, err := h.estimator.Estimate(r.Context(), pvgis.Params{
		Lat:       *req.Lat,
		Lon:       *req.Lon,
		PeakPower: *req.PeakPower,
		Loss:      *req.Loss,
	})
	if err != nil {
		writeError(w, r, err, "Failed to calculate estimate")
		return
	}

	response.Success(w, http.StatusOK, result, requestID)
}
