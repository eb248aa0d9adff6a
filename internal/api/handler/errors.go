package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/getsentry/sentry-go"

	"github.com/solarview/solarview/internal/account"
	"github.com/solarview/solarview/internal/api/middleware"
	"github.com/solarview/solarview/internal/api/response"
	"github.com/solarview/solarview/internal/auth"
	"github.com/solarview/solarview/internal/panel"
	"github.com/solarview/solarview/internal/pvgis"
	"github.com/solarview/solarview/internal/user"
	"github.com/solarview/solarview/internal/validation"
)

const maxBodyBytes = 1 << 20

// writeError maps a domain error onto the response envelope. Anything not in
// the taxonomy is logged, reported and answered with a 500 carrying fallback.
func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	requestID := middleware.GetRequestID(r.Context())

	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", verr.Fields, requestID)
	case errors.Is(err, account.ErrCurrentPasswordRequired):
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed",
			[]validation.FieldError{{Field: "currentPassword", Message: "currentPassword is required"}}, requestID)
	case errors.Is(err, account.ErrSelfDelete):
		response.Err(w, http.StatusForbidden, "FORBIDDEN", "Cannot delete your own account", requestID)
	case errors.Is(err, auth.ErrUnauthenticated):
		response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "API key is required", requestID)
	case errors.Is(err, auth.ErrInvalidCredentials):
		response.Err(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Incorrect password", requestID)
	case errors.Is(err, auth.ErrInactiveUser):
		response.Err(w, http.StatusUnauthorized, "INACTIVE_USER", "Inactive user", requestID)
	case errors.Is(err, auth.ErrForbidden):
		response.Err(w, http.StatusForbidden, "FORBIDDEN", "Not enough permissions", requestID)
	case errors.Is(err, user.ErrNotFound):
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "User not found", requestID)
	case errors.Is(err, panel.ErrNotFound):
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Panel model not found", requestID)
	case errors.Is(err, user.ErrDuplicateEmail):
		response.Err(w, http.StatusConflict, "DUPLICATE_EMAIL", "Email already registered", requestID)
	case errors.Is(err, pvgis.ErrTimeout):
		response.Err(w, http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT", "Estimation service timed out", requestID)
	case errors.Is(err, pvgis.ErrUpstream):
		slog.Warn("estimation service failed", "error", err, "requestId", requestID)
		response.Err(w, http.StatusBadGateway, "UPSTREAM_ERROR", "Estimation service returned an error", requestID)
	default:
		slog.Error(fallback, "error", err, "requestId", requestID)
		captureException(r, err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", fallback, requestID)
	}
}

func captureException(r *http.Request, err error) {
	hub := sentry.GetHubFromContext(r.Context())
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.CaptureException(err)
}

// decodeJSON reads a bounded JSON body into dst. It writes the 400 response
// itself and returns false when the body is not valid JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		requestID := middleware.GetRequestID(r.Context())
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return false
	}
	return true
}

// identityOrAbort returns the authenticated caller, answering 401 when the
// route was mounted without the Auth middleware.
func identityOrAbort(w http.ResponseWriter, r *http.Request) (user.User, bool) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "API key is required", middleware.GetRequestID(r.Context()))
		return user.User{}, false
	}
	return *identity, true
}

func parseUserID(w http.ResponseWriter, r *http.Request, raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a positive integer", middleware.GetRequestID(r.Context()))
		return 0, false
	}
	return id, true
}
