package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/solarview/solarview/internal/account"
	"github.com/solarview/solarview/internal/api/middleware"
	"github.com/solarview/solarview/internal/api/response"
	"github.com/solarview/solarview/internal/auth"
	"github.com/solarview/solarview/internal/user"
	"github.com/solarview/solarview/internal/validation"
)

// CredentialAuthenticator resolves an email and password pair to a user.
type CredentialAuthenticator interface {
	AuthenticateByCredentials(ctx context.Context, email, password string) (user.User, error)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthHandler handles login, identity and API key rotation endpoints.
type AuthHandler struct {
	authenticator CredentialAuthenticator
	accounts      *account.Manager
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authenticator CredentialAuthenticator, accounts *account.Manager) *AuthHandler {
	return &AuthHandler{authenticator: authenticator, accounts: accounts}
}

// Login handles POST /auth/login. The response carries the caller's current API key.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if fieldErrors := validation.ValidateLoginRequest(req.Email, req.Password); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	u, err := h.authenticator.AuthenticateByCredentials(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			response.Err(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Incorrect email or password", requestID)
			return
		}
		slog.Error("failed to authenticate credentials", "error", err, "requestId", requestID)
		captureException(r, err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to log in", requestID)
		return
	}

	response.Success(w, http.StatusOK, toUserWithKeyResponse(u), requestID)
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := identityOrAbort(w, r)
	if !ok {
		return
	}
	response.Success(w, http.StatusOK, toUserResponse(actor), middleware.GetRequestID(r.Context()))
}

// RotateKey handles POST /auth/rotate-key for the caller's own key.
func (h *AuthHandler) RotateKey(w http.ResponseWriter, r *http.Request) {
	actor, ok := identityOrAbort(w, r)
	if !ok {
		return
	}
	h.rotate(w, r, actor, actor.ID)
}

// AdminRotateKey handles POST /auth/admin/rotate-key/{user_id}.
func (h *AuthHandler) AdminRotateKey(w http.ResponseWriter, r *http.Request) {
	actor, ok := identityOrAbort(w, r)
	if !ok {
		return
	}
	id, ok := parseUserID(w, r, chi.URLParam(r, "user_id"))
	if !ok {
		return
	}
	h.rotate(w, r, actor, id)
}

func (h *AuthHandler) rotate(w http.ResponseWriter, r *http.Request, actor user.User, id int64) {
	u, err := h.accounts.RotateAPIKey(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err, "Failed to rotate API key")
		return
	}
	response.Success(w, http.StatusOK, toUserWithKeyResponse(u), middleware.GetRequestID(r.Context()))
}
