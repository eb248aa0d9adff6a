package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/solarview/solarview/internal/account"
	"github.com/solarview/solarview/internal/api/middleware"
	"github.com/solarview/solarview/internal/api/response"
	"github.com/solarview/solarview/internal/user"
)

const (
	defaultUserLimit = 100
	maxUserLimit     = 100
)

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	IsActive *bool  `json:"isActive"`
	IsAdmin  bool   `json:"isAdmin"`
}

type updateUserRequest struct {
	Email           *string `json:"email"`
	Password        *string `json:"password"`
	CurrentPassword *string `json:"currentPassword"`
	IsActive        *bool   `json:"isActive"`
	IsAdmin         *bool   `json:"isAdmin"`
}

type changePasswordRequest struct {
	UserID          *int64 `json:"userId"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type userResponse struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	IsActive  bool   `json:"isActive"`
	IsAdmin   bool   `json:"isAdmin"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type userWithKeyResponse struct {
	userResponse
	APIKey string `json:"apiKey"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func toUserResponse(u user.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		IsActive:  u.IsActive,
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: u.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toUserWithKeyResponse(u user.User) userWithKeyResponse {
	return userWithKeyResponse{userResponse: toUserResponse(u), APIKey: u.APIKey}
}

// UserHandler handles user account endpoints.
type UserHandler struct {
	accounts *account.Manager
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(accounts *account.Manager) *UserHandler {
	return &UserHandler{accounts: accounts}
}

// Create handles POST /users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, ok := identityOrAbort(w, r)
	if !ok {
		return
	}

	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.accounts.Create(r.Context(), actor, account.CreateInput{
		Email:    req.Email,
		Password: req.Password,
		IsActive: req.IsActive,
		IsAdmin:  req.IsAdmin,
	})
	if err != nil {
		writeError(w, r, err, "Failed to create user")
		return
	}

	response.Success(w, http.StatusCreated, toUserResponse(u), requestID)
}

// List handles GET /users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, ok := identityOrAbort(w, r)
	if !ok {
		return
	}

	skip, limit := 0, defaultUserLimit
	q := r.URL.Query()
	if v := q.Get("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			response.Err(w, http.StatusBadRequest, "INVALID_PARAM", "skip must be a non-negative integer", requestID)
			return
		}
		skip = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxUserLimit {
			response.Err(w, http.StatusBadRequest, "INVALID_PARAM", "limit must be an integer between 1 and 100", requestID)
			return
		}
		limit = n
	}

	users, total, err := h.accounts.List(r.Context(), actor, skip, limit)
	if err != nil {
		writeError(w, r, err, "Failed to list users")
		return
	}

	items := make([]userResponse, 0, len(users))
	for _, u := range users {
		items = append(items, toUserResponse(u))
	}

	response.SuccessList(w, http.StatusOK, items, total, &response.Page{Skip: skip, Limit: limit}, requestID)
}

// Get handles GET /users/{id}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, ok := identityOrAbort(w, r)
	if !ok {
		return
	}
	id, ok := parseUserID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	u, err := h.accounts.Get(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err, "Failed to get user")
		return
	}

	response.Success(w, http.StatusOK, toUserResponse(u), requestID)
}

// Update handles PUT /users/{id}.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, ok := identityOrAbort(w, r)
	if !ok {
		return
	}
	id, ok := parseUserID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req updateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.accounts.Update(r.Context(), actor, id, account.UpdateInput{
		Email:           req.Email,
		Password:        req.Password,
		CurrentPassword: req.CurrentPassword,
		IsActive:        req.IsActive,
		IsAdmin:         req.IsAdmin,
	})
	if err != nil {
		writeError(w, r, err, "Failed to update user")
		return
	}

	response.Success(w, http.StatusOK, toUserResponse(u), requestID)
}

// Delete handles DELETE /users/{id}.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := identityOrAbort(w, r)
	if !ok {
		return
	}
	id, ok := parseUserID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.accounts.Delete(r.Context(), actor, id); err != nil {
		writeError(w, r, err, "Failed to delete user")
		return
	}

	response.NoContent(w)
}

// ChangePassword handles POST /users/change-password.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, ok := identityOrAbort(w, r)
	if !ok {
		return
	}

	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	target := actor.ID
	if req.UserID != nil {
		target = *req.UserID
	}

	if err := h.accounts.ChangePassword(r.Context(), actor, target, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, r, err, "Failed to change password")
		return
	}

	response.Success(w, http.StatusOK, messageResponse{Message: "Password updated successfully"}, requestID)
}
