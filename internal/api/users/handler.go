package users

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ashen-heron/trackd/internal/api/auth"
	"github.com/ashen-heron/trackd/internal/api/middleware"
	"github.com/ashen-heron/trackd/internal/models"
	"github.com/ashen-heron/trackd/internal/storage"
)

// Error codes
const (
	errCodeBadRequest       = "BAD_REQUEST"
	errCodeValidationFailed = "VALIDATION_FAILED"
	errCodeNotFound         = "NOT_FOUND"
	errCodeConflict         = "CONFLICT"
	errCodeInternalError    = "INTERNAL_ERROR"
)

// Response helpers (local to avoid import cycle)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func jsonError(w http.ResponseWriter, status int, code, message string) {
	type errorBody struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	writeJSON(w, status, map[string]errorBody{"error": {Code: code, Message: message}})
}

func jsonData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{"data": data})
}

// Handler handles user management endpoints.
type Handler struct {
	storage storage.Storage
}

// NewHandler creates a new user handler.
func NewHandler(store storage.Storage) *Handler {
	return &Handler{storage: store}
}

// serverError logs the cause and writes an opaque 500.
func serverError(w http.ResponseWriter, op string, err error) {
	log.Printf("users: %s: %v", op, err)
	jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
}

// UserResponse is a user without sensitive fields.
type UserResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func userToResponse(u *models.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
		UpdatedAt: u.UpdatedAt.Format(time.RFC3339),
	}
}

// CreateRequest is the request body for creating a user.
type CreateRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateRequest is the request body for updating a user.
type UpdateRequest struct {
	Email string `json:"email,omitempty"`
}

// ChangePasswordRequest is the request body for changing password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// List returns all users. Any authenticated user may list users; the list
// backs the assignee picker.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.storage.Users().List(r.Context())
	if err != nil {
		serverError(w, "list", err)
		return
	}

	resp := make([]*UserResponse, len(users))
	for i, u := range users {
		resp[i] = userToResponse(u)
	}
	jsonData(w, http.StatusOK, resp)
}

// Create creates a new user.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}

	for _, check := range []error{
		ValidateUsername(req.Username),
		ValidateEmail(req.Email),
		auth.ValidatePasswordOrError(req.Password),
	} {
		if check != nil {
			jsonError(w, http.StatusBadRequest, errCodeValidationFailed, check.Error())
			return
		}
	}

	ctx := r.Context()
	if taken, err := h.usernameTaken(ctx, req.Username); err != nil {
		serverError(w, "create: check username", err)
		return
	} else if taken {
		jsonError(w, http.StatusConflict, errCodeConflict, "username already exists")
		return
	}
	if owner, err := h.emailOwner(ctx, req.Email); err != nil {
		serverError(w, "create: check email", err)
		return
	} else if owner != "" {
		jsonError(w, http.StatusConflict, errCodeConflict, "email already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		serverError(w, "create: hash password", err)
		return
	}

	user := models.NewUser(strings.TrimSpace(req.Username), strings.TrimSpace(req.Email))
	user.ID = uuid.New().String()
	user.PasswordHash = string(hash)

	if err := h.storage.Users().Create(ctx, user); err != nil {
		serverError(w, "create", err)
		return
	}

	log.Printf("user created: %s (%s)", user.Username, user.ID)
	jsonData(w, http.StatusCreated, userToResponse(user))
}

// GetByID returns a user by ID.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	user := h.loadUser(w, r, chi.URLParam(r, "id"))
	if user == nil {
		return
	}
	jsonData(w, http.StatusOK, userToResponse(user))
}

// Update updates a user's email.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}

	user := h.loadUser(w, r, chi.URLParam(r, "id"))
	if user == nil {
		return
	}

	ctx := r.Context()
	if req.Email != "" {
		if err := ValidateEmail(req.Email); err != nil {
			jsonError(w, http.StatusBadRequest, errCodeValidationFailed, err.Error())
			return
		}
		owner, err := h.emailOwner(ctx, req.Email)
		if err != nil {
			serverError(w, "update: check email", err)
			return
		}
		if owner != "" && owner != user.ID {
			jsonError(w, http.StatusConflict, errCodeConflict, "email already exists")
			return
		}
		user.Email = strings.TrimSpace(req.Email)
	}

	user.UpdatedAt = time.Now()
	if err := h.storage.Users().Update(ctx, user); err != nil {
		serverError(w, "update", err)
		return
	}

	log.Printf("user updated: %s (%s)", user.Username, user.ID)
	jsonData(w, http.StatusOK, userToResponse(user))
}

// Delete deletes a user. Self-deletion is rejected so an authenticated
// client cannot strand its own tokens.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	ctx := r.Context()

	if userID != "" && userID == middleware.GetUserID(ctx) {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "cannot delete own account")
		return
	}

	user := h.loadUser(w, r, userID)
	if user == nil {
		return
	}

	if err := h.storage.Users().Delete(ctx, userID); err != nil {
		serverError(w, "delete", err)
		return
	}

	log.Printf("user deleted: %s (%s)", user.Username, user.ID)
	w.WriteHeader(http.StatusNoContent)
}

// GetCurrentUser returns the current authenticated user.
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user := h.loadUser(w, r, middleware.GetUserID(r.Context()))
	if user == nil {
		return
	}
	jsonData(w, http.StatusOK, userToResponse(user))
}

// ChangePassword changes the current user's password and revokes their
// refresh tokens.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}

	if req.CurrentPassword == "" {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, "current_password is required")
		return
	}
	if err := auth.ValidatePasswordOrError(req.NewPassword); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, err.Error())
		return
	}

	ctx := r.Context()
	user := h.loadUser(w, r, middleware.GetUserID(ctx))
	if user == nil {
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, "current password is incorrect")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		serverError(w, "change password: hash", err)
		return
	}

	user.PasswordHash = string(hash)
	user.UpdatedAt = time.Now()
	if err := h.storage.Users().Update(ctx, user); err != nil {
		serverError(w, "change password", err)
		return
	}

	// Force re-login on other devices. Password change already succeeded,
	// so a revoke failure is only logged.
	if err := h.storage.Tokens().RevokeAllForUser(ctx, user.ID); err != nil {
		log.Printf("users: change password: revoke tokens: %v", err)
	}

	log.Printf("password changed: user %s", user.Username)
	w.WriteHeader(http.StatusNoContent)
}

// loadUser fetches a user by id, writing the error response on failure.
func (h *Handler) loadUser(w http.ResponseWriter, r *http.Request, id string) *models.User {
	if id == "" {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "user id required")
		return nil
	}
	user, err := h.storage.Users().GetByID(r.Context(), id)
	if err != nil {
		serverError(w, "get user", err)
		return nil
	}
	if user == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "user not found")
		return nil
	}
	return user
}

// usernameTaken reports whether a username is already registered.
func (h *Handler) usernameTaken(ctx context.Context, username string) (bool, error) {
	existing, err := h.storage.Users().GetByUsername(ctx, username)
	return existing != nil, err
}

// emailOwner returns the id of the user holding an email, or "".
func (h *Handler) emailOwner(ctx context.Context, email string) (string, error) {
	existing, err := h.storage.Users().GetByEmail(ctx, email)
	if existing == nil {
		return "", err
	}
	return existing.ID, err
}
