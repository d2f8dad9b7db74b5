// Package projects provides project management API endpoints.
package projects

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ashen-heron/trackd/internal/api/middleware"
	"github.com/ashen-heron/trackd/internal/metrics"
	"github.com/ashen-heron/trackd/internal/models"
	"github.com/ashen-heron/trackd/internal/storage"
)

// Response helpers (local to avoid import cycle)
type errorResponse struct {
	Error errorBody `json:"error"`
}
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
type dataResponse struct {
	Data any `json:"data"`
}

const (
	errCodeBadRequest       = "BAD_REQUEST"
	errCodeValidationFailed = "VALIDATION_FAILED"
	errCodeNotFound         = "NOT_FOUND"
	errCodeInternalError    = "INTERNAL_ERROR"
)

func jsonError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: errorBody{Code: code, Message: message}})
}

func jsonOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(dataResponse{Data: data})
}

func jsonCreated(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(dataResponse{Data: data})
}

func jsonNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// ProjectResponse is the wire form of a project.
type ProjectResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedBy string `json:"created_by"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Handler handles project endpoints.
type Handler struct {
	storage storage.Storage
}

// NewHandler creates a new project handler.
func NewHandler(store storage.Storage) *Handler {
	return &Handler{storage: store}
}

// CreateRequest is the request body for creating a project.
type CreateRequest struct {
	Title string `json:"title"`
}

// UpdateRequest is the request body for updating a project.
type UpdateRequest struct {
	Title string `json:"title"`
}

// List returns all projects. Projects containing a ticket assigned to the
// calling user come first; both groups keep creation order.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	projects, err := h.storage.Projects().List(ctx)
	if err != nil {
		log.Printf("list projects error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	if userID := middleware.GetUserID(ctx); userID != "" {
		assigned, err := h.storage.Tickets().AssignedProjectIDs(ctx, userID)
		if err != nil {
			log.Printf("assigned project ids error: %v", err)
			jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
			return
		}

		mine := make([]*models.Project, 0, len(projects))
		rest := make([]*models.Project, 0, len(projects))
		for _, p := range projects {
			if assigned[p.ID] {
				mine = append(mine, p)
			} else {
				rest = append(rest, p)
			}
		}
		projects = append(mine, rest...)
	}

	resp := make([]*ProjectResponse, len(projects))
	for i, p := range projects {
		resp[i] = projectToResponse(p)
	}

	jsonOK(w, resp)
}

// Create creates a new project owned by the calling user.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}

	if err := ValidateTitle(req.Title); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, err.Error())
		return
	}

	ctx := r.Context()
	now := time.Now()

	project := &models.Project{
		ID:        uuid.New().String(),
		Title:     strings.TrimSpace(req.Title),
		CreatedBy: middleware.GetUserID(ctx),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.storage.Projects().Create(ctx, project); err != nil {
		log.Printf("create project error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	metrics.ProjectsCreatedTotal.Inc()
	log.Printf("project created: %s (%s)", project.Title, project.ID)

	jsonCreated(w, projectToResponse(project))
}

// GetByID returns a project by ID.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	project := h.load(w, r)
	if project == nil {
		return
	}

	jsonOK(w, projectToResponse(project))
}

// Update updates a project title and re-stamps created_by with the calling
// user, mirroring the web form semantics.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	project := h.load(w, r)
	if project == nil {
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}

	if err := ValidateTitle(req.Title); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, err.Error())
		return
	}

	ctx := r.Context()

	project.Title = strings.TrimSpace(req.Title)
	project.CreatedBy = middleware.GetUserID(ctx)
	project.UpdatedAt = time.Now()

	if err := h.storage.Projects().Update(ctx, project); err != nil {
		log.Printf("update project error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	log.Printf("project updated: %s (%s)", project.Title, project.ID)

	jsonOK(w, projectToResponse(project))
}

// Delete deletes a project and, via cascade, its tickets.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	project := h.load(w, r)
	if project == nil {
		return
	}

	if err := h.storage.Projects().Delete(r.Context(), project.ID); err != nil {
		log.Printf("delete project error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	log.Printf("project deleted: %s (%s)", project.Title, project.ID)

	jsonNoContent(w)
}

// load fetches the project named by the path, writing an error response and
// returning nil when it cannot.
func (h *Handler) load(w http.ResponseWriter, r *http.Request) *models.Project {
	projectID := chi.URLParam(r, "projectID")
	if projectID == "" {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "project id required")
		return nil
	}

	project, err := h.storage.Projects().GetByID(r.Context(), projectID)
	if err != nil {
		log.Printf("get project error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return nil
	}
	if project == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "project not found")
		return nil
	}
	return project
}

func projectToResponse(p *models.Project) *ProjectResponse {
	return &ProjectResponse{
		ID:        p.ID,
		Title:     p.Title,
		CreatedBy: p.CreatedBy,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.Format(time.RFC3339),
	}
}
