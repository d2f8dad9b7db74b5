// Package tickets provides ticket management API endpoints.
package tickets

import (
	"encoding/json"
	"errors"
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

// AssigneeResponse is the wire form of a ticket assignee.
type AssigneeResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// TicketResponse is the wire form of a ticket.
type TicketResponse struct {
	ID          string              `json:"id"`
	ProjectID   string              `json:"project_id"`
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	CreatedBy   string              `json:"created_by"`
	CreatedAt   string              `json:"created_at"`
	Modified    string              `json:"modified"`
	Assignees   []*AssigneeResponse `json:"assignees"`
}

// Handler handles ticket endpoints.
type Handler struct {
	storage storage.Storage
}

// NewHandler creates a new ticket handler.
func NewHandler(store storage.Storage) *Handler {
	return &Handler{storage: store}
}

// CreateRequest is the request body for creating a ticket.
type CreateRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	AssigneeIDs []string `json:"assignee_ids"`
}

// UpdateRequest is the request body for updating a ticket.
type UpdateRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	AssigneeIDs []string `json:"assignee_ids"`
}

// ListByProject returns the tickets of the project named by the path.
func (h *Handler) ListByProject(w http.ResponseWriter, r *http.Request) {
	project := h.loadProject(w, r)
	if project == nil {
		return
	}

	tickets, err := h.storage.Tickets().ListByProject(r.Context(), project.ID)
	if err != nil {
		log.Printf("list tickets error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	resp := make([]*TicketResponse, len(tickets))
	for i, t := range tickets {
		resp[i] = ticketToResponse(t)
	}

	jsonOK(w, resp)
}

// ListMine returns the tickets assigned to the calling user, most recently
// modified first.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tickets, err := h.storage.Tickets().ListAssignedTo(ctx, middleware.GetUserID(ctx))
	if err != nil {
		log.Printf("list my tickets error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	resp := make([]*TicketResponse, len(tickets))
	for i, t := range tickets {
		resp[i] = ticketToResponse(t)
	}

	jsonOK(w, resp)
}

// Create creates a ticket in the project named by the path.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	project := h.loadProject(w, r)
	if project == nil {
		return
	}

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

	assignees, err := h.resolveAssignees(w, r, req.AssigneeIDs)
	if err != nil {
		return
	}

	ticket := models.NewTicket(project.ID, strings.TrimSpace(req.Title), strings.TrimSpace(req.Description), middleware.GetUserID(ctx))
	ticket.ID = uuid.New().String()
	ticket.Assignees = assignees

	if err := h.storage.Tickets().Create(ctx, ticket); err != nil {
		log.Printf("create ticket error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	metrics.TicketsCreatedTotal.Inc()
	log.Printf("ticket created: %s (%s) in project %s", ticket.Title, ticket.ID, project.ID)

	jsonCreated(w, ticketToResponse(ticket))
}

// GetByID returns a ticket in the project named by the path.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	project := h.loadProject(w, r)
	if project == nil {
		return
	}

	ticket := h.loadTicket(w, r, project)
	if ticket == nil {
		return
	}

	jsonOK(w, ticketToResponse(ticket))
}

// Update updates a ticket, re-stamping created_by with the calling user and
// refreshing the modified timestamp. The path project must be the ticket's
// own project; a ticket cannot be moved between projects.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	project := h.loadProject(w, r)
	if project == nil {
		return
	}

	ticket := h.loadTicket(w, r, project)
	if ticket == nil {
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

	assignees, err := h.resolveAssignees(w, r, req.AssigneeIDs)
	if err != nil {
		return
	}

	ticket.Title = strings.TrimSpace(req.Title)
	ticket.Description = strings.TrimSpace(req.Description)
	ticket.CreatedBy = middleware.GetUserID(ctx)
	ticket.Modified = time.Now()
	ticket.Assignees = assignees

	if err := h.storage.Tickets().Update(ctx, ticket); err != nil {
		log.Printf("update ticket error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	log.Printf("ticket updated: %s (%s)", ticket.Title, ticket.ID)

	jsonOK(w, ticketToResponse(ticket))
}

// Delete removes a ticket.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	project := h.loadProject(w, r)
	if project == nil {
		return
	}

	ticket := h.loadTicket(w, r, project)
	if ticket == nil {
		return
	}

	if err := h.storage.Tickets().Delete(r.Context(), ticket.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			jsonError(w, http.StatusNotFound, errCodeNotFound, "ticket not found")
			return
		}
		log.Printf("delete ticket error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	metrics.TicketsDeletedTotal.Inc()
	log.Printf("ticket deleted: %s (%s)", ticket.Title, ticket.ID)

	jsonNoContent(w)
}

// resolveAssignees loads the requested assignees, writing a validation error
// and returning a non-nil error when any id is unknown.
func (h *Handler) resolveAssignees(w http.ResponseWriter, r *http.Request, ids []string) ([]*models.User, error) {
	ctx := r.Context()

	var assignees []*models.User
	for _, id := range ids {
		user, err := h.storage.Users().GetByID(ctx, id)
		if err != nil {
			log.Printf("resolve assignee error: %v", err)
			jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
			return nil, err
		}
		if user == nil {
			jsonError(w, http.StatusBadRequest, errCodeValidationFailed, "unknown assignee: "+id)
			return nil, errors.New("unknown assignee")
		}
		assignees = append(assignees, user)
	}
	return assignees, nil
}

func (h *Handler) loadProject(w http.ResponseWriter, r *http.Request) *models.Project {
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

// loadTicket fetches the ticket named by the path. A ticket reached through
// the wrong project's URL is reported as not found.
func (h *Handler) loadTicket(w http.ResponseWriter, r *http.Request, project *models.Project) *models.Ticket {
	ticketID := chi.URLParam(r, "ticketID")
	if ticketID == "" {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "ticket id required")
		return nil
	}

	ticket, err := h.storage.Tickets().GetByID(r.Context(), ticketID)
	if err != nil {
		log.Printf("get ticket error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return nil
	}
	if ticket == nil || ticket.ProjectID != project.ID {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "ticket not found")
		return nil
	}
	return ticket
}

func ticketToResponse(t *models.Ticket) *TicketResponse {
	assignees := make([]*AssigneeResponse, len(t.Assignees))
	for i, u := range t.Assignees {
		assignees[i] = &AssigneeResponse{ID: u.ID, Username: u.Username, Email: u.Email}
	}

	return &TicketResponse{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		Title:       t.Title,
		Description: t.Description,
		CreatedBy:   t.CreatedBy,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		Modified:    t.Modified.Format(time.RFC3339),
		Assignees:   assignees,
	}
}
