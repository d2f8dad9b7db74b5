package projects

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ashen-heron/trackd/internal/api/middleware"
	"github.com/ashen-heron/trackd/internal/models"
	"github.com/ashen-heron/trackd/internal/storage"
)

// Mock repositories

type mockProjectRepository struct {
	projects    []*models.Project
	createError error
	listError   error
}

func (m *mockProjectRepository) Create(ctx context.Context, project *models.Project) error {
	if m.createError != nil {
		return m.createError
	}
	m.projects = append(m.projects, project)
	return nil
}

func (m *mockProjectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	for _, p := range m.projects {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (m *mockProjectRepository) Update(ctx context.Context, project *models.Project) error {
	for i, p := range m.projects {
		if p.ID == project.ID {
			m.projects[i] = project
			return nil
		}
	}
	return storage.ErrNotFound
}

func (m *mockProjectRepository) Delete(ctx context.Context, id string) error {
	for i, p := range m.projects {
		if p.ID == id {
			m.projects = append(m.projects[:i], m.projects[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (m *mockProjectRepository) List(ctx context.Context) ([]*models.Project, error) {
	if m.listError != nil {
		return nil, m.listError
	}
	return m.projects, nil
}

type mockTicketRepository struct {
	assigned map[string]bool
}

func (m *mockTicketRepository) Create(ctx context.Context, ticket *models.Ticket) error { return nil }
func (m *mockTicketRepository) GetByID(ctx context.Context, id string) (*models.Ticket, error) {
	return nil, nil
}
func (m *mockTicketRepository) Update(ctx context.Context, ticket *models.Ticket) error { return nil }
func (m *mockTicketRepository) Delete(ctx context.Context, id string) error             { return nil }
func (m *mockTicketRepository) ListByProject(ctx context.Context, projectID string) ([]*models.Ticket, error) {
	return nil, nil
}
func (m *mockTicketRepository) ListAssignedTo(ctx context.Context, userID string) ([]*models.Ticket, error) {
	return nil, nil
}
func (m *mockTicketRepository) AssignedProjectIDs(ctx context.Context, userID string) (map[string]bool, error) {
	if m.assigned == nil {
		return map[string]bool{}, nil
	}
	return m.assigned, nil
}

type mockStorage struct {
	projectRepo *mockProjectRepository
	ticketRepo  *mockTicketRepository
}

func (m *mockStorage) Open() error                         { return nil }
func (m *mockStorage) Close() error                        { return nil }
func (m *mockStorage) Migrate() error                      { return nil }
func (m *mockStorage) Users() storage.UserRepository       { return nil }
func (m *mockStorage) Projects() storage.ProjectRepository { return m.projectRepo }
func (m *mockStorage) Tickets() storage.TicketRepository   { return m.ticketRepo }
func (m *mockStorage) Tokens() storage.TokenRepository     { return nil }

func newMockStorage() (*mockStorage, *mockProjectRepository, *mockTicketRepository) {
	projectRepo := &mockProjectRepository{}
	ticketRepo := &mockTicketRepository{}
	return &mockStorage{projectRepo: projectRepo, ticketRepo: ticketRepo}, projectRepo, ticketRepo
}

func authed(req *http.Request, userID string) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), userID, "tester"))
}

func withProjectID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("projectID", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&wrapper); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if err := json.Unmarshal(wrapper.Data, v); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func TestList_AssignedFirst(t *testing.T) {
	mockStore, projectRepo, ticketRepo := newMockStorage()
	now := time.Now()
	projectRepo.projects = []*models.Project{
		{ID: "p1", Title: "Alpha", CreatedAt: now, UpdatedAt: now},
		{ID: "p2", Title: "Beta", CreatedAt: now, UpdatedAt: now},
		{ID: "p3", Title: "Gamma", CreatedAt: now, UpdatedAt: now},
	}
	ticketRepo.assigned = map[string]bool{"p3": true}

	handler := NewHandler(mockStore)
	req := authed(httptest.NewRequest("GET", "/api/v1/projects", nil), "u1")
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got []*ProjectResponse
	decodeData(t, rec, &got)

	want := []string{"p3", "p1", "p2"}
	if len(got) != len(want) {
		t.Fatalf("got %d projects, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestCreate_StampsCallingUser(t *testing.T) {
	mockStore, projectRepo, _ := newMockStorage()
	handler := NewHandler(mockStore)

	req := httptest.NewRequest("POST", "/api/v1/projects", strings.NewReader(`{"title":"New Project"}`))
	req = authed(req, "u1")
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if len(projectRepo.projects) != 1 {
		t.Fatalf("projects stored = %d, want 1", len(projectRepo.projects))
	}
	p := projectRepo.projects[0]
	if p.Title != "New Project" || p.CreatedBy != "u1" {
		t.Errorf("stored project = %q by %q", p.Title, p.CreatedBy)
	}
}

func TestCreate_EmptyTitle(t *testing.T) {
	mockStore, projectRepo, _ := newMockStorage()
	handler := NewHandler(mockStore)

	req := httptest.NewRequest("POST", "/api/v1/projects", strings.NewReader(`{"title":"  "}`))
	req = authed(req, "u1")
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if len(projectRepo.projects) != 0 {
		t.Error("invalid request must not persist anything")
	}
}

func TestGetByID_NotFound(t *testing.T) {
	mockStore, _, _ := newMockStorage()
	handler := NewHandler(mockStore)

	req := httptest.NewRequest("GET", "/api/v1/projects/missing", nil)
	req = withProjectID(authed(req, "u1"), "missing")
	rec := httptest.NewRecorder()

	handler.GetByID(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestUpdate_ReassignsOwnership(t *testing.T) {
	mockStore, projectRepo, _ := newMockStorage()
	now := time.Now()
	projectRepo.projects = []*models.Project{
		{ID: "p1", Title: "Old", CreatedBy: "u1", CreatedAt: now, UpdatedAt: now},
	}
	handler := NewHandler(mockStore)

	req := httptest.NewRequest("PUT", "/api/v1/projects/p1", strings.NewReader(`{"title":"Renamed"}`))
	req = withProjectID(authed(req, "u2"), "p1")
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	p := projectRepo.projects[0]
	if p.Title != "Renamed" {
		t.Errorf("title = %q, want Renamed", p.Title)
	}
	if p.CreatedBy != "u2" {
		t.Errorf("created_by = %q, want the acting user u2", p.CreatedBy)
	}
}

func TestDelete(t *testing.T) {
	mockStore, projectRepo, _ := newMockStorage()
	projectRepo.projects = []*models.Project{{ID: "p1", Title: "Doomed"}}
	handler := NewHandler(mockStore)

	req := httptest.NewRequest("DELETE", "/api/v1/projects/p1", nil)
	req = withProjectID(authed(req, "u1"), "p1")
	rec := httptest.NewRecorder()

	handler.Delete(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if len(projectRepo.projects) != 0 {
		t.Error("project not deleted")
	}
}
