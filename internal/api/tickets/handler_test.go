package tickets

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

type mockUserRepository struct {
	users []*models.User
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error { return nil }
func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}
func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return nil, nil
}
func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, nil
}
func (m *mockUserRepository) Update(ctx context.Context, user *models.User) error { return nil }
func (m *mockUserRepository) Delete(ctx context.Context, id string) error         { return nil }
func (m *mockUserRepository) List(ctx context.Context) ([]*models.User, error)    { return m.users, nil }
func (m *mockUserRepository) Count(ctx context.Context) (int64, error)            { return 0, nil }

type mockProjectRepository struct {
	projects []*models.Project
}

func (m *mockProjectRepository) Create(ctx context.Context, project *models.Project) error {
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
	return nil
}
func (m *mockProjectRepository) Delete(ctx context.Context, id string) error { return nil }
func (m *mockProjectRepository) List(ctx context.Context) ([]*models.Project, error) {
	return m.projects, nil
}

type mockTicketRepository struct {
	tickets []*models.Ticket
}

func (m *mockTicketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	m.tickets = append(m.tickets, ticket)
	return nil
}

func (m *mockTicketRepository) GetByID(ctx context.Context, id string) (*models.Ticket, error) {
	for _, t := range m.tickets {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, nil
}

func (m *mockTicketRepository) Update(ctx context.Context, ticket *models.Ticket) error {
	for i, t := range m.tickets {
		if t.ID == ticket.ID {
			m.tickets[i] = ticket
			return nil
		}
	}
	return storage.ErrNotFound
}

func (m *mockTicketRepository) Delete(ctx context.Context, id string) error {
	for i, t := range m.tickets {
		if t.ID == id {
			m.tickets = append(m.tickets[:i], m.tickets[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (m *mockTicketRepository) ListByProject(ctx context.Context, projectID string) ([]*models.Ticket, error) {
	var out []*models.Ticket
	for _, t := range m.tickets {
		if t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockTicketRepository) ListAssignedTo(ctx context.Context, userID string) ([]*models.Ticket, error) {
	var out []*models.Ticket
	for _, t := range m.tickets {
		if t.IsAssignedTo(userID) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockTicketRepository) AssignedProjectIDs(ctx context.Context, userID string) (map[string]bool, error) {
	return map[string]bool{}, nil
}

type mockStorage struct {
	userRepo    *mockUserRepository
	projectRepo *mockProjectRepository
	ticketRepo  *mockTicketRepository
}

func (m *mockStorage) Open() error                         { return nil }
func (m *mockStorage) Close() error                        { return nil }
func (m *mockStorage) Migrate() error                      { return nil }
func (m *mockStorage) Users() storage.UserRepository       { return m.userRepo }
func (m *mockStorage) Projects() storage.ProjectRepository { return m.projectRepo }
func (m *mockStorage) Tickets() storage.TicketRepository   { return m.ticketRepo }
func (m *mockStorage) Tokens() storage.TokenRepository     { return nil }

func newMockStorage() *mockStorage {
	return &mockStorage{
		userRepo:    &mockUserRepository{},
		projectRepo: &mockProjectRepository{},
		ticketRepo:  &mockTicketRepository{},
	}
}

func authed(req *http.Request, userID string) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), userID, "tester"))
}

func withParams(req *http.Request, pairs ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(pairs); i += 2 {
		rctx.URLParams.Add(pairs[i], pairs[i+1])
	}
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

func TestCreate(t *testing.T) {
	store := newMockStorage()
	store.projectRepo.projects = []*models.Project{{ID: "p1", Title: "Alpha"}}
	store.userRepo.users = []*models.User{{ID: "u2", Username: "bob", Email: "bob@example.com"}}
	handler := NewHandler(store)

	body := `{"title":"Fix login","description":"500 on empty input","assignee_ids":["u2"]}`
	req := httptest.NewRequest("POST", "/api/v1/projects/p1/tickets", strings.NewReader(body))
	req = withParams(authed(req, "u1"), "projectID", "p1")
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if len(store.ticketRepo.tickets) != 1 {
		t.Fatalf("tickets stored = %d, want 1", len(store.ticketRepo.tickets))
	}
	ticket := store.ticketRepo.tickets[0]
	if ticket.ProjectID != "p1" || ticket.CreatedBy != "u1" {
		t.Errorf("ticket bound to %q by %q", ticket.ProjectID, ticket.CreatedBy)
	}
	if !ticket.IsAssignedTo("u2") {
		t.Error("assignee not persisted")
	}
}

func TestCreate_UnknownAssignee(t *testing.T) {
	store := newMockStorage()
	store.projectRepo.projects = []*models.Project{{ID: "p1", Title: "Alpha"}}
	handler := NewHandler(store)

	body := `{"title":"Fix login","assignee_ids":["ghost"]}`
	req := httptest.NewRequest("POST", "/api/v1/projects/p1/tickets", strings.NewReader(body))
	req = withParams(authed(req, "u1"), "projectID", "p1")
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if len(store.ticketRepo.tickets) != 0 {
		t.Error("invalid request must not persist anything")
	}
}

func TestCreate_UnknownProject(t *testing.T) {
	handler := NewHandler(newMockStorage())

	req := httptest.NewRequest("POST", "/api/v1/projects/missing/tickets", strings.NewReader(`{"title":"x"}`))
	req = withParams(authed(req, "u1"), "projectID", "missing")
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestUpdate_StampsCallingUser(t *testing.T) {
	store := newMockStorage()
	store.projectRepo.projects = []*models.Project{{ID: "p1", Title: "Alpha"}}
	store.ticketRepo.tickets = []*models.Ticket{
		{ID: "t1", ProjectID: "p1", Title: "Old", CreatedBy: "u1"},
	}
	handler := NewHandler(store)

	req := httptest.NewRequest("PUT", "/api/v1/projects/p1/tickets/t1", strings.NewReader(`{"title":"New"}`))
	req = withParams(authed(req, "u2"), "projectID", "p1", "ticketID", "t1")
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	ticket := store.ticketRepo.tickets[0]
	if ticket.Title != "New" || ticket.CreatedBy != "u2" {
		t.Errorf("ticket = %q by %q, want New by u2", ticket.Title, ticket.CreatedBy)
	}
}

func TestUpdate_WrongProjectIsNotFound(t *testing.T) {
	store := newMockStorage()
	store.projectRepo.projects = []*models.Project{
		{ID: "p1", Title: "Alpha"},
		{ID: "p2", Title: "Beta"},
	}
	store.ticketRepo.tickets = []*models.Ticket{
		{ID: "t1", ProjectID: "p1", Title: "Original"},
	}
	handler := NewHandler(store)

	// t1 belongs to p1; addressing it through p2 must not find it.
	req := httptest.NewRequest("PUT", "/api/v1/projects/p2/tickets/t1", strings.NewReader(`{"title":"Moved"}`))
	req = withParams(authed(req, "u1"), "projectID", "p2", "ticketID", "t1")
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if store.ticketRepo.tickets[0].Title != "Original" {
		t.Error("rejected update must leave the ticket unchanged")
	}
}

func TestListMine_NewestFirstPassthrough(t *testing.T) {
	user := &models.User{ID: "u1", Username: "alice"}
	store := newMockStorage()
	now := time.Now()
	store.ticketRepo.tickets = []*models.Ticket{
		{ID: "t1", ProjectID: "p1", Title: "mine", Modified: now, Assignees: []*models.User{user}},
		{ID: "t2", ProjectID: "p1", Title: "not mine", Modified: now},
	}
	handler := NewHandler(store)

	req := authed(httptest.NewRequest("GET", "/api/v1/tickets/mine", nil), "u1")
	rec := httptest.NewRecorder()

	handler.ListMine(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got []*TicketResponse
	decodeData(t, rec, &got)

	if len(got) != 1 || got[0].ID != "t1" {
		t.Errorf("got %d tickets, want only t1", len(got))
	}
}

func TestDelete_TwiceIsNotFound(t *testing.T) {
	store := newMockStorage()
	store.projectRepo.projects = []*models.Project{{ID: "p1", Title: "Alpha"}}
	store.ticketRepo.tickets = []*models.Ticket{
		{ID: "t1", ProjectID: "p1", Title: "doomed"},
	}
	handler := NewHandler(store)

	del := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest("DELETE", "/api/v1/projects/p1/tickets/t1", nil)
		req = withParams(authed(req, "u1"), "projectID", "p1", "ticketID", "t1")
		rec := httptest.NewRecorder()
		handler.Delete(rec, req)
		return rec
	}

	if rec := del(); rec.Code != http.StatusNoContent {
		t.Fatalf("first delete status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if rec := del(); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
