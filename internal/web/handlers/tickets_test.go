package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/ashen-heron/trackd/internal/models"
)

func TestMyTickets_Anonymous_EmptyList(t *testing.T) {
	mock := newMockStorage()
	mock.tickets.tickets = []*models.Ticket{
		{ID: "t1", ProjectID: "p1", Title: "someone else's ticket"},
	}
	h := NewHandler(mock, nil)

	req := httptest.NewRequest("GET", "/my-tickets/", nil)
	rec := httptest.NewRecorder()

	h.MyTickets(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if strings.Contains(rec.Body.String(), "someone else's ticket") {
		t.Error("anonymous visitor should see no tickets")
	}
}

func TestMyTickets_ListsAssignedOnly(t *testing.T) {
	user := testUser("u1", "alice")
	mock := newMockStorage()
	mock.tickets.tickets = []*models.Ticket{
		{ID: "t1", ProjectID: "p1", Title: "mine", Assignees: []*models.User{user}, Modified: time.Now()},
		{ID: "t2", ProjectID: "p1", Title: "someone else"},
	}
	h := NewHandler(mock, nil)

	req := withUser(httptest.NewRequest("GET", "/my-tickets/", nil), user)
	rec := httptest.NewRecorder()

	h.MyTickets(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "mine") {
		t.Error("assigned ticket missing from page")
	}
	if strings.Contains(body, "someone else") {
		t.Error("unassigned ticket should not render")
	}
}

func TestCreateTicket_Success(t *testing.T) {
	user := testUser("u1", "alice")
	assignee := testUser("u2", "bob")
	mock := newMockStorage()
	mock.users.users = []*models.User{user, assignee}
	mock.projects.projects = []*models.Project{{ID: "p1", Title: "Alpha"}}
	h := NewHandler(mock, nil)

	req := formRequest("/projects/p1/tickets/new", url.Values{
		"title":       {"Fix the login page"},
		"description": {"It 500s on empty input"},
		"assignees":   {"u2"},
	})
	req = withUser(req, user)
	req = withParams(req, "projectID", "p1")
	rec := httptest.NewRecorder()

	h.CreateTicket(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusFound)
	}
	if loc := rec.Header().Get("Location"); loc != "/projects/p1/" {
		t.Errorf("redirect = %q, want /projects/p1/", loc)
	}
	if len(mock.tickets.tickets) != 1 {
		t.Fatalf("tickets stored = %d, want 1", len(mock.tickets.tickets))
	}
	ticket := mock.tickets.tickets[0]
	if ticket.ProjectID != "p1" || ticket.CreatedBy != "u1" {
		t.Errorf("ticket bound to %q by %q", ticket.ProjectID, ticket.CreatedBy)
	}
	if !ticket.IsAssignedTo("u2") {
		t.Error("assignee not persisted")
	}
}

func TestCreateTicket_UnknownProject_NotFound(t *testing.T) {
	h := NewHandler(newMockStorage(), nil)

	req := formRequest("/projects/missing/tickets/new", url.Values{"title": {"x"}})
	req = withUser(req, testUser("u1", "alice"))
	req = withParams(req, "projectID", "missing")
	rec := httptest.NewRecorder()

	h.CreateTicket(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestCreateTicket_UnknownAssignee_Rerenders(t *testing.T) {
	user := testUser("u1", "alice")
	mock := newMockStorage()
	mock.users.users = []*models.User{user}
	mock.projects.projects = []*models.Project{{ID: "p1", Title: "Alpha"}}
	h := NewHandler(mock, nil)

	req := formRequest("/projects/p1/tickets/new", url.Values{
		"title":     {"Fix it"},
		"assignees": {"ghost"},
	})
	req = withUser(req, user)
	req = withParams(req, "projectID", "p1")
	rec := httptest.NewRecorder()

	h.CreateTicket(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "select valid users") {
		t.Error("assignee error missing from re-rendered form")
	}
	if len(mock.tickets.tickets) != 0 {
		t.Error("invalid submission must not persist anything")
	}
}

func TestUpdateTicket_StampsActingUser(t *testing.T) {
	creator := testUser("u1", "alice")
	editor := testUser("u2", "bob")
	mock := newMockStorage()
	mock.users.users = []*models.User{creator, editor}
	mock.projects.projects = []*models.Project{{ID: "p1", Title: "Alpha"}}
	mock.tickets.tickets = []*models.Ticket{
		{ID: "t1", ProjectID: "p1", Title: "Old", CreatedBy: "u1"},
	}
	h := NewHandler(mock, nil)

	req := formRequest("/projects/p1/tickets/t1/edit", url.Values{"title": {"New"}})
	req = withUser(req, editor)
	req = withParams(req, "projectID", "p1", "ticketID", "t1")
	rec := httptest.NewRecorder()

	h.UpdateTicket(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusFound)
	}
	ticket := mock.tickets.tickets[0]
	if ticket.Title != "New" {
		t.Errorf("title = %q, want New", ticket.Title)
	}
	if ticket.CreatedBy != "u2" {
		t.Errorf("created_by = %q, want the acting user u2", ticket.CreatedBy)
	}
}

func TestUpdateTicket_WrongProject_RerendersWithoutSaving(t *testing.T) {
	user := testUser("u1", "alice")
	mock := newMockStorage()
	mock.users.users = []*models.User{user}
	mock.projects.projects = []*models.Project{
		{ID: "p1", Title: "Alpha"},
		{ID: "p2", Title: "Beta"},
	}
	mock.tickets.tickets = []*models.Ticket{
		{ID: "t1", ProjectID: "p1", Title: "Original", CreatedBy: "u1"},
	}
	h := NewHandler(mock, nil)

	// t1 belongs to p1; submitting it under p2 must fail.
	req := formRequest("/projects/p2/tickets/t1/edit", url.Values{"title": {"Moved"}})
	req = withUser(req, user)
	req = withParams(req, "projectID", "p2", "ticketID", "t1")
	rec := httptest.NewRecorder()

	h.UpdateTicket(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "cannot change the project of this ticket") {
		t.Error("project error missing from re-rendered form")
	}
	ticket := mock.tickets.tickets[0]
	if ticket.Title != "Original" || ticket.ProjectID != "p1" {
		t.Error("rejected submission must leave the ticket unchanged")
	}
}

func TestUpdateTicket_UnknownTicket_NotFound(t *testing.T) {
	mock := newMockStorage()
	mock.projects.projects = []*models.Project{{ID: "p1", Title: "Alpha"}}
	h := NewHandler(mock, nil)

	req := formRequest("/projects/p1/tickets/missing/edit", url.Values{"title": {"x"}})
	req = withUser(req, testUser("u1", "alice"))
	req = withParams(req, "projectID", "p1", "ticketID", "missing")
	rec := httptest.NewRecorder()

	h.UpdateTicket(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestDeleteTicket_Success(t *testing.T) {
	mock := newMockStorage()
	mock.tickets.tickets = []*models.Ticket{
		{ID: "t1", ProjectID: "p1", Title: "doomed"},
	}
	h := NewHandler(mock, nil)

	req := formRequest("/projects/p1/tickets/t1/delete", url.Values{})
	req = withUser(req, testUser("u1", "alice"))
	req = withParams(req, "projectID", "p1", "ticketID", "t1")
	rec := httptest.NewRecorder()

	h.DeleteTicket(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusFound)
	}
	if loc := rec.Header().Get("Location"); loc != "/projects/p1/" {
		t.Errorf("redirect = %q, want /projects/p1/", loc)
	}
	if len(mock.tickets.tickets) != 0 {
		t.Error("ticket not deleted")
	}
}

func TestDeleteTicket_Twice_NotFound(t *testing.T) {
	mock := newMockStorage()
	mock.tickets.tickets = []*models.Ticket{
		{ID: "t1", ProjectID: "p1", Title: "doomed"},
	}
	h := NewHandler(mock, nil)

	del := func() *httptest.ResponseRecorder {
		req := formRequest("/projects/p1/tickets/t1/delete", url.Values{})
		req = withUser(req, testUser("u1", "alice"))
		req = withParams(req, "projectID", "p1", "ticketID", "t1")
		rec := httptest.NewRecorder()
		h.DeleteTicket(rec, req)
		return rec
	}

	if rec := del(); rec.Code != http.StatusFound {
		t.Fatalf("first delete status = %d, want %d", rec.Code, http.StatusFound)
	}
	if rec := del(); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestDeleteTicket_PanicsWithoutUser(t *testing.T) {
	h := NewHandler(newMockStorage(), nil)

	defer func() {
		if recover() == nil {
			t.Error("expected panic for anonymous delete")
		}
	}()

	req := formRequest("/projects/p1/tickets/t1/delete", url.Values{})
	req = withParams(req, "projectID", "p1", "ticketID", "t1")
	h.DeleteTicket(httptest.NewRecorder(), req)
}
