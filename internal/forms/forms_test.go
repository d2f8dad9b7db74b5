package forms

import (
	"context"

	"github.com/ashen-heron/trackd/internal/models"
)

// In-memory repositories shared by the form tests.

type memUserRepo struct {
	users []*models.User
}

func (m *memUserRepo) Create(ctx context.Context, user *models.User) error {
	m.users = append(m.users, user)
	return nil
}

func (m *memUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return nil, nil
}

func (m *memUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, nil
}

func (m *memUserRepo) Update(ctx context.Context, user *models.User) error { return nil }
func (m *memUserRepo) Delete(ctx context.Context, id string) error         { return nil }
func (m *memUserRepo) List(ctx context.Context) ([]*models.User, error)    { return m.users, nil }
func (m *memUserRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(m.users)), nil
}

type memProjectRepo struct {
	projects []*models.Project
}

func (m *memProjectRepo) Create(ctx context.Context, project *models.Project) error {
	m.projects = append(m.projects, project)
	return nil
}

func (m *memProjectRepo) GetByID(ctx context.Context, id string) (*models.Project, error) {
	for _, p := range m.projects {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (m *memProjectRepo) Update(ctx context.Context, project *models.Project) error {
	for i, p := range m.projects {
		if p.ID == project.ID {
			m.projects[i] = project
			return nil
		}
	}
	return nil
}

func (m *memProjectRepo) Delete(ctx context.Context, id string) error { return nil }

func (m *memProjectRepo) List(ctx context.Context) ([]*models.Project, error) {
	return m.projects, nil
}

type memTicketRepo struct {
	tickets []*models.Ticket
}

func (m *memTicketRepo) Create(ctx context.Context, ticket *models.Ticket) error {
	m.tickets = append(m.tickets, ticket)
	return nil
}

func (m *memTicketRepo) GetByID(ctx context.Context, id string) (*models.Ticket, error) {
	for _, t := range m.tickets {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, nil
}

func (m *memTicketRepo) Update(ctx context.Context, ticket *models.Ticket) error {
	for i, t := range m.tickets {
		if t.ID == ticket.ID {
			m.tickets[i] = ticket
			return nil
		}
	}
	return nil
}

func (m *memTicketRepo) Delete(ctx context.Context, id string) error { return nil }

func (m *memTicketRepo) ListByProject(ctx context.Context, projectID string) ([]*models.Ticket, error) {
	return nil, nil
}

func (m *memTicketRepo) ListAssignedTo(ctx context.Context, userID string) ([]*models.Ticket, error) {
	return nil, nil
}

func (m *memTicketRepo) AssignedProjectIDs(ctx context.Context, userID string) (map[string]bool, error) {
	return nil, nil
}
