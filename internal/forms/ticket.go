package forms

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ashen-heron/trackd/internal/models"
	"github.com/ashen-heron/trackd/internal/storage"
)

// TicketForm validates ticket create/update input bound to a project context.
//
// The project binding is load-bearing: a ticket that already exists in
// storage must belong to the bound project, otherwise validation fails and
// nothing is persisted. This is what makes a ticket's project immutable
// through the update path.
type TicketForm struct {
	Title       string `validate:"required,max=200"`
	Description string
	AssigneeIDs []string

	user     *models.User
	project  *models.Project
	existing *models.Ticket

	// assignees resolved during Validate, consumed by Save.
	assignees []*models.User
}

// NewTicketForm creates a form bound to project for the acting user.
// existing is nil for creates and the stored ticket for updates.
func NewTicketForm(user *models.User, project *models.Project, existing *models.Ticket) *TicketForm {
	f := &TicketForm{user: user, project: project, existing: existing}
	if existing != nil {
		f.Title = existing.Title
		f.Description = existing.Description
		f.AssigneeIDs = existing.AssigneeIDs()
	}
	return f
}

// Bind populates the form from submitted values.
func (f *TicketForm) Bind(values url.Values) {
	f.Title = strings.TrimSpace(values.Get("title"))
	f.Description = strings.TrimSpace(values.Get("description"))
	f.AssigneeIDs = nil
	for _, id := range values["assignees"] {
		if id = strings.TrimSpace(id); id != "" {
			f.AssigneeIDs = append(f.AssigneeIDs, id)
		}
	}
}

// Validate returns field-keyed errors; empty means valid. It resolves the
// assignee selection against the user store and rejects attempts to move an
// existing ticket to a different project.
func (f *TicketForm) Validate(ctx context.Context, users storage.UserRepository) (Errors, error) {
	errs := Errors{}
	checkStruct(f, errs)

	if f.existing != nil && f.existing.ProjectID != f.project.ID {
		errs["project"] = "cannot change the project of this ticket"
	}

	f.assignees = f.assignees[:0]
	for _, id := range f.AssigneeIDs {
		user, err := users.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if user == nil {
			errs["assignees"] = "select valid users"
			continue
		}
		f.assignees = append(f.assignees, user)
	}

	return errs, nil
}

// Save persists the ticket bound to the form's project, stamping created_by
// with the acting user and refreshing the modified timestamp. Call only
// after Validate reports no errors.
func (f *TicketForm) Save(ctx context.Context, tickets storage.TicketRepository) (*models.Ticket, error) {
	now := time.Now()

	if f.existing != nil {
		f.existing.Title = f.Title
		f.existing.Description = f.Description
		f.existing.CreatedBy = f.user.ID
		f.existing.Modified = now
		f.existing.Assignees = f.assignees
		if err := tickets.Update(ctx, f.existing); err != nil {
			return nil, err
		}
		return f.existing, nil
	}

	ticket := models.NewTicket(f.project.ID, f.Title, f.Description, f.user.ID)
	ticket.ID = uuid.New().String()
	ticket.Assignees = f.assignees
	if err := tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}
