package models

import (
	"time"
)

// Ticket is a unit of work belonging to exactly one project.
//
// ProjectID is immutable once the ticket exists: the update form rejects any
// attempt to move a ticket between projects. CreatedBy is re-stamped with
// the acting user on every successful create or update, same as Project.
// Modified orders the my-tickets listing (most recent first).
type Ticket struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	Modified    time.Time `json:"modified"`

	// Assignees is populated by the storage layer from the join table.
	Assignees []*User `json:"assignees,omitempty"`
}

// NewTicket creates a new Ticket bound to a project.
func NewTicket(projectID, title, description, createdBy string) *Ticket {
	now := time.Now()
	return &Ticket{
		ProjectID:   projectID,
		Title:       title,
		Description: description,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		Modified:    now,
	}
}

// AssigneeIDs returns the ids of the ticket's assignees.
func (t *Ticket) AssigneeIDs() []string {
	ids := make([]string, len(t.Assignees))
	for i, u := range t.Assignees {
		ids[i] = u.ID
	}
	return ids
}

// IsAssignedTo reports whether the given user is among the assignees.
func (t *Ticket) IsAssignedTo(userID string) bool {
	for _, u := range t.Assignees {
		if u.ID == userID {
			return true
		}
	}
	return false
}
