// Package storage provides database storage interfaces and implementations.
package storage

import (
	"context"
	"errors"

	"github.com/ashen-heron/trackd/internal/models"
)

// ErrNotFound is returned when an entity does not exist, including deletes
// of already-deleted rows.
var ErrNotFound = errors.New("resource not found")

// Storage is the main interface for database operations.
type Storage interface {
	// Open initializes the database connection.
	Open() error
	// Close closes the database connection.
	Close() error
	// Migrate runs database migrations.
	Migrate() error

	// Repository accessors
	Users() UserRepository
	Projects() ProjectRepository
	Tickets() TicketRepository
	Tokens() TokenRepository
}

// UserRepository defines operations for user management.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.User, error)
	Count(ctx context.Context) (int64, error)
}

// ProjectRepository defines operations for project management.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id string) (*models.Project, error)
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id string) error
	// List returns all projects in default (creation) order.
	List(ctx context.Context) ([]*models.Project, error)
}

// TicketRepository defines operations for ticket management.
type TicketRepository interface {
	// Create persists the ticket and its assignee set.
	Create(ctx context.Context, ticket *models.Ticket) error
	// GetByID returns the ticket with assignees loaded, or nil if absent.
	GetByID(ctx context.Context, id string) (*models.Ticket, error)
	// Update persists mutable fields and replaces the assignee set.
	Update(ctx context.Context, ticket *models.Ticket) error
	// Delete hard-deletes the ticket. Returns ErrNotFound if no row matched.
	Delete(ctx context.Context, id string) error
	ListByProject(ctx context.Context, projectID string) ([]*models.Ticket, error)
	// ListAssignedTo returns tickets where the user is among the assignees,
	// ordered by modified descending.
	ListAssignedTo(ctx context.Context, userID string) ([]*models.Ticket, error)
	// AssignedProjectIDs returns the set of project ids containing at least
	// one ticket assigned to the user.
	AssignedProjectIDs(ctx context.Context, userID string) (map[string]bool, error)
}

// TokenRepository defines operations for refresh token management.
type TokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}
