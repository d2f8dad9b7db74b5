package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ashen-heron/trackd/internal/models"
)

type sqliteTicketRepo struct {
	db *sql.DB
}

func (r *sqliteTicketRepo) Create(ctx context.Context, ticket *models.Ticket) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO tickets (id, project_id, title, description, created_by, created_at, modified)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, query,
		ticket.ID, ticket.ProjectID, ticket.Title, ticket.Description,
		ticket.CreatedBy, ticket.CreatedAt, ticket.Modified,
	)
	if err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}

	if err := replaceAssignees(ctx, tx, ticket); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *sqliteTicketRepo) GetByID(ctx context.Context, id string) (*models.Ticket, error) {
	query := `
		SELECT id, project_id, title, description, created_by, created_at, modified
		FROM tickets WHERE id = ?
	`
	ticket := &models.Ticket{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&ticket.ID, &ticket.ProjectID, &ticket.Title, &ticket.Description,
		&ticket.CreatedBy, &ticket.CreatedAt, &ticket.Modified,
	)
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ticket by id: %w", err)
	}

	if err := r.loadAssignees(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *sqliteTicketRepo) Update(ctx context.Context, ticket *models.Ticket) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE tickets SET title = ?, description = ?, created_by = ?, modified = ?
		WHERE id = ?
	`
	result, err := tx.ExecContext(ctx, query,
		ticket.Title, ticket.Description, ticket.CreatedBy, ticket.Modified,
		ticket.ID,
	)
	if err != nil {
		return fmt.Errorf("update ticket: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("update ticket %s: %w", ticket.ID, ErrNotFound)
	}

	if err := replaceAssignees(ctx, tx, ticket); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *sqliteTicketRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM tickets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete ticket: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("delete ticket %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *sqliteTicketRepo) ListByProject(ctx context.Context, projectID string) ([]*models.Ticket, error) {
	query := `
		SELECT id, project_id, title, description, created_by, created_at, modified
		FROM tickets WHERE project_id = ? ORDER BY created_at, id
	`
	return r.list(ctx, query, projectID)
}

func (r *sqliteTicketRepo) ListAssignedTo(ctx context.Context, userID string) ([]*models.Ticket, error) {
	query := `
		SELECT t.id, t.project_id, t.title, t.description, t.created_by, t.created_at, t.modified
		FROM tickets t
		INNER JOIN ticket_assignees ta ON t.id = ta.ticket_id
		WHERE ta.user_id = ?
		ORDER BY t.modified DESC
	`
	return r.list(ctx, query, userID)
}

func (r *sqliteTicketRepo) AssignedProjectIDs(ctx context.Context, userID string) (map[string]bool, error) {
	query := `
		SELECT DISTINCT t.project_id
		FROM tickets t
		INNER JOIN ticket_assignees ta ON t.id = ta.ticket_id
		WHERE ta.user_id = ?
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("assigned project ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan project id: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

func (r *sqliteTicketRepo) list(ctx context.Context, query string, args ...any) ([]*models.Ticket, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*models.Ticket
	for rows.Next() {
		ticket := &models.Ticket{}
		err := rows.Scan(
			&ticket.ID, &ticket.ProjectID, &ticket.Title, &ticket.Description,
			&ticket.CreatedBy, &ticket.CreatedAt, &ticket.Modified,
		)
		if err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, t := range tickets {
		if err := r.loadAssignees(ctx, t); err != nil {
			return nil, err
		}
	}
	return tickets, nil
}

func (r *sqliteTicketRepo) loadAssignees(ctx context.Context, ticket *models.Ticket) error {
	query := `
		SELECT u.id, u.username, u.email, u.password_hash, u.created_at, u.updated_at
		FROM users u
		INNER JOIN ticket_assignees ta ON u.id = ta.user_id
		WHERE ta.ticket_id = ?
		ORDER BY u.email
	`
	rows, err := r.db.QueryContext(ctx, query, ticket.ID)
	if err != nil {
		return fmt.Errorf("get ticket assignees: %w", err)
	}
	defer rows.Close()

	ticket.Assignees = nil
	for rows.Next() {
		user := &models.User{}
		err := rows.Scan(
			&user.ID, &user.Username, &user.Email, &user.PasswordHash,
			&user.CreatedAt, &user.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("scan assignee: %w", err)
		}
		ticket.Assignees = append(ticket.Assignees, user)
	}
	return rows.Err()
}

// replaceAssignees rewrites the ticket's assignee rows inside tx.
func replaceAssignees(ctx context.Context, tx *sql.Tx, ticket *models.Ticket) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM ticket_assignees WHERE ticket_id = ?", ticket.ID); err != nil {
		return fmt.Errorf("clear assignees: %w", err)
	}
	for _, u := range ticket.Assignees {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO ticket_assignees (ticket_id, user_id) VALUES (?, ?)",
			ticket.ID, u.ID,
		)
		if err != nil {
			return fmt.Errorf("add assignee %s: %w", u.ID, err)
		}
	}
	return nil
}
