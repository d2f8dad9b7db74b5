package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ashen-heron/trackd/internal/models"
	"github.com/ashen-heron/trackd/internal/storage"
)

var (
	ticketDBPath    string
	ticketProject   string
	ticketProjectID string
	ticketID        string
	ticketTitle     string
	ticketDesc      string
	ticketCreator   string
	ticketAssignees []string
	ticketForce     bool
)

// ticketCmd represents the ticket command group
var ticketCmd = &cobra.Command{
	Use:   "ticket",
	Short: "Ticket management commands",
	Long: `Commands for managing trackd tickets.

Tickets belong to a project and carry a set of assigned users.
These commands operate directly on the database file.

Examples:
  # List tickets in a project
  trackctl ticket list --project "Website relaunch"

  # Create a ticket assigned to two users
  trackctl ticket create --project "Website relaunch" --title "Fix header" \
    --creator alice --assign bob --assign carol

  # Delete a ticket
  trackctl ticket delete --id 550e8400-e29b-41d4-a716-446655440000`,
}

// ticketListCmd lists tickets in a project
var ticketListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tickets in a project",
	Long: `List all tickets in a project, in creation order.

Examples:
  trackctl ticket list --project "Website relaunch"
  trackctl ticket list --project-id 550e8400-e29b-41d4-a716-446655440000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDatabase(ticketDBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		project, err := resolveProject(ctx, store.Projects(), ticketProject, ticketProjectID)
		if err != nil {
			return err
		}

		tickets, err := store.Tickets().ListByProject(ctx, project.ID)
		if err != nil {
			return fmt.Errorf("list tickets: %w", err)
		}

		fmt.Printf("\nTickets in project '%s':\n\n", project.Title)

		if len(tickets) == 0 {
			fmt.Println("No tickets found.")
			return nil
		}

		fmt.Printf("%-36s  %-30s  %-25s  %s\n",
			"ID", "TITLE", "ASSIGNEES", "MODIFIED")
		fmt.Println(strings.Repeat("-", 110))

		for _, t := range tickets {
			fmt.Printf("%-36s  %-30s  %-25s  %s\n",
				t.ID,
				truncate(t.Title, 30),
				truncate(assigneeNames(t), 25),
				t.Modified.Format("2006-01-02 15:04"),
			)
		}
		fmt.Printf("\nTotal: %d ticket(s)\n", len(tickets))

		return nil
	},
}

// ticketShowCmd shows ticket details
var ticketShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show ticket details",
	Long: `Show detailed information about a ticket.

Example:
  trackctl ticket show --id 550e8400-e29b-41d4-a716-446655440000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if ticketID == "" {
			return fmt.Errorf("--id is required")
		}

		store, err := openDatabase(ticketDBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		ticket, err := store.Tickets().GetByID(ctx, ticketID)
		if err != nil {
			return fmt.Errorf("get ticket: %w", err)
		}
		if ticket == nil {
			return fmt.Errorf("ticket not found: %s", ticketID)
		}

		projectTitle := ticket.ProjectID
		if p, err := store.Projects().GetByID(ctx, ticket.ProjectID); err == nil && p != nil {
			projectTitle = p.Title
		}
		creator := ticket.CreatedBy
		if u, err := store.Users().GetByID(ctx, ticket.CreatedBy); err == nil && u != nil {
			creator = u.Username
		}

		fmt.Println("\nTicket Details:")
		fmt.Printf("  ID:          %s\n", ticket.ID)
		fmt.Printf("  Title:       %s\n", ticket.Title)
		fmt.Printf("  Project:     %s\n", projectTitle)
		fmt.Printf("  Creator:     %s\n", creator)
		fmt.Printf("  Assignees:   %s\n", assigneeNames(ticket))
		fmt.Printf("  Created:     %s\n", ticket.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("  Modified:    %s\n", ticket.Modified.Format("2006-01-02 15:04:05"))
		if ticket.Description != "" {
			fmt.Printf("  Description:\n    %s\n", strings.ReplaceAll(ticket.Description, "\n", "\n    "))
		}

		return nil
	},
}

// ticketCreateCmd creates a new ticket
var ticketCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new ticket",
	Long: `Create a new ticket in a project.

The --creator user is recorded as the ticket's creator. Assignees are
given by username and may be repeated.

Example:
  trackctl ticket create --project "Website relaunch" --title "Fix header" \
    --creator alice --assign bob --assign carol`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if ticketTitle == "" {
			return fmt.Errorf("--title is required")
		}
		if ticketCreator == "" {
			return fmt.Errorf("--creator is required")
		}

		store, err := openDatabase(ticketDBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		project, err := resolveProject(ctx, store.Projects(), ticketProject, ticketProjectID)
		if err != nil {
			return err
		}

		creator, err := store.Users().GetByUsername(ctx, ticketCreator)
		if err != nil {
			return fmt.Errorf("find creator: %w", err)
		}
		if creator == nil {
			return fmt.Errorf("user '%s' not found", ticketCreator)
		}

		assignees, err := resolveAssignees(ctx, store.Users(), ticketAssignees)
		if err != nil {
			return err
		}

		ticket := models.NewTicket(project.ID, strings.TrimSpace(ticketTitle),
			strings.TrimSpace(ticketDesc), creator.ID)
		ticket.ID = uuid.New().String()
		ticket.Assignees = assignees

		if err := store.Tickets().Create(ctx, ticket); err != nil {
			return fmt.Errorf("create ticket: %w", err)
		}

		fmt.Printf("\nTicket created successfully:\n")
		fmt.Printf("  ID:        %s\n", ticket.ID)
		fmt.Printf("  Title:     %s\n", ticket.Title)
		fmt.Printf("  Project:   %s\n", project.Title)
		fmt.Printf("  Assignees: %s\n", assigneeNames(ticket))

		return nil
	},
}

// ticketDeleteCmd deletes a ticket
var ticketDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a ticket",
	Long: `Delete a ticket from the database.

Examples:
  trackctl ticket delete --id 550e8400-e29b-41d4-a716-446655440000
  trackctl ticket delete --id 550e8400-... --force  # skip confirmation`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if ticketID == "" {
			return fmt.Errorf("--id is required")
		}

		store, err := openDatabase(ticketDBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		ticket, err := store.Tickets().GetByID(ctx, ticketID)
		if err != nil {
			return fmt.Errorf("get ticket: %w", err)
		}
		if ticket == nil {
			return fmt.Errorf("ticket not found: %s", ticketID)
		}

		if !ticketForce && !confirm(fmt.Sprintf("Delete ticket '%s'?", ticket.Title)) {
			fmt.Println("Canceled.")
			return nil
		}

		if err := store.Tickets().Delete(ctx, ticket.ID); err != nil {
			return fmt.Errorf("delete ticket: %w", err)
		}

		fmt.Printf("Ticket deleted: %s\n", ticket.Title)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ticketCmd)
	ticketCmd.AddCommand(ticketListCmd)
	ticketCmd.AddCommand(ticketShowCmd)
	ticketCmd.AddCommand(ticketCreateCmd)
	ticketCmd.AddCommand(ticketDeleteCmd)

	allCmds := []*cobra.Command{ticketListCmd, ticketShowCmd, ticketCreateCmd, ticketDeleteCmd}
	for _, cmd := range allCmds {
		cmd.Flags().StringVar(&ticketDBPath, "db", defaultDBPath, "path to SQLite database file")
	}

	for _, cmd := range []*cobra.Command{ticketListCmd, ticketCreateCmd} {
		cmd.Flags().StringVar(&ticketProject, "project", "", "project title")
		cmd.Flags().StringVar(&ticketProjectID, "project-id", "", "project ID")
	}

	ticketCreateCmd.Flags().StringVar(&ticketTitle, "title", "", "ticket title (required)")
	ticketCreateCmd.Flags().StringVar(&ticketDesc, "description", "", "ticket description")
	ticketCreateCmd.Flags().StringVar(&ticketCreator, "creator", "", "username of the ticket creator (required)")
	ticketCreateCmd.Flags().StringArrayVar(&ticketAssignees, "assign", nil, "username to assign (repeatable)")
	ticketCreateCmd.MarkFlagRequired("title")
	ticketCreateCmd.MarkFlagRequired("creator")

	ticketShowCmd.Flags().StringVar(&ticketID, "id", "", "ticket ID (required)")
	ticketShowCmd.MarkFlagRequired("id")

	ticketDeleteCmd.Flags().StringVar(&ticketID, "id", "", "ticket ID (required)")
	ticketDeleteCmd.Flags().BoolVar(&ticketForce, "force", false, "skip confirmation prompt")
	ticketDeleteCmd.MarkFlagRequired("id")
}

// resolveAssignees looks up each username, failing on the first unknown one.
func resolveAssignees(ctx context.Context, repo storage.UserRepository, usernames []string) ([]*models.User, error) {
	assignees := make([]*models.User, 0, len(usernames))
	for _, name := range usernames {
		u, err := repo.GetByUsername(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("find assignee: %w", err)
		}
		if u == nil {
			return nil, fmt.Errorf("user '%s' not found", name)
		}
		assignees = append(assignees, u)
	}
	return assignees, nil
}

// assigneeNames formats a ticket's assignees as a comma-separated list.
func assigneeNames(t *models.Ticket) string {
	if len(t.Assignees) == 0 {
		return "-"
	}
	names := make([]string, len(t.Assignees))
	for i, u := range t.Assignees {
		names[i] = u.Username
	}
	return strings.Join(names, ", ")
}
