package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ashen-heron/trackd/internal/models"
)

var (
	projectDBPath   string
	projectTitle    string
	projectID       string
	projectNewTitle string
	projectOwner    string
	projectForce    bool
)

// projectCmd represents the project command group
var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project management commands",
	Long: `Commands for managing trackd projects.

Projects group tickets. These commands operate directly on the
database file.

Examples:
  # List all projects
  trackctl project list

  # Create a project owned by a user
  trackctl project create --title "Website relaunch" --owner alice

  # Show project details
  trackctl project show --project "Website relaunch"`,
}

// projectListCmd lists all projects
var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all projects",
	Long: `List all projects in creation order.

Displays project ID, title, ticket count, and creation date.

Example:
  trackctl project list`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDatabase(projectDBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		projects, err := store.Projects().List(ctx)
		if err != nil {
			return fmt.Errorf("list projects: %w", err)
		}

		if len(projects) == 0 {
			fmt.Println("No projects found.")
			return nil
		}

		fmt.Printf("\n%-36s  %-30s  %-8s  %s\n",
			"ID", "TITLE", "TICKETS", "CREATED")
		fmt.Println(strings.Repeat("-", 95))

		for _, p := range projects {
			tickets, err := store.Tickets().ListByProject(ctx, p.ID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not fetch tickets for %s: %v\n", p.Title, err)
			}
			fmt.Printf("%-36s  %-30s  %-8d  %s\n",
				p.ID,
				truncate(p.Title, 30),
				len(tickets),
				p.CreatedAt.Format("2006-01-02 15:04"),
			)
		}
		fmt.Printf("\nTotal: %d project(s)\n", len(projects))

		return nil
	},
}

// projectCreateCmd creates a new project
var projectCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new project",
	Long: `Create a new project in the database.

The --owner user is recorded as the project's creator.

Example:
  trackctl project create --title "Website relaunch" --owner alice`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if projectTitle == "" {
			return fmt.Errorf("--title is required")
		}
		if projectOwner == "" {
			return fmt.Errorf("--owner is required")
		}

		store, err := openDatabase(projectDBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()

		owner, err := store.Users().GetByUsername(ctx, projectOwner)
		if err != nil {
			return fmt.Errorf("find owner: %w", err)
		}
		if owner == nil {
			return fmt.Errorf("user '%s' not found", projectOwner)
		}

		project := models.NewProject(strings.TrimSpace(projectTitle), owner.ID)
		project.ID = uuid.New().String()

		if err := store.Projects().Create(ctx, project); err != nil {
			return fmt.Errorf("create project: %w", err)
		}

		fmt.Printf("\nProject created successfully:\n")
		fmt.Printf("  ID:      %s\n", project.ID)
		fmt.Printf("  Title:   %s\n", project.Title)
		fmt.Printf("  Creator: %s\n", owner.Username)

		return nil
	},
}

// projectShowCmd shows project details
var projectShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show project details",
	Long: `Show detailed information about a project.

You can identify the project by either --project (title) or --project-id.

Examples:
  trackctl project show --project "Website relaunch"
  trackctl project show --project-id 550e8400-e29b-41d4-a716-446655440000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDatabase(projectDBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		project, err := resolveProject(ctx, store.Projects(), projectTitle, projectID)
		if err != nil {
			return err
		}

		tickets, err := store.Tickets().ListByProject(ctx, project.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not fetch tickets: %v\n", err)
		}

		creator := project.CreatedBy
		if u, err := store.Users().GetByID(ctx, project.CreatedBy); err == nil && u != nil {
			creator = u.Username
		}

		fmt.Println("\nProject Details:")
		fmt.Printf("  ID:      %s\n", project.ID)
		fmt.Printf("  Title:   %s\n", project.Title)
		fmt.Printf("  Creator: %s\n", creator)
		fmt.Printf("  Tickets: %d\n", len(tickets))
		fmt.Printf("  Created: %s\n", project.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("  Updated: %s\n", project.UpdatedAt.Format("2006-01-02 15:04:05"))

		return nil
	},
}

// projectUpdateCmd renames a project
var projectUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update a project's title",
	Long: `Update an existing project's title.

Example:
  trackctl project update --project "Website relaunch" --new-title "Website v2"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if projectNewTitle == "" {
			return fmt.Errorf("--new-title is required")
		}

		store, err := openDatabase(projectDBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		project, err := resolveProject(ctx, store.Projects(), projectTitle, projectID)
		if err != nil {
			return err
		}

		project.Title = strings.TrimSpace(projectNewTitle)
		project.UpdatedAt = time.Now()

		if err := store.Projects().Update(ctx, project); err != nil {
			return fmt.Errorf("update project: %w", err)
		}

		fmt.Printf("Project updated: %s\n", project.Title)
		return nil
	},
}

// projectDeleteCmd deletes a project
var projectDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a project",
	Long: `Delete a project from the database.

All tickets in the project are deleted with it.

Examples:
  trackctl project delete --project "Website relaunch"
  trackctl project delete --project "Website relaunch" --force  # skip confirmation`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDatabase(projectDBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		project, err := resolveProject(ctx, store.Projects(), projectTitle, projectID)
		if err != nil {
			return err
		}

		if !projectForce && !confirm(fmt.Sprintf("Delete project '%s' and all its tickets?", project.Title)) {
			fmt.Println("Canceled.")
			return nil
		}

		if err := store.Projects().Delete(ctx, project.ID); err != nil {
			return fmt.Errorf("delete project: %w", err)
		}

		fmt.Printf("Project deleted: %s\n", project.Title)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectShowCmd)
	projectCmd.AddCommand(projectUpdateCmd)
	projectCmd.AddCommand(projectDeleteCmd)

	allCmds := []*cobra.Command{
		projectListCmd, projectCreateCmd, projectShowCmd,
		projectUpdateCmd, projectDeleteCmd,
	}
	for _, cmd := range allCmds {
		cmd.Flags().StringVar(&projectDBPath, "db", defaultDBPath, "path to SQLite database file")
	}

	projectCreateCmd.Flags().StringVar(&projectTitle, "title", "", "project title (required)")
	projectCreateCmd.Flags().StringVar(&projectOwner, "owner", "", "username of the project creator (required)")
	projectCreateCmd.MarkFlagRequired("title")
	projectCreateCmd.MarkFlagRequired("owner")

	for _, cmd := range []*cobra.Command{projectShowCmd, projectUpdateCmd, projectDeleteCmd} {
		cmd.Flags().StringVar(&projectTitle, "project", "", "project title")
		cmd.Flags().StringVar(&projectID, "project-id", "", "project ID")
	}

	projectUpdateCmd.Flags().StringVar(&projectNewTitle, "new-title", "", "new project title")
	projectDeleteCmd.Flags().BoolVar(&projectForce, "force", false, "skip confirmation prompt")
}
