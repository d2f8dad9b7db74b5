// Package cmd contains the CLI commands for trackctl.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ashen-heron/trackd/internal/models"
	"github.com/ashen-heron/trackd/internal/storage"
)

// defaultDBPath is the default database path, can be overridden via TRACKD_DB_PATH env var
var defaultDBPath = "./data/trackd.db"

func init() {
	if envPath := os.Getenv("TRACKD_DB_PATH"); envPath != "" {
		defaultDBPath = envPath
	}
}

var (
	// Used for flags
	verbose bool
	output  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "trackctl",
	Short: "trackctl - trackd administration tool",
	Long: `trackctl manages users, projects, and tickets directly on the
trackd database file, bypassing the HTTP API. It is intended for
system administrators and local maintenance.

Examples:
  # List all users
  trackctl user list

  # Create a user (password prompted interactively)
  trackctl user create --username alice --email alice@example.com

  # List tickets in a project
  trackctl ticket list --project "Website relaunch"`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "output format (table, json)")
}

// GetOutput returns the output format.
func GetOutput() string {
	return output
}

// PrintVerbose prints a message only if verbose mode is enabled.
func PrintVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Printf(format+"\n", args...)
	}
}

// openDatabase opens the SQLite database.
func openDatabase(path string) (*storage.SQLiteStorage, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("database file not found: %s", path)
	}

	store := storage.NewSQLiteStorage(path)
	if err := store.Open(); err != nil {
		return nil, fmt.Errorf("open database at %s: %w", path, err)
	}

	return store, nil
}

// resolveProject finds a project by title or ID (ID takes precedence).
func resolveProject(ctx context.Context, repo storage.ProjectRepository, title, id string) (*models.Project, error) {
	if id == "" && title == "" {
		return nil, fmt.Errorf("specify --project or --project-id")
	}
	if id != "" {
		p, err := repo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get project: %w", err)
		}
		if p == nil {
			return nil, fmt.Errorf("project not found: %s", id)
		}
		return p, nil
	}
	projects, err := repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	for _, p := range projects {
		if p.Title == title {
			return p, nil
		}
	}
	return nil, fmt.Errorf("project not found: %s", title)
}

// resolveUser finds a user by username or ID.
func resolveUser(ctx context.Context, repo storage.UserRepository, username, userID string) (*models.User, error) {
	if userID == "" && username == "" {
		return nil, fmt.Errorf("specify --username or --user-id")
	}
	if userID != "" {
		u, err := repo.GetByID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("get user: %w", err)
		}
		if u == nil {
			return nil, fmt.Errorf("user not found: %s", userID)
		}
		return u, nil
	}
	u, err := repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return nil, fmt.Errorf("user not found: %s", username)
	}
	return u, nil
}

// truncate truncates a string to the given length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-2] + ".."
}

// confirm asks a yes/no question on stdin.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	var answer string
	fmt.Scanln(&answer)
	return strings.EqualFold(answer, "y")
}
