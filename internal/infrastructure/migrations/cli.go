package migrations

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// CLI is the cobra command tree for the migration manager: up, down,
// status, version, create — the operations SPEC_FULL §6.1 names.
type CLI struct {
	manager *MigrationManager
	logger  *slog.Logger
}

// NewCLI constructs a CLI over manager.
func NewCLI(manager *MigrationManager, logger *slog.Logger) *CLI {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLI{manager: manager, logger: logger}
}

// GetRootCommand returns the root cobra command.
func (cli *CLI) GetRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration management tool",
		Long:  "Apply, roll back, and inspect schema migrations for the reservation engine.",
	}

	rootCmd.AddCommand(
		cli.upCommand(),
		cli.downCommand(),
		cli.statusCommand(),
		cli.versionCommand(),
		cli.createCommand(),
	)

	return rootCmd
}

func (cli *CLI) upCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "up [version]",
		Short: "Apply migrations",
		Long:  "Apply all pending migrations, or up to a specific version",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			var err error
			if len(args) == 0 {
				err = cli.manager.Up(ctx)
			} else {
				version, parseErr := strconv.ParseInt(args[0], 10, 64)
				if parseErr != nil {
					return fmt.Errorf("invalid version number: %w", parseErr)
				}
				err = cli.manager.UpTo(ctx, version)
			}
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Println("Migrations applied successfully")
			return nil
		},
	}
	return cmd
}

func (cli *CLI) downCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down [steps]",
		Short: "Rollback migrations",
		Long:  "Rollback all migrations, or a specific number of steps",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			var err error
			if len(args) == 0 {
				err = cli.manager.Down(ctx)
			} else {
				steps, parseErr := strconv.Atoi(args[0])
				if parseErr != nil {
					return fmt.Errorf("invalid number of steps: %w", parseErr)
				}
				for i := 0; i < steps; i++ {
					if downErr := cli.manager.DownByOne(ctx); downErr != nil {
						err = downErr
						break
					}
				}
			}
			if err != nil {
				return fmt.Errorf("rollback failed: %w", err)
			}

			fmt.Println("Migrations rolled back successfully")
			return nil
		},
	}
	return cmd
}

func (cli *CLI) statusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		Long:  "Show the current status of all migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			statuses, err := cli.manager.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			version, err := cli.manager.Version(ctx)
			if err != nil {
				return fmt.Errorf("failed to get current version: %w", err)
			}

			fmt.Printf("Current migration version: %d\n\n", version)
			fmt.Printf("%-10s %-15s %-12s %s\n", "VERSION", "APPLIED", "TIMESTAMP", "DESCRIPTION")
			fmt.Println(strings.Repeat("-", 80))

			for _, status := range statuses {
				applied := "NO"
				if status.IsApplied {
					applied = "YES"
				}
				timestamp := "N/A"
				if !status.Timestamp.IsZero() {
					timestamp = status.Timestamp.Format("2006-01-02 15:04")
				}
				fmt.Printf("%-10d %-15s %-12s %s\n", status.VersionID, applied, timestamp, status.Description)
			}

			return nil
		},
	}
	return cmd
}

func (cli *CLI) versionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show current migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			version, err := cli.manager.Version(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration version: %w", err)
			}

			fmt.Printf("Current migration version: %d\n", version)
			return nil
		},
	}
	return cmd
}

func (cli *CLI) createCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new migration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			filename, err := cli.manager.Create(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to create migration: %w", err)
			}

			fmt.Printf("Created migration file: %s\n", filename)
			return nil
		},
	}
	return cmd
}

// Execute runs the CLI.
func (cli *CLI) Execute() error {
	return cli.GetRootCommand().Execute()
}
