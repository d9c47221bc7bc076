package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nerrad567/firecad/internal/infrastructure/database"
	"github.com/nerrad567/firecad/migrations"
)

// newMigrateCmd manages the archive schema.
func newMigrateCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Archive database migration commands",
		Long: `Manage the analysis archive schema.

Examples:
  firecad migrate up       # Apply all pending migrations
  firecad migrate down     # Roll back the latest migration
  firecad migrate status   # List applied and pending migrations`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDatabase(cmd.Context(), root, func(db *database.DB) error {
				if err := db.Migrate(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the latest migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDatabase(cmd.Context(), root, func(db *database.DB) error {
				if err := db.MigrateDown(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "rolled back latest migration")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDatabase(cmd.Context(), root, func(db *database.DB) error {
				applied, pending, err := db.MigrationStatus(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, m := range applied {
					fmt.Fprintf(out, "applied  %s  %s\n", m.Version, m.AppliedAt.Format("2006-01-02 15:04:05"))
				}
				for _, m := range pending {
					fmt.Fprintf(out, "pending  %s  %s\n", m.Version, m.Name)
				}
				return nil
			})
		},
	})

	return cmd
}

func withDatabase(ctx context.Context, root *rootOptions, fn func(*database.DB) error) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
		Migrations:  migrations.FS,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close() //nolint:errcheck // Short-lived admin connection
	return fn(db)
}
