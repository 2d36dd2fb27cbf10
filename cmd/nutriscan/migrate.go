package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nutriscan/nutriscan/internal/platform"
)

func newMigrateCmd() *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "PostgreSQL URL (default: $DATABASE_URL, then config)")

	run := func(action func(*cobra.Command, *sql.DB) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			url := firstNonEmpty(databaseURL, os.Getenv("DATABASE_URL"), cfg.Server.DatabaseURL)
			db, err := platform.OpenDB(cmd.Context(), url)
			if err != nil {
				return err
			}
			defer db.Close()
			return action(cmd, db)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: run(func(cmd *cobra.Command, db *sql.DB) error {
				if err := platform.AutoMigrate(db); err != nil {
					return err
				}
				return printVersion(cmd, db)
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back all migrations",
			Args:  cobra.NoArgs,
			RunE: run(func(cmd *cobra.Command, db *sql.DB) error {
				if err := platform.MigrateDown(db); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schema rolled back")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			Args:  cobra.NoArgs,
			RunE:  run(printVersion),
		},
	)
	return cmd
}

func printVersion(cmd *cobra.Command, db *sql.DB) error {
	v, dirty, err := platform.MigrationVersion(db)
	if err != nil {
		return err
	}
	suffix := ""
	if dirty {
		suffix = " (dirty)"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d%s\n", v, suffix)
	return nil
}
