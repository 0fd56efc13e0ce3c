package main

import (
	"github.com/spf13/cobra"

	"github.com/nekogravitycat/mentorship-backend/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		migrator, err := db.NewMigrator(current.pool, current.logger.Named("migrate"))
		if err != nil {
			return err
		}
		defer migrator.Close()

		return migrator.Up(cmd.Context())
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which migrations have been applied",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		migrator, err := db.NewMigrator(current.pool, current.logger.Named("migrate"))
		if err != nil {
			return err
		}
		defer migrator.Close()

		return migrator.Status(cmd.Context())
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateStatusCmd)
}
