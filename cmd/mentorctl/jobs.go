package main

import (
	"github.com/spf13/cobra"

	"github.com/nekogravitycat/mentorship-backend/internal/app"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Run background reconciliation jobs",
}

var jobsRunOnceCmd = &cobra.Command{
	Use:   "run-once",
	Short: "Run every reconciliation job once and exit",
	Long: `Completes ended sessions, expires unapproved sessions that have started,
sends due session reminders and removes past open slots, then exits.

Useful from cron when the server runs with background jobs disabled.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		container, err := app.NewContainer(app.ConfigFrom(current.cfg, current.pool, current.logger))
		if err != nil {
			return err
		}
		return container.Jobs.RunOnce(cmd.Context())
	},
}

func init() {
	jobsCmd.AddCommand(jobsRunOnceCmd)
}
