// Command mentorctl runs maintenance tasks against the mentorship database.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nekogravitycat/mentorship-backend/internal/config"
	"github.com/nekogravitycat/mentorship-backend/internal/db"
	"github.com/nekogravitycat/mentorship-backend/internal/pkg/logger"
)

// env is populated by rootCmd before any subcommand runs.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	pool   *pgxpool.Pool
}

var current env

// close releases whatever PersistentPreRunE managed to open.
func (e *env) close() {
	if e.pool != nil {
		e.pool.Close()
	}
	if e.logger != nil {
		_ = e.logger.Sync()
	}
	*e = env{}
}

var rootCmd = &cobra.Command{
	Use:           "mentorctl",
	Short:         "Maintenance commands for the mentorship backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		zl, err := logger.New(cfg.IsProduction)
		if err != nil {
			return err
		}

		pool, err := db.NewPool(cmd.Context(), cfg.DBDSN)
		if err != nil {
			_ = zl.Sync()
			return err
		}

		current = env{cfg: cfg, logger: zl, pool: pool}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, jobsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, rootCmd); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// execute runs cmd and closes the shared environment afterwards, including
// when the command fails.
func execute(ctx context.Context, cmd *cobra.Command) error {
	defer current.close()
	return cmd.ExecuteContext(ctx)
}
