package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/mentorship-backend/internal/app"
	"github.com/nekogravitycat/mentorship-backend/internal/config"
	"github.com/nekogravitycat/mentorship-backend/internal/db"
	"github.com/nekogravitycat/mentorship-backend/internal/pkg/logger"
)

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.IsProduction)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	// Connect DB
	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		zl.Fatal("failed to connect to db", zap.Error(err))
	}
	defer pool.Close()

	if cfg.RunMigrations {
		migrator, err := db.NewMigrator(pool, zl.Named("migrate"))
		if err != nil {
			zl.Fatal("failed to init migrator", zap.Error(err))
		}
		err = migrator.Up(ctx)
		_ = migrator.Close()
		if err != nil {
			zl.Fatal("failed to apply migrations", zap.Error(err))
		}
	}

	container, err := app.NewContainer(app.ConfigFrom(cfg, pool, zl))
	if err != nil {
		zl.Fatal("failed to build application", zap.Error(err))
	}

	// Background jobs stop with ctx
	jobsDone := make(chan struct{})
	if cfg.RunJobs {
		go func() {
			defer close(jobsDone)
			if err := container.Jobs.Run(ctx); err != nil {
				zl.Error("background jobs exited", zap.Error(err))
			}
		}()
	} else {
		close(jobsDone)
	}

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           container.Router,
		ReadHeaderTimeout: 10 * time.Second,
		// Request contexts end with ctx so open SSE streams return on shutdown.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	// Run server in separate goroutine
	go func() {
		zl.Info("server running", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for Ctrl+C
	<-ctx.Done()
	zl.Info("shutdown signal received")

	// Create a shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		zl.Warn("server forced to shutdown", zap.Error(err))
	}

	select {
	case <-jobsDone:
	case <-shutdownCtx.Done():
		zl.Warn("background jobs did not stop in time")
	}

	zl.Info("server exited gracefully")
}
