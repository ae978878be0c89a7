package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/niklvrr/IssueTracker/internal/config"
	"github.com/niklvrr/IssueTracker/internal/infrastructure/db"
	"github.com/niklvrr/IssueTracker/internal/infrastructure/repository"
	"github.com/niklvrr/IssueTracker/internal/jobs"
	"github.com/niklvrr/IssueTracker/internal/transport"
	"github.com/niklvrr/IssueTracker/internal/transport/handler"
	"github.com/niklvrr/IssueTracker/internal/usecase/analytics"
	"github.com/niklvrr/IssueTracker/internal/usecase/service"
	"github.com/niklvrr/IssueTracker/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	log, err := logger.NewLogger(cfg.App.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("application stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	pool, err := db.NewDatabase(initCtx, cfg.Database.URL, cfg.Database.MigrationsPath, log)
	cancel()
	if err != nil {
		return err
	}
	defer pool.Close()

	// repositories
	issueRepo := repository.NewIssueRepository(pool, analytics.NewRecorder(time.Now), log)
	analyticsRepo := repository.NewAnalyticsRepository(pool, log)
	formRepo := repository.NewFormRepository(pool, log)

	// services
	issueService := service.NewIssueService(issueRepo, log)
	analyticsService := service.NewAnalyticsService(analyticsRepo, log)
	formService := service.NewFormService(formRepo, log)

	router := transport.NewRouter(transport.Handlers{
		Issue:     handler.NewIssueHandler(issueService, log),
		Analytics: handler.NewAnalyticsHandler(analyticsService, log),
		Form:      handler.NewFormHandler(formService, log),
		Health:    handler.NewHealthHandler(pool, log),
	}, cfg.App.RequestTimeout, log)

	var snapshotJob *jobs.SnapshotJob
	if cfg.Snapshot.Enabled() {
		snapshotJob, err = jobs.NewSnapshotJob(cfg.Snapshot.Cron, cfg.Snapshot.Location, analyticsRepo, analyticsService, log)
		if err != nil {
			return err
		}
		snapshotJob.Start()
	} else {
		log.Info("snapshot job disabled")
	}

	server := transport.NewServer(cfg.App.Port, router, log)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	select {
	case err = <-serverErr:
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancelShutdown()

	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		err = errors.Join(err, shutdownErr)
	}
	if snapshotJob != nil {
		snapshotJob.Stop(shutdownCtx)
	}

	log.Info("application stopped")
	return err
}
