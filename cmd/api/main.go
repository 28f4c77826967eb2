package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	app "github.com/yash-jain-1224/crm-dashboard/internal/application/upload"
	"github.com/yash-jain-1224/crm-dashboard/internal/bootstrap"
	"github.com/yash-jain-1224/crm-dashboard/internal/config"
	"github.com/yash-jain-1224/crm-dashboard/internal/infrastructure/db"
	"github.com/yash-jain-1224/crm-dashboard/internal/infrastructure/repository"
	"github.com/yash-jain-1224/crm-dashboard/internal/infrastructure/taskstore"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := bootstrap.NewLogger(bootstrap.LoggerConfig{
		Development: cfg.Development(),
		Level:       cfg.LogLevel,
		File:        cfg.LogFile,
	})
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	gdb, err := db.Open(db.Config{
		URL:             cfg.DatabaseURL,
		Debug:           cfg.Development(),
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}

	entities := repository.NewEntityRepository(gdb)
	importer := app.NewRowImporter(entities, entities)

	// On PostgreSQL the per-batch key lookup goes straight through pgx.
	if db.IsPostgres(cfg.DatabaseURL) {
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("failed to create pgx pool", zap.Error(err))
		}
		defer pool.Close()
		importer = app.NewRowImporter(entities, repository.NewNaturalKeyRepository(pool))
	}

	tasks := taskstore.NewMemoryStore()
	sweeper := taskstore.NewSweeper(tasks, cfg.TaskRetention, cfg.TaskSweepSchedule, logger)
	if err := sweeper.Start(); err != nil {
		logger.Fatal("failed to start task sweeper", zap.Error(err))
	}

	runCtx, stopRuns := context.WithCancel(context.Background())
	defer stopRuns()
	background := app.NewBackground(runCtx, cfg.MaxConcurrentRuns, logger)

	runner := app.NewBatchRunner(importer, app.BatchRunnerConfig{BatchSize: cfg.BatchSize}, logger)
	server := bootstrap.NewHTTPServer(bootstrap.UploadDeps{
		Tasks:        tasks,
		Runner:       runner,
		Background:   background,
		MaxFileBytes: cfg.MaxFileBytes,
		CORSOrigins:  cfg.CORSOrigins,
		UploadConfig: app.StartBulkUploadConfig{
			MaxFileBytes:       cfg.MaxFileBytes,
			AsyncRowThreshold:  cfg.AsyncRowThreshold,
			AsyncSizeThreshold: cfg.AsyncSizeThreshold,
		},
	}, logger)

	go func() {
		logger.Info("http server listening", zap.String("port", cfg.Port))
		if err := server.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}

	// Running uploads stop at their next batch boundary and mark themselves failed.
	stopRuns()
	if err := background.Wait(ctx); err != nil {
		logger.Warn("background uploads did not finish in time", zap.Error(err))
	}
	sweeper.Stop()
}
