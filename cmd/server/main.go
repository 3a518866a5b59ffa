package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/qtomo/internal/config"
	"github.com/aristath/qtomo/internal/database"
	"github.com/aristath/qtomo/internal/modules/estimation"
	"github.com/aristath/qtomo/internal/modules/tomography"
	"github.com/aristath/qtomo/internal/scheduler"
	"github.com/aristath/qtomo/internal/server"
	"github.com/aristath/qtomo/pkg/logger"
)

func main() {
	// Initialize logger
	log := logger.New(logger.Config{
		Level:   "info",
		Pretty:  true,
		Service: "qtomo",
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting qtomo tomography service")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Wire the tomography pipeline
	estimator := estimation.NewEstimator(log)
	service := tomography.NewService(estimator, log)
	repo := tomography.NewRunRepository(db.Conn(), log)
	handler := tomography.NewHandler(service, repo, tomography.Defaults{
		ShotsX:    cfg.DefaultShotsX,
		ShotsY:    cfg.DefaultShotsY,
		ShotsZ:    cfg.DefaultShotsZ,
		Restarts:  cfg.DefaultRestarts,
		MaxQubits: cfg.MaxQubits,
	}, log)

	// Initialize scheduler
	sched := scheduler.New(log)
	sched.Start()
	defer sched.Stop()

	// Register background jobs
	if cfg.BenchmarkSchedule != "" {
		benchmark := scheduler.NewBenchmarkJob(service, repo, log)
		if err := sched.AddJob(cfg.BenchmarkSchedule, benchmark); err != nil {
			log.Fatal().Err(err).Msg("Failed to register benchmark job")
		}
	}

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:       cfg.Port,
		Log:        log,
		Config:     cfg,
		Tomography: handler,
		DevMode:    cfg.DevMode,
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
