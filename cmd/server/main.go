package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timw/docuflow/internal/api"
	"github.com/timw/docuflow/internal/config"
	"github.com/timw/docuflow/internal/docupanda"
	"github.com/timw/docuflow/internal/logger"
	"github.com/timw/docuflow/internal/pipeline"
	"github.com/timw/docuflow/internal/repository"
	"github.com/timw/docuflow/internal/sink"
	"github.com/timw/docuflow/internal/staging"
)

func main() {
	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger := logger.NewDefault()
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Optional CloudWatch log shipping
	if cfg.CloudWatch.Enabled {
		hook, err := logger.NewCloudWatchHook(context.Background(), &logger.CloudWatchConfig{
			Region:        cfg.CloudWatch.Region,
			LogGroup:      cfg.CloudWatch.LogGroup,
			LogStream:     cfg.CloudWatch.LogStream,
			RetentionDays: cfg.CloudWatch.RetentionDays,
		})
		if err != nil {
			appLogger.WithError(err).Error("Failed to initialize CloudWatch logging, continuing without it")
		} else {
			appLogger.AddHook(hook)
			appLogger.Infof("CloudWatch logging enabled: group=%s, stream=%s", cfg.CloudWatch.LogGroup, cfg.CloudWatch.LogStream)
		}
	}

	// Initialize run-history database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}
	runRepo := repository.NewRunRepository(db)

	// Initialize pipeline components
	client := docupanda.NewClient(&docupanda.Config{
		BaseURL: cfg.DocuPanda.BaseURL,
		APIKey:  cfg.DocuPanda.APIKey,
		Timeout: cfg.DocuPanda.Timeout,
	})

	stager := staging.NewStager(cfg.Storage.IncomingDir, cfg.Storage.ArchiveDir)

	resultSink, err := sink.New(cfg.Storage.OutputFormat, cfg.Storage.OutputPath, appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize result sink")
	}

	p := pipeline.New(client, stager, resultSink, runRepo, appLogger, pipeline.Config{
		SchemaID:           cfg.DocuPanda.SchemaID,
		WarmupDelay:        cfg.Pipeline.WarmupDelay,
		PollInterval:       cfg.Pipeline.PollInterval,
		MaxAttempts:        cfg.Pipeline.MaxAttempts,
		FailFastPollErrors: cfg.Pipeline.FailFastPollErrors,
		BinaryDir:          cfg.Storage.BinaryDir,
	})

	// Setup router
	router := api.SetupRouter(p, stager, resultSink, runRepo, cfg, appLogger)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLogger.Infof("Starting server on port %d (mode=%s)", cfg.Server.Port, cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
