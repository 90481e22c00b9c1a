package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bako110/Anniv/internal/config"
	"github.com/bako110/Anniv/internal/connect"
	"github.com/bako110/Anniv/internal/container"
	"github.com/bako110/Anniv/internal/jobs"
	"github.com/bako110/Anniv/internal/metrics"
	"github.com/bako110/Anniv/internal/models"
	"github.com/bako110/Anniv/internal/routes"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	_ = godotenv.Load(".env.local")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup logger
	logger := setupLogger(cfg)
	slog.SetDefault(logger)
	logger.Info("Starting Anniv API server", "environment", cfg.Environment)

	// Initialize database connections
	db, err := connect.PostgresConnect(cfg)
	if err != nil {
		logger.Error("Failed to connect to Postgres", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to Postgres successfully")

	if cfg.AutoMigrate {
		if err := models.AutoMigrate(db); err != nil {
			logger.Error("Failed to migrate schema", "error", err)
			os.Exit(1)
		}
		logger.Info("Schema migrated")
	}

	supaClient, err := connect.InitSupabase(cfg)
	if err != nil {
		logger.Error("Failed to connect to Supabase", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to Supabase successfully")

	mongoClient, err := connect.MongoDBConnect(cfg)
	if err != nil {
		logger.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to MongoDB successfully")

	// Initialize dependency container
	appContainer := container.NewContainer(logger, cfg, metrics.New(logger), supaClient, mongoClient, db)

	indexCtx, indexCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := appContainer.Profiles.EnsureProfileIndexes(indexCtx); err != nil {
		logger.Warn("Failed to ensure profile indexes", "error", err)
	}
	indexCancel()

	sweeper := jobs.NewPresenceSweepJob(appContainer.Profiles, cfg.PresenceIdle, appContainer.Metrics, logger)
	scheduler, err := jobs.Schedule(sweeper, jobs.PresenceSweepSchedule)
	if err != nil {
		logger.Error("Failed to schedule presence sweep", "error", err)
		os.Exit(1)
	}

	// Setup routes
	router := routes.SetupRoutes(appContainer)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	<-scheduler.Stop().Done()
	appContainer.TokenValidator.Close()

	// Close database connections
	if err := connect.PostgresDisconnect(db); err != nil {
		logger.Error("Error disconnecting from Postgres", "error", err)
	}
	if err := connect.MongoDBDisconnect(mongoClient); err != nil {
		logger.Error("Error disconnecting from MongoDB", "error", err)
	}

	logger.Info("Server exited")
}

func setupLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	if cfg.IsProduction() {
		// JSON logging for production
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: parseLevel(cfg.LogLevel, slog.LevelInfo),
		})
	} else {
		// Human-readable logging for development
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: parseLevel(cfg.LogLevel, slog.LevelDebug),
		})
	}

	return slog.New(handler)
}

func parseLevel(raw string, def slog.Level) slog.Level {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return def
}
