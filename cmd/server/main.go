package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/comment-moderation-api/internal/advisory"
	"github.com/comment-moderation-api/internal/api"
	"github.com/comment-moderation-api/internal/config"
	"github.com/comment-moderation-api/internal/database"
	"github.com/comment-moderation-api/internal/repository"
	"github.com/comment-moderation-api/internal/service"
	"github.com/comment-moderation-api/pkg/logger"
)

func main() {
	rollback := flag.Bool("migrate-down", false, "roll back the last migration and exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log := logger.New("info", "json")
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info().Msg("Starting Comment Moderation API server...")

	// Initialize database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if *rollback {
		if err := db.MigrateDown(cfg.Server.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("Failed to roll back migration")
		}
		return
	}

	// Run migrations
	if err := db.RunMigrations(cfg.Server.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	store := repository.NewStore(db, cfg.Database.RetryBackoff, log)

	var opts []service.Option
	if cfg.Advisory.URL != "" {
		opts = append(opts, service.WithScorer(
			advisory.NewHTTPScorer(cfg.Advisory.URL, cfg.Advisory.APIKey, cfg.Advisory.Timeout, log),
		))
		log.Info().Str("url", cfg.Advisory.URL).Msg("Advisory scorer enabled")
	}

	services, err := service.NewServices(store, cfg, log, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}

	if cfg.Auth.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is not set, every request is treated as a guest")
	}

	router := api.NewRouter(services, cfg, log, db)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}
