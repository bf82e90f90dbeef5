package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/mjansen/recipebox/internal/config"
	"github.com/mjansen/recipebox/internal/db"
	"github.com/mjansen/recipebox/internal/logging"
	"github.com/mjansen/recipebox/internal/media"
	"github.com/mjansen/recipebox/internal/server"
	"github.com/mjansen/recipebox/internal/services"
)

var (
	migrateOnlyFlag   = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	superuserEmail    = flag.String("create-superuser", "", "Create a superuser with this email and exit (password from SUPERUSER_PASSWORD)")
	superuserPassword = flag.String("superuser-password", "", "Password for -create-superuser (overrides SUPERUSER_PASSWORD)")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := config.Load()
	logging.Init(cfg.Env)

	dbConn, err := db.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	if err := db.Migrate(dbConn); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	if *migrateOnlyFlag {
		log.Info().Msg("migrations completed")
		return
	}

	if *superuserEmail != "" {
		password := *superuserPassword
		if password == "" {
			password = os.Getenv("SUPERUSER_PASSWORD")
		}
		users := services.NewUserService(dbConn)
		if _, violations, err := users.CreateSuperuser(*superuserEmail, password); err != nil {
			log.Fatal().Err(err).Interface("violations", violations).Msg("superuser creation failed")
		}
		log.Info().Str("email", *superuserEmail).Msg("superuser created")
		return
	}

	store, err := buildMediaStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("media store setup failed")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server.New(dbConn, cfg, store),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("server stopped")
}

func buildMediaStore(cfg config.Config) (media.Store, error) {
	if cfg.MediaBackend == "s3" {
		return media.NewS3Store(context.Background(), media.S3Config{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			BaseEndpoint: cfg.S3BaseEndpoint,
		})
	}
	return media.NewFSStore(cfg.MediaDir), nil
}
