package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	api "github.com/rpupo63/portfolio-projects-backend/api"
	"github.com/rpupo63/portfolio-projects-backend/config"
	"github.com/rpupo63/portfolio-projects-backend/database"
	"github.com/rpupo63/portfolio-projects-backend/models"
	"github.com/rpupo63/portfolio-projects-backend/services"
)

func main() {
	// Environment variables win over values from .env
	cfg, err := config.Load(".env")
	setupLogging(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("Error loading .env file")
	}
	log.Info().Msg("Initializing app...")

	ctx := context.Background()

	db, err := database.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to database")
	}
	currentDB := database.New(db)

	// If generating models, run generation and exit
	if config.GetBool(cfg, "GENERATE_MODELS", false) {
		log.Info().Msg("Generating query helpers...")
		if err := currentDB.Schema().EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("Error preparing schema")
		}
		if err := models.GenerateModels(db, os.Stdout); err != nil {
			log.Fatal().Err(err).Msg("Error generating models")
		}
		return
	}

	// If generating column mismatch report, run report and exit
	if config.GetBool(cfg, "GENERATE_COLUMN_REPORT", false) {
		if _, err := models.GenerateColumnMismatchReport(db, os.Stdout); err != nil {
			log.Fatal().Err(err).Msg("Error generating column report")
		}
		return
	}

	// Failing here only delays setup to the first request
	if err := currentDB.Schema().EnsureSchema(ctx); err != nil {
		log.Warn().Err(err).Msg("Schema not ready at startup")
	}

	opts := []api.Option{api.WithConfig(cfg)}

	var cleaner *services.ImageCleaner
	cleanupTimeout := config.GetSeconds(cfg, "IMAGE_DELETE_TIMEOUT_SECONDS", 15)
	if config.GetString(cfg, "IMAGE_BUCKET", "") != "" {
		store, err := services.NewS3ImageStoreFromConfig(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Error configuring image storage")
		}
		cleaner = services.NewImageCleaner(store, cleanupTimeout)
		opts = append(opts, api.WithImageUploader(store))
		log.Info().Str("bucket", config.GetString(cfg, "IMAGE_BUCKET", "")).Msg("Images stored in S3")
	} else {
		cleaner = services.NewImageCleaner(nil, cleanupTimeout)
		log.Info().Str("dir", config.GetString(cfg, "UPLOAD_DIR", "assets")).Msg("Images stored on local disk")
	}
	opts = append(opts, api.WithImageCleaner(cleaner))

	credentials, err := services.NewCredentialChecker(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading admin credentials")
	}
	opts = append(opts, api.WithCredentialChecker(credentials))

	// Room for both the listener and the signal watcher to report
	errChannel := make(chan error, 2)

	server, err := api.NewServer(currentDB, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing server")
	}

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	log.Info().Msgf("Closing server: %v", fatalErr)

	server.ShutdownGracefully(30 * time.Second)
	cleaner.Wait()
}

// setupLogging configures the global zerolog logger from LOG_LEVEL and
// LOG_FORMAT ("console" or "json").
func setupLogging(cfg map[string]string) {
	level, err := zerolog.ParseLevel(config.GetString(cfg, "LOG_LEVEL", "info"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if config.GetString(cfg, "LOG_FORMAT", "console") == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}
