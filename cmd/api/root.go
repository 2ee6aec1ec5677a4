package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/quillpost/quillpost-go/internal/config"
	"github.com/quillpost/quillpost-go/internal/logging"
	"github.com/quillpost/quillpost-go/internal/repository"
)

var rootCmd = &cobra.Command{
	Use:           "quillpost",
	Short:         "Blog API with account registration and token auth",
	SilenceUsage:  true,
	SilenceErrors: true,
	// Running without a subcommand serves the API.
	RunE: runServe,
}

// bootstrap loads .env and the config and installs the default logger.
func bootstrap() (config.Config, error) {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		return config.Config{}, err
	}

	slog.SetDefault(logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat))
	if envErr != nil {
		slog.Warn("no .env file found, using environment variables")
	}
	return cfg, nil
}

// openDB connects to the store. Failure here is fatal for every command.
func openDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	db, err := repository.NewDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}
