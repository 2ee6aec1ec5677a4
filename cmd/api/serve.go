package main

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quillpost/quillpost-go/internal/metrics"
	"github.com/quillpost/quillpost-go/internal/repository"
	"github.com/quillpost/quillpost-go/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the blog API server",
	Long: `Starts the blog API server. Usage:

	quillpost serve
`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := bootstrap()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.AutoMigrate {
		if err := repository.Migrate(ctx, db); err != nil {
			slog.Error("migration failed", "error", err)
			return err
		}
	}

	srv, err := server.New(ctx, cfg,
		repository.NewUserRepository(db),
		repository.NewBlogRepository(db),
		metrics.New(""),
	)
	if err != nil {
		slog.Error("failed to start server", "error", err)
		return err
	}

	if err := srv.Run(ctx); err != nil {
		slog.Error("server error", "error", err)
		return err
	}
	return nil
}
