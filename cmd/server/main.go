// Package main implements the entry point for the TaskFlow API server, which
// serves task management over HTTP and pushes task changes to privileged
// websocket sessions.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/taskflow-api/internal/config"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/spf13/pflag"
)

func main() {
	flags := pflag.NewFlagSet("taskflow-api", pflag.ExitOnError)
	flags.Int("port", 8080, "HTTP listen port")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("uploads-dir", "uploads", "directory for task attachments")
	migrate := flags.String("migrate", "", "run a migration command (up, down, status, version, reset) and exit")
	_ = flags.Parse(os.Args[1:])

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, flags, *migrate); err != nil {
		log.Fatalf("taskflow-api: %v", err)
	}
}

// run loads configuration and either executes a migration command or serves
// until ctx is canceled.
func run(ctx context.Context, flags *pflag.FlagSet, migrateCmd string) error {
	cfg, err := config.LoadWithFlags(flags)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(logger.LoggerConfig{Level: cfg.Server.LogLevel})
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	l.Info("Server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel))

	if migrateCmd != "" {
		return runMigrations(ctx, cfg, migrateCmd, l)
	}

	db, err := setupAppDatabase(ctx, cfg, l)
	if err != nil {
		return err
	}

	app, err := newApplication(ctx, cfg, l, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}
