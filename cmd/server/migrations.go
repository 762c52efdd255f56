package main

import (
	"context"
	"log/slog"

	"github.com/phrazzld/taskflow-api/internal/config"
	"github.com/phrazzld/taskflow-api/internal/platform/postgres"
	"go.uber.org/multierr"
)

// runMigrations executes a single goose command against the configured
// database and closes the connection.
func runMigrations(ctx context.Context, cfg *config.Config, command string, logger *slog.Logger) (err error) {
	logger.Info("Executing migrations", slog.String("command", command))

	db, err := setupAppDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, db.Close()) }()

	return postgres.Migrate(ctx, db, command, logger)
}
