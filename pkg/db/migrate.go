package db

import (
	"context"
	"fmt"

	"github.com/coolshop/kbbridge/pkg/db/migrations"
	"github.com/coolshop/kbbridge/pkg/kblog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// Migrate applies pending migrations and reports the outcome on logger.
// A nil logger discards the report.
func Migrate(ctx context.Context, db *bun.DB, logger *kblog.Logger) error {
	if logger == nil {
		logger = kblog.Discard()
	}
	migrator := migrate.NewMigrator(db, migrations.Migrations)

	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}

	if group.ID == 0 {
		logger.Info("database is up to date")
		return nil
	}

	logger.Info("database migrated", "group", group.ID, "migrations", len(group.Migrations))
	return nil
}
