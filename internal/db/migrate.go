package db

import (
	"context"
	"log/slog"

	"github.com/udisondev/clans/internal/db/migrations"
)

// Migrate brings the clan schema up to date.
func (d *DB) Migrate(ctx context.Context) error {
	applied, err := migrations.Up(ctx, d.pool)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		slog.Debug("clan schema up to date")
		return nil
	}
	slog.Info("clan schema migrated", "versions", applied)
	return nil
}
