package sqlite

import (
	"context"
	"log/slog"
	"time"
)

const optimizeInterval = time.Hour

// startDatabaseOptimizer runs PRAGMA optimize at start and then hourly until ctx is done.
// See https://www.sqlite.org/pragma.html#pragma_optimize.
func (db *Database) startDatabaseOptimizer(ctx context.Context) {
	db.optimize(ctx, "PRAGMA optimize = 0x10002;")
	ticker := time.NewTicker(optimizeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			db.optimize(ctx, "PRAGMA optimize;")
		}
	}
}

func (db *Database) optimize(ctx context.Context, pragma string) {
	start := time.Now()
	if _, err := db.ReadWrite.ExecContext(ctx, pragma); err != nil {
		if ctx.Err() == nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to optimize database",
				slog.String("pragma", pragma), slog.Any("error", err))
		}
		return
	}
	if ctx.Err() == nil {
		db.logger.LogAttrs(ctx, slog.LevelDebug, "optimized database", slog.Duration("duration", time.Since(start)))
	}
}
