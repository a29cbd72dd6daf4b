package cli

import (
	"context"
	"log/slog"

	"github.com/plan-player-analytics/Plan-sub022/internal/backup"
	"github.com/plan-player-analytics/Plan-sub022/internal/store"
)

func openDatabase(ctx context.Context, opts *RootOptions) (*store.Database, error) {
	cfg := opts.config.Database
	slog.Debug("opening database", "driver", cfg.Driver)
	return store.Open(ctx, cfg)
}

func closeDatabase(db *store.Database) {
	if err := db.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// openSink returns the S3 sink when a bucket is configured and a directory
// sink otherwise.
func openSink(ctx context.Context, cfg BackupConfig) (backup.Sink, error) {
	if cfg.S3 != nil && cfg.S3.Bucket != "" {
		slog.Debug("using s3 snapshot sink", "bucket", cfg.S3.Bucket, "prefix", cfg.S3.Prefix)
		return backup.NewS3Sink(ctx, *cfg.S3)
	}
	slog.Debug("using file snapshot sink", "dir", cfg.Dir)
	return backup.NewFileSink(cfg.Dir)
}
