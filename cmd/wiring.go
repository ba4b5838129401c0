package cmd

import (
	"context"
	"fmt"

	"stash-ingest/core/config"
	"stash-ingest/core/cursor"
	"stash-ingest/core/database"
	"stash-ingest/core/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// backends holds the optional infrastructure clients shared by the commands.
type backends struct {
	db    *gorm.DB
	store storage.Client
}

// openBackends connects what the configuration asks for. The database is only
// dialled for the database cursor backend; object storage only when enabled.
func openBackends(ctx context.Context, cfg *config.Config, logg *zap.Logger) (*backends, error) {
	b := &backends{}

	if cfg.Cursor.Backend == cursor.BackendDatabase {
		db, err := database.Connect(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		b.db = db
		logg.Info("Connected to cursor database", zap.String("driver", cfg.Database.Driver))
	}

	if cfg.Storage.Enabled {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		if err := storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
			return nil, fmt.Errorf("failed to prepare bucket %s: %w", cfg.Storage.Bucket, err)
		}
		b.store = client
		logg.Info("Object storage ready", zap.String("bucket", cfg.Storage.Bucket))
	}

	return b, nil
}

func (b *backends) cursorStore(ctx context.Context, cfg *config.Config) (cursor.Store, error) {
	s, err := cursor.New(ctx, cfg.Cursor, cursor.Deps{
		DB:      b.db,
		Storage: b.store,
		Bucket:  cfg.Storage.Bucket,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open cursor store: %w", err)
	}
	return s, nil
}

func (b *backends) close() {
	if b.db == nil {
		return
	}
	if sqlDB, err := b.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
