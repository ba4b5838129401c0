package cursor

import (
	"context"
	"fmt"

	"stash-ingest/core/storage"

	"gorm.io/gorm"
)

// Deps carries the optional backends a Store may be built on.
type Deps struct {
	DB      *gorm.DB
	Storage storage.Client
	Bucket  string
}

// New builds the configured store, wrapped with the override when one is set.
func New(ctx context.Context, cfg Config, deps Deps) (Store, error) {
	var s Store
	switch cfg.Backend {
	case BackendFile, "":
		s = NewFile(cfg.Path)
	case BackendDatabase:
		if deps.DB == nil {
			return nil, fmt.Errorf("cursor backend %q requires a database connection", cfg.Backend)
		}
		d := NewDatabase(deps.DB, cfg.Name)
		if err := d.Migrate(ctx); err != nil {
			return nil, err
		}
		s = d
	case BackendObject:
		if deps.Storage == nil {
			return nil, fmt.Errorf("cursor backend %q requires object storage", cfg.Backend)
		}
		s = NewObject(deps.Storage, deps.Bucket, cfg.ObjectKey)
	default:
		return nil, fmt.Errorf("unsupported cursor backend: %s", cfg.Backend)
	}
	return WithOverride(s, cfg.Override), nil
}
