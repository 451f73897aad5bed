package cmd

import (
	"context"

	"github.com/sonit33/aarya-sub000/internal/config"
	"github.com/sonit33/aarya-sub000/internal/core/store"
)

// openStore connects to the content store and ensures its tables exist.
func openStore(ctx context.Context) (*store.Store, error) {
	cfg := currentConfig()
	if err := cfg.Require(config.NeedStore); err != nil {
		return nil, err
	}

	db, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
