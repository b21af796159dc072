package main

import (
	"fmt"
	"time"

	"palisade-hq/palisade/pkg/config"
	"palisade-hq/palisade/pkg/keys"
	keystore "palisade-hq/palisade/pkg/keys/store"
	"palisade-hq/palisade/pkg/usage"
	usagestorage "palisade-hq/palisade/pkg/usage/storage"
)

// openKeyStore builds the configured credential store.
func openKeyStore(cfg *config.Config) (keystore.Store, error) {
	codec, err := keys.NewCodec(cfg.Keys.Prefix, cfg.Keys.SecretBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create key codec: %w", err)
	}

	switch cfg.Keys.Backend {
	case "sqlite":
		store, err := keystore.NewSQLiteStore(keystore.SQLiteConfig{Path: cfg.Keys.SQLitePath}, codec)
		if err != nil {
			return nil, fmt.Errorf("failed to open credential store: %w", err)
		}
		return store, nil
	case "memory":
		return keystore.NewMemoryStore(codec), nil
	default:
		return nil, fmt.Errorf("unsupported keys backend: %s", cfg.Keys.Backend)
	}
}

// openUsageStorage builds the configured request log backend.
func openUsageStorage(cfg *config.Config) (usage.Storage, error) {
	switch cfg.Usage.Backend {
	case "sqlite":
		store, err := usagestorage.NewSQLiteStorage(&usagestorage.SQLiteConfig{
			Path:         cfg.Usage.SQLitePath,
			MaxOpenConns: 10,
			MaxIdleConns: 5,
			WALMode:      true,
			BusyTimeout:  5 * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open request log storage: %w", err)
		}
		return store, nil
	case "memory":
		return usagestorage.NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unsupported usage backend: %s", cfg.Usage.Backend)
	}
}
