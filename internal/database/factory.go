package database

import (
	"fmt"
	"os"
	"path/filepath"

	"ih-go/internal/config"
	"ih-go/internal/ih"
)

// NewStoreFromConfig creates a store based on the database config type.
// The schema is migrated to the latest version before the store is returned.
func NewStoreFromConfig(cfg config.DatabaseConfig, clock ih.Clock, idgen ih.IDGenerator) (*SQLiteStore, error) {
	var path string
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		path = filepath.Join(cfg.DataDir, "ih.db")
	case "memory":
		path = ":memory:"
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}

	store, err := NewSQLiteStore(path, clock, idgen)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	if err := store.CheckMigrations(); err != nil {
		store.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}
	return store, nil
}
