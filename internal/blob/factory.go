package blob

import (
	"context"
	"fmt"

	"ih-go/internal/config"
	"ih-go/internal/ih"
)

// NewBlobStoreFromConfig creates a BlobStore based on the blob store config type.
func NewBlobStoreFromConfig(ctx context.Context, cfg config.BlobStoreConfig) (ih.BlobStore, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(), nil
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem blob store requires fs_root to be set")
		}
		return NewFileSystemStore(cfg.FSRoot)
	case "s3":
		return NewS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown blob store type: %s", cfg.Type)
	}
}
