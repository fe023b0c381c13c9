package blob

import (
	"context"
	"fmt"

	"lexdesk/internal/config"
	"lexdesk/internal/practice"
)

// NewBlobStoreFromConfig creates a BlobStore based on the storage config type.
func NewBlobStoreFromConfig(ctx context.Context, cfg config.StorageConfig) (practice.BlobStore, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(), nil
	case "s3":
		s, err := NewS3Store(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem storage requires fs_root to be set")
		}
		s, err := NewFileSystemStore(cfg.FSRoot)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
