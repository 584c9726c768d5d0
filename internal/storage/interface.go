package storage

import (
	"context"
	"io"
)

// ObjectStorage defines the interface for reading feed files from
// S3-compatible object storage.
type ObjectStorage interface {
	// Download retrieves a feed object from storage
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists checks if a feed object exists
	Exists(ctx context.Context, key string) (bool, error)
}
