package practice

import (
	"context"
	"io"
)

// Buckets used by the service.
const (
	BucketDocuments   = "documents"
	BucketAttachments = "message_attachments"
)

// BlobStore is the object storage for uploaded files.
// Keys are opaque; the database holds metadata rows referencing them.
type BlobStore interface {
	// Put stores size bytes read from r under bucket/key.
	Put(ctx context.Context, bucket, key string, r io.Reader, size int64) error

	// Get writes the blob at bucket/key to w.
	Get(ctx context.Context, bucket, key string, w io.Writer) error

	// Delete removes the blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, bucket, key string) error

	// ValidateSetup verifies that the store is reachable and writable.
	ValidateSetup(ctx context.Context) error
}
