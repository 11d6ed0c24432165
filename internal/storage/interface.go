package storage

import (
	"context"
	"time"
)

// BlobStore keeps opaque blobs. Callers only ever hand out the resolved URL
// form of a key.
type BlobStore interface {
	// Put stores data under a new key inside folder and returns the key
	Put(ctx context.Context, folder string, data []byte, contentType string) (string, error)
	// ResolveURL turns a key (or an already-public URL) into a fetchable URL
	ResolveURL(ctx context.Context, keyOrURL string, expiry time.Duration) (string, error)
	// Delete removes a blob; missing keys are not an error
	Delete(ctx context.Context, key string) error
}

// Ensure implementations satisfy BlobStore
var (
	_ BlobStore = (*S3Store)(nil)
	_ BlobStore = (*MemoryStore)(nil)
)
