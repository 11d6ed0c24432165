package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-process BlobStore for local development when no
// bucket is configured. URLs point at baseURL/<key>.
type MemoryStore struct {
	mu      sync.RWMutex
	blobs   map[string]Blob
	baseURL string
}

// Blob is a stored object
type Blob struct {
	Data        []byte
	ContentType string
}

// NewMemoryStore creates an empty store
func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{blobs: make(map[string]Blob), baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Put stores a copy of data
func (m *MemoryStore) Put(ctx context.Context, folder string, data []byte, contentType string) (string, error) {
	key := NewKey(folder, contentType, time.Now())
	buf := make([]byte, len(data))
	copy(buf, data)

	m.mu.Lock()
	m.blobs[key] = Blob{Data: buf, ContentType: contentType}
	m.mu.Unlock()
	return key, nil
}

// ResolveURL returns baseURL/<key>; expiry is ignored
func (m *MemoryStore) ResolveURL(ctx context.Context, keyOrURL string, expiry time.Duration) (string, error) {
	if keyOrURL == "" || IsURL(keyOrURL) {
		return keyOrURL, nil
	}
	m.mu.RLock()
	_, ok := m.blobs[keyOrURL]
	m.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("blob %s not found", keyOrURL)
	}
	return m.baseURL + "/" + keyOrURL, nil
}

// Delete removes key
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.blobs, key)
	m.mu.Unlock()
	return nil
}

// Get returns a stored blob
func (m *MemoryStore) Get(key string) (Blob, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blobs[key]
	return b, ok
}

// Len returns the number of stored blobs
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}
