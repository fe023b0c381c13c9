// Package blob provides the object stores that hold uploaded documents and
// message attachments.
package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"lexdesk/internal/practice"
)

// MemoryStore is an in-memory implementation of practice.BlobStore.
// It is useful for testing and is safe for concurrent use.
type MemoryStore struct {
	objects map[string][]byte // "bucket/key" -> content
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func objectKey(bucket, key string) string {
	return bucket + "/" + key
}

// Put stores size bytes read from r.
func (m *MemoryStore) Put(ctx context.Context, bucket, key string, r io.Reader, size int64) error {
	if err := checkKey(bucket, key); err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectKey(bucket, key)] = data
	return nil
}

// Get writes the stored object to w.
func (m *MemoryStore) Get(ctx context.Context, bucket, key string, w io.Writer) error {
	m.mu.RLock()
	data, ok := m.objects[objectKey(bucket, key)]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("blob %s/%s: %w", bucket, key, practice.ErrNotFound)
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write content: %w", err)
	}
	return nil
}

// Delete removes an object. Missing objects are ignored.
func (m *MemoryStore) Delete(ctx context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, objectKey(bucket, key))
	return nil
}

// Has reports whether an object exists.
func (m *MemoryStore) Has(bucket, key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[objectKey(bucket, key)]
	return ok
}

// Len returns the number of stored objects.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

// ValidateSetup always succeeds for the in-memory store.
func (m *MemoryStore) ValidateSetup(ctx context.Context) error {
	return nil
}

var _ practice.BlobStore = (*MemoryStore)(nil)
