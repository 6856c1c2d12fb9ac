package blob

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sync"

	"ih-go/internal/ih"
)

// MemoryStore is an in-memory implementation of ih.BlobStore.
// It is useful for tests and the throwaway memory configuration.
// This implementation is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	content map[string][]byte // ref -> content
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{content: make(map[string][]byte)}
}

// Put stores content and returns its SHA-256 reference.
func (m *MemoryStore) Put(ctx context.Context, r io.Reader, size int64) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read content: %w", err)
	}
	if int64(len(data)) != size {
		return "", fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	sum := sha256.Sum256(data)
	ref := hex.EncodeToString(sum[:])

	m.mu.Lock()
	defer m.mu.Unlock()
	m.content[ref] = data
	return ref, nil
}

// Get writes the content for ref to w.
func (m *MemoryStore) Get(ctx context.Context, ref string, w io.Writer) error {
	m.mu.RLock()
	data, ok := m.content[ref]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("blob %s: %w", ref, ih.ErrNotFound)
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write content: %w", err)
	}
	return nil
}

// ValidateSetup always succeeds for the in-memory store.
func (m *MemoryStore) ValidateSetup(ctx context.Context) error {
	return nil
}

// Len returns the number of stored blobs.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.content)
}

// Compile-time check that MemoryStore implements ih.BlobStore
var _ ih.BlobStore = (*MemoryStore)(nil)
