package testutil

import (
	"ih-go/internal/blob"
	"ih-go/internal/encryption"
	"ih-go/internal/ih"
)

// NewTestEncryptor creates a deterministic encryptor for testing.
func NewTestEncryptor() ih.Encryptor {
	return encryption.NewTestEncryptor()
}

// NewTestBlobStore creates an in-memory blob store for testing.
func NewTestBlobStore() *blob.MemoryStore {
	return blob.NewMemoryStore()
}
