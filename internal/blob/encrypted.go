package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"ih-go/internal/ih"
)

// ErrLocked is returned by EncryptedStore.Get before Unlock.
var ErrLocked = errors.New("blob store is locked (passphrase required)")

// EncryptedStore encrypts content before it reaches the wrapped store.
// Writing needs only the public key; reading needs Unlock.
type EncryptedStore struct {
	inner ih.BlobStore
	enc   ih.Encryptor

	mu  sync.RWMutex
	dec ih.DecryptionContext
}

// NewEncryptedStore wraps inner with enc.
func NewEncryptedStore(inner ih.BlobStore, enc ih.Encryptor) *EncryptedStore {
	return &EncryptedStore{inner: inner, enc: enc}
}

// Unlock opens the private key for subsequent reads.
func (s *EncryptedStore) Unlock(passphrase string) error {
	dec, err := s.enc.Unlock(passphrase)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dec = dec
	return nil
}

// Put encrypts r and stores the ciphertext. The returned reference names
// the ciphertext.
func (s *EncryptedStore) Put(ctx context.Context, r io.Reader, size int64) (string, error) {
	counted := &countingReader{r: r}
	var buf bytes.Buffer
	if err := s.enc.Encrypt(counted, &buf); err != nil {
		return "", fmt.Errorf("encrypting content: %w", err)
	}
	if counted.n != size {
		return "", fmt.Errorf("size mismatch: expected %d bytes, got %d", size, counted.n)
	}
	return s.inner.Put(ctx, &buf, int64(buf.Len()))
}

// Get decrypts the content for ref into w.
func (s *EncryptedStore) Get(ctx context.Context, ref string, w io.Writer) error {
	s.mu.RLock()
	dec := s.dec
	s.mu.RUnlock()
	if dec == nil {
		return ErrLocked
	}

	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(s.inner.Get(ctx, ref, pw))
	}()
	err := dec.Decrypt(pr, w)
	pr.Close()
	return err
}

// ValidateSetup checks the wrapped store and that keys exist.
func (s *EncryptedStore) ValidateSetup(ctx context.Context) error {
	if !s.enc.IsConfigured() {
		return fmt.Errorf("encryption keys not found (run 'ih keys init')")
	}
	return s.inner.ValidateSetup(ctx)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Compile-time check that EncryptedStore implements ih.BlobStore
var _ ih.BlobStore = (*EncryptedStore)(nil)
