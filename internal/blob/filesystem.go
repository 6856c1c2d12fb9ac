package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"ih-go/internal/ih"
)

// FileSystemStore keeps blobs as files named by their SHA-256:
//
//	<root>/
//	  content/
//	    <sha256>
type FileSystemStore struct {
	root       string
	contentDir string
}

// NewFileSystemStore creates a store rooted at the given path.
func NewFileSystemStore(root string) (*FileSystemStore, error) {
	contentDir := filepath.Join(root, "content")
	if err := os.MkdirAll(contentDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create content directory: %w", err)
	}
	return &FileSystemStore{root: root, contentDir: contentDir}, nil
}

// Put streams r into a temp file while hashing it, then renames the file to
// its reference. Storing the same bytes twice is safe.
func (s *FileSystemStore) Put(ctx context.Context, r io.Reader, size int64) (string, error) {
	tmpFile, err := os.CreateTemp(s.contentDir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	h := sha256.New()
	written, err := io.Copy(io.MultiWriter(tmpFile, h), r)
	if err != nil {
		tmpFile.Close()
		return "", fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	if written != size {
		return "", fmt.Errorf("size mismatch: expected %d bytes, got %d", size, written)
	}

	ref := hex.EncodeToString(h.Sum(nil))
	destPath := filepath.Join(s.contentDir, ref)
	if _, err := os.Stat(destPath); err == nil {
		return ref, nil
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return "", fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return ref, nil
}

// Get writes the content for ref to w.
func (s *FileSystemStore) Get(ctx context.Context, ref string, w io.Writer) error {
	if !validRef(ref) {
		return fmt.Errorf("blob %q: %w", ref, ih.ErrNotFound)
	}
	f, err := os.Open(filepath.Join(s.contentDir, ref))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("blob %s: %w", ref, ih.ErrNotFound)
		}
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	return nil
}

// ValidateSetup verifies that the store directories are accessible.
func (s *FileSystemStore) ValidateSetup(ctx context.Context) error {
	for _, dir := range []string{s.root, s.contentDir} {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("blob directory not accessible: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("blob path is not a directory: %s", dir)
		}
	}
	return nil
}

// validRef reports whether ref looks like a hex SHA-256, which keeps
// lookups inside the content directory.
func validRef(ref string) bool {
	if len(ref) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(ref)
	return err == nil
}

// Compile-time check that FileSystemStore implements ih.BlobStore
var _ ih.BlobStore = (*FileSystemStore)(nil)
