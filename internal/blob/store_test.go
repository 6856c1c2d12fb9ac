package blob

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ih-go/internal/ih"
)

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// storeContract exercises the behavior every BlobStore shares.
func storeContract(t *testing.T, newStore func(t *testing.T) ih.BlobStore) {
	ctx := context.Background()

	t.Run("put then get", func(t *testing.T) {
		s := newStore(t)
		data := []byte("%PDF-1.4 resume of Maria Santos")

		ref, err := s.Put(ctx, bytes.NewReader(data), int64(len(data)))
		if err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		if ref != sha256Hex(data) {
			t.Errorf("ref = %s, want sha256 of content", ref)
		}

		var got bytes.Buffer
		if err := s.Get(ctx, ref, &got); err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !bytes.Equal(got.Bytes(), data) {
			t.Errorf("Get() = %q, want %q", got.Bytes(), data)
		}
	})

	t.Run("put is idempotent", func(t *testing.T) {
		s := newStore(t)
		data := []byte("same bytes")
		ref1, err := s.Put(ctx, bytes.NewReader(data), int64(len(data)))
		if err != nil {
			t.Fatalf("first Put() error = %v", err)
		}
		ref2, err := s.Put(ctx, bytes.NewReader(data), int64(len(data)))
		if err != nil {
			t.Fatalf("second Put() error = %v", err)
		}
		if ref1 != ref2 {
			t.Errorf("refs differ: %s vs %s", ref1, ref2)
		}
	})

	t.Run("size mismatch", func(t *testing.T) {
		s := newStore(t)
		data := []byte("twelve bytes")
		if _, err := s.Put(ctx, bytes.NewReader(data), 99); err == nil {
			t.Error("Put() with wrong size expected error")
		}
	})

	t.Run("unknown ref", func(t *testing.T) {
		s := newStore(t)
		var buf bytes.Buffer
		err := s.Get(ctx, sha256Hex([]byte("never stored")), &buf)
		if !errors.Is(err, ih.ErrNotFound) {
			t.Errorf("Get() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("validate setup", func(t *testing.T) {
		if err := newStore(t).ValidateSetup(ctx); err != nil {
			t.Errorf("ValidateSetup() error = %v", err)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, func(t *testing.T) ih.BlobStore { return NewMemoryStore() })
}

func TestFileSystemStore(t *testing.T) {
	storeContract(t, func(t *testing.T) ih.BlobStore {
		s, err := NewFileSystemStore(t.TempDir())
		if err != nil {
			t.Fatalf("NewFileSystemStore() error = %v", err)
		}
		return s
	})

	t.Run("creates content directory", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "blobs")
		if _, err := NewFileSystemStore(root); err != nil {
			t.Fatalf("NewFileSystemStore() error = %v", err)
		}
		if info, err := os.Stat(filepath.Join(root, "content")); err != nil || !info.IsDir() {
			t.Errorf("content directory missing: %v", err)
		}
	})

	t.Run("no temp files left behind", func(t *testing.T) {
		root := t.TempDir()
		s, _ := NewFileSystemStore(root)
		data := []byte("cv")
		if _, err := s.Put(context.Background(), bytes.NewReader(data), 5); err == nil {
			t.Fatal("Put() expected size mismatch")
		}
		entries, _ := os.ReadDir(filepath.Join(root, "content"))
		if len(entries) != 0 {
			t.Errorf("content dir has %d entries, want 0", len(entries))
		}
	})

	t.Run("rejects path-like refs", func(t *testing.T) {
		s, _ := NewFileSystemStore(t.TempDir())
		var buf bytes.Buffer
		if err := s.Get(context.Background(), "../../etc/passwd", &buf); !errors.Is(err, ih.ErrNotFound) {
			t.Errorf("Get() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("validate setup fails when root removed", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "blobs")
		s, _ := NewFileSystemStore(root)
		os.RemoveAll(root)
		if err := s.ValidateSetup(context.Background()); err == nil {
			t.Error("ValidateSetup() expected error")
		}
	})
}
