package ih

import (
	"context"
	"io"
)

// BlobStore stores opaque byte content by reference.
// References are content-addressed, so Put is idempotent.
type BlobStore interface {
	// Put stores size bytes read from r and returns the reference.
	Put(ctx context.Context, r io.Reader, size int64) (string, error)

	// Get writes the content for ref to w. Unknown refs return ErrNotFound.
	Get(ctx context.Context, ref string, w io.Writer) error

	// ValidateSetup verifies the store is reachable and writable.
	ValidateSetup(ctx context.Context) error
}
