package ih

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"ih-go/internal/model"
)

// DefaultMaxResumeSize is the default bound on inline resume bytes (1MB).
const DefaultMaxResumeSize int64 = 1024 * 1024

var errResumeTooLarge = errors.New("resume exceeds size limit")

// ResumeRef points at resume bytes held in the blob store.
type ResumeRef struct {
	Ref      string
	FileName string
	MimeType string // sniffed from content when empty
}

// InlineResume is the encoded form stored on the application record.
type InlineResume struct {
	Blob     string
	FileName string
	MimeType string
}

// Attachment is a decoded resume ready to hand to a viewer.
type Attachment struct {
	Data     []byte
	FileName string
	MimeType string
}

// ResumeAdapter bridges the blob store and inline resume fields.
type ResumeAdapter struct {
	blobs   BlobStore
	maxSize int64
}

// NewResumeAdapter creates a ResumeAdapter. maxSize <= 0 selects DefaultMaxResumeSize.
func NewResumeAdapter(blobs BlobStore, maxSize int64) *ResumeAdapter {
	if maxSize <= 0 {
		maxSize = DefaultMaxResumeSize
	}
	return &ResumeAdapter{blobs: blobs, maxSize: maxSize}
}

// MaxSize returns the configured byte bound.
func (a *ResumeAdapter) MaxSize() int64 { return a.maxSize }

// Load reads the referenced bytes and encodes them for inline storage.
// Content larger than the bound is rejected, never truncated.
func (a *ResumeAdapter) Load(ctx context.Context, ref ResumeRef) (*InlineResume, error) {
	if strings.TrimSpace(ref.Ref) == "" {
		return nil, invalid("resume", "reference is required")
	}
	name := strings.TrimSpace(ref.FileName)
	if name == "" {
		return nil, invalid("resume", "file name is required")
	}
	if a.blobs == nil {
		return nil, fmt.Errorf("no blob store configured for resumes")
	}

	buf := &boundedBuffer{limit: a.maxSize}
	if err := a.blobs.Get(ctx, ref.Ref, buf); err != nil {
		if errors.Is(err, errResumeTooLarge) {
			return nil, invalid("resume", "file exceeds %d bytes", a.maxSize)
		}
		return nil, fmt.Errorf("reading resume %s: %w", ref.Ref, err)
	}
	data := buf.Bytes()
	if len(data) == 0 {
		return nil, invalid("resume", "file is empty")
	}

	mime := strings.TrimSpace(ref.MimeType)
	if mime == "" {
		mime = mimetype.Detect(data).String()
	}

	return &InlineResume{
		Blob:     base64.StdEncoding.EncodeToString(data),
		FileName: name,
		MimeType: mime,
	}, nil
}

// Open decodes the resume attached to app. It does not validate the content
// against the declared MIME type.
func (a *ResumeAdapter) Open(app *model.Application) (*Attachment, error) {
	if !app.HasResume() {
		return nil, fmt.Errorf("application %s: %w", app.ID, ErrNoResume)
	}
	data, err := base64.StdEncoding.DecodeString(app.ResumeBlob)
	if err != nil {
		return nil, fmt.Errorf("application %s: %w: %v", app.ID, ErrCorruptAttachment, err)
	}
	return &Attachment{
		Data:     data,
		FileName: app.ResumeFileName,
		MimeType: app.ResumeMimeType,
	}, nil
}

// boundedBuffer fails writes that would grow it past limit.
type boundedBuffer struct {
	bytes.Buffer
	limit int64
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	if int64(b.Len()+len(p)) > b.limit {
		return 0, errResumeTooLarge
	}
	return b.Buffer.Write(p)
}
