package ih_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"ih-go/internal/ih"
	"ih-go/internal/model"
	"ih-go/internal/testutil"
)

func TestResumeAdapter_Load(t *testing.T) {
	ctx := context.Background()
	blobs := testutil.NewTestBlobStore()
	put := func(data []byte) string {
		ref, err := blobs.Put(ctx, bytes.NewReader(data), int64(len(data)))
		if err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		return ref
	}
	adapter := ih.NewResumeAdapter(blobs, 64)

	t.Run("encodes and sniffs", func(t *testing.T) {
		ref := put([]byte("%PDF-1.7\n"))
		got, err := adapter.Load(ctx, ih.ResumeRef{Ref: ref, FileName: "uploads/2024/resume.pdf"})
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.FileName != "uploads/2024/resume.pdf" {
			t.Errorf("FileName = %q, want uploads/2024/resume.pdf", got.FileName)
		}
		if got.MimeType != "application/pdf" {
			t.Errorf("MimeType = %q, want application/pdf", got.MimeType)
		}
		if got.Blob != "JVBERi0xLjcK" {
			t.Errorf("Blob = %q, want base64 of content", got.Blob)
		}
	})

	t.Run("declared type wins", func(t *testing.T) {
		ref := put([]byte("plain words"))
		got, err := adapter.Load(ctx, ih.ResumeRef{Ref: ref, FileName: "cv.doc", MimeType: "application/msword"})
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.MimeType != "application/msword" {
			t.Errorf("MimeType = %q, want application/msword", got.MimeType)
		}
	})

	t.Run("exact limit is accepted", func(t *testing.T) {
		ref := put(bytes.Repeat([]byte("a"), 64))
		if _, err := adapter.Load(ctx, ih.ResumeRef{Ref: ref, FileName: "a.txt"}); err != nil {
			t.Errorf("Load() error = %v", err)
		}
	})

	rejected := []struct {
		name    string
		ref     ih.ResumeRef
		wantErr error
	}{
		{"over limit", ih.ResumeRef{Ref: put(bytes.Repeat([]byte("a"), 65)), FileName: "a.txt"}, ih.ErrValidation},
		{"empty content", ih.ResumeRef{Ref: put(nil), FileName: "a.txt"}, ih.ErrValidation},
		{"missing ref", ih.ResumeRef{FileName: "a.txt"}, ih.ErrValidation},
		{"missing file name", ih.ResumeRef{Ref: put([]byte("x"))}, ih.ErrValidation},
		{"unknown ref", ih.ResumeRef{Ref: "0000", FileName: "a.txt"}, ih.ErrNotFound},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := adapter.Load(ctx, tt.ref); !errors.Is(err, tt.wantErr) {
				t.Errorf("Load() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestResumeAdapter_Open(t *testing.T) {
	adapter := ih.NewResumeAdapter(nil, 0)

	if adapter.MaxSize() != ih.DefaultMaxResumeSize {
		t.Errorf("MaxSize() = %d, want default", adapter.MaxSize())
	}

	t.Run("decodes", func(t *testing.T) {
		app := &model.Application{ID: "a1", ResumeBlob: "aGVsbG8=", ResumeFileName: "cv.txt", ResumeMimeType: "text/plain"}
		att, err := adapter.Open(app)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		if string(att.Data) != "hello" || att.FileName != "cv.txt" || att.MimeType != "text/plain" {
			t.Errorf("Open() = %+v", att)
		}
	})

	t.Run("no resume", func(t *testing.T) {
		if _, err := adapter.Open(&model.Application{ID: "a1"}); !errors.Is(err, ih.ErrNoResume) {
			t.Errorf("Open() error = %v, want ErrNoResume", err)
		}
	})

	t.Run("corrupt blob", func(t *testing.T) {
		app := &model.Application{ID: "a1", ResumeBlob: "not base64!!"}
		if _, err := adapter.Open(app); !errors.Is(err, ih.ErrCorruptAttachment) {
			t.Errorf("Open() error = %v, want ErrCorruptAttachment", err)
		}
	})
}
