package app

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestIHHandler_Handle(t *testing.T) {
	ts := time.Date(2024, 6, 15, 14, 30, 45, 0, time.UTC)

	tests := []struct {
		name    string
		session string
		level   slog.Level
		message string
		attrs   []slog.Attr
		want    string
	}{
		{
			name:    "basic info message",
			session: "20240615T143045Z",
			level:   slog.LevelInfo,
			message: "application submitted",
			want:    "2024-06-15T14:30:45Z\tINFO\t20240615T143045Z\tapplication submitted\n",
		},
		{
			name:    "warn level",
			session: "s-2",
			level:   slog.LevelWarn,
			message: "version conflict, retrying against fresh state",
			want:    "2024-06-15T14:30:45Z\tWARN\ts-2\tversion conflict, retrying against fresh state\n",
		},
		{
			name:    "with record attrs",
			session: "s-3",
			level:   slog.LevelInfo,
			message: "status updated",
			attrs:   []slog.Attr{slog.String("from", "PENDING"), slog.String("to", "SHORTLISTED")},
			want:    "2024-06-15T14:30:45Z\tINFO\ts-3\tstatus updated\tfrom=PENDING\tto=SHORTLISTED\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := &ihHandler{w: &buf, session: tt.session}

			r := slog.NewRecord(ts, tt.level, tt.message, 0)
			for _, a := range tt.attrs {
				r.AddAttrs(a)
			}

			if err := h.Handle(context.Background(), r); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}

			if got := buf.String(); got != tt.want {
				t.Errorf("Handle() output =\n%q\nwant:\n%q", got, tt.want)
			}
		})
	}
}

func TestIHHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := &ihHandler{w: &buf, session: "s-1", attrs: []slog.Attr{slog.String("a", "1")}}

	h2 := h.WithAttrs([]slog.Attr{slog.String("component", "bus")}).(*ihHandler)

	if len(h.attrs) != 1 {
		t.Errorf("original handler attrs modified: got %d, want 1", len(h.attrs))
	}

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := slog.NewRecord(ts, slog.LevelInfo, "subscription opened", 0)
	r.AddAttrs(slog.String("scope", "posting"))

	if err := h2.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	got := buf.String()
	for _, want := range []string{"a=1", "component=bus", "scope=posting"} {
		if !strings.Contains(got, want) {
			t.Errorf("output %q missing %s", got, want)
		}
	}
}

func TestIHHandler_Enabled(t *testing.T) {
	tests := []struct {
		handlerLevel slog.Level
		level        slog.Level
		want         bool
	}{
		{slog.LevelDebug, slog.LevelDebug, true},
		{slog.LevelInfo, slog.LevelDebug, false},
		{slog.LevelInfo, slog.LevelInfo, true},
		{slog.LevelInfo, slog.LevelError, true},
	}
	for _, tt := range tests {
		h := &ihHandler{level: tt.handlerLevel}
		if got := h.Enabled(context.Background(), tt.level); got != tt.want {
			t.Errorf("handler %v Enabled(%v) = %v, want %v", tt.handlerLevel, tt.level, got, tt.want)
		}
	}
}

func TestFanout(t *testing.T) {
	var all, important bytes.Buffer
	logger := slog.New(fanout{
		&ihHandler{w: &all, session: "s", level: slog.LevelDebug},
		&ihHandler{w: &important, session: "s", level: slog.LevelInfo},
	})

	logger.Debug("subscription closed")
	logger.Info("application withdrawn", "id", "app-1")

	if n := strings.Count(all.String(), "\n"); n != 2 {
		t.Errorf("debug handler got %d lines, want 2", n)
	}
	if strings.Contains(important.String(), "subscription closed") {
		t.Error("info handler received a debug record")
	}
	if !strings.Contains(important.String(), "id=app-1") {
		t.Errorf("info handler output = %q", important.String())
	}
}

func TestNewLogger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "log")

	logger, f, err := newLogger(dir, "test-session")
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}
	defer f.Close()

	logger.Debug("written to file only")

	data, err := os.ReadFile(filepath.Join(dir, "ih.log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "\ttest-session\twritten to file only") {
		t.Errorf("log file = %q", data)
	}
}
