package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"ih-go/internal/ih"
	"ih-go/internal/model"
)

// twoProcesses opens two stores on one database file.
func twoProcesses(t *testing.T) (writer, reader *SQLiteStore) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ih.db")

	open := func() *SQLiteStore {
		s, err := NewSQLiteStore(path, fixedClock{testNow}, &seqIDs{})
		if err != nil {
			t.Fatalf("NewSQLiteStore() error = %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	}
	writer = open()
	if err := writer.Migrate(); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return writer, open()
}

func TestFeed_Poll(t *testing.T) {
	ctx := context.Background()
	writer, reader := twoProcesses(t)
	rec := &recordingPublisher{}
	feed := NewFeed(reader, rec, time.Hour, nil)

	if n, err := feed.Poll(ctx); err != nil || n != 0 {
		t.Fatalf("Poll() on empty database = %d, %v", n, err)
	}

	app := mustCreate(t, writer, newApplication("s1", "p1", "Acme"))
	if n, err := feed.Poll(ctx); err != nil || n != 1 {
		t.Fatalf("Poll() after create = %d, %v", n, err)
	}

	updated, err := writer.Update(ctx, ih.Mutation{ID: app.ID, ExpectedVersion: app.Version(), ActorID: "c1", Apply: setStatus(model.StatusShortlisted)})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if err := writer.Delete(ctx, app.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := feed.Poll(ctx); err != nil {
		t.Fatalf("Poll() error = %v", err)
	}

	changes := rec.all()
	last := changes[len(changes)-1]
	if last.Kind != ih.ChangeDeleted {
		t.Fatalf("last change = %v, want deleted", last.Kind)
	}
	if last.Version <= updated.Version() {
		t.Errorf("withdrawal version %d not after %d", last.Version, updated.Version())
	}
	if last.Application.StudentID != "s1" || last.Application.CompanyName != "Acme" || last.Application.PostingID != "p1" {
		t.Errorf("withdrawal scopes = %+v", last.Application)
	}
	if last.Application.Status != model.StatusShortlisted {
		t.Errorf("withdrawal status = %v, want last stored status", last.Application.Status)
	}
	for i := 1; i < len(changes); i++ {
		if changes[i].Version < changes[i-1].Version {
			t.Errorf("changes out of order at %d", i)
		}
	}
}

func TestSQLiteStore_Changes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	mustCreate(t, s, newApplication("s1", "p1", "Acme"))
	b := mustCreate(t, s, newApplication("s2", "p1", "Acme"))
	b, err := s.Update(ctx, ih.Mutation{ID: b.ID, ExpectedVersion: b.Version(), Apply: setStatus(model.StatusReviewed)})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	changes, err := s.Changes(ctx, testNow.UnixNano())
	if err != nil {
		t.Fatalf("Changes() error = %v", err)
	}
	if len(changes) != 1 || changes[0].Application.ID != b.ID || changes[0].Version != b.Version() {
		t.Errorf("Changes() = %+v, want only the update of %s", changes, b.ID)
	}

	changes, err = s.Changes(ctx, b.Version())
	if err != nil {
		t.Fatalf("Changes() error = %v", err)
	}
	if len(changes) != 0 {
		t.Errorf("Changes() after newest = %d, want 0", len(changes))
	}
}

func TestFeed_Run(t *testing.T) {
	writer, reader := twoProcesses(t)
	rec := &recordingPublisher{}
	feed := NewFeed(reader, rec, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- feed.Run(ctx) }()

	mustCreate(t, writer, newApplication("s1", "p1", "Acme"))

	deadline := time.After(2 * time.Second)
	for len(rec.all()) == 0 {
		select {
		case <-deadline:
			t.Fatal("feed did not forward the write")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}
