package testutil

import (
	"context"
	"testing"

	"ih-go/internal/database"
	"ih-go/internal/model"
)

// NewTestStore creates a migrated in-memory application store driven by a
// StubClock and StubIDGenerator. The store is closed when the test completes.
func NewTestStore(t *testing.T, clock *StubClock) *database.SQLiteStore {
	t.Helper()

	if clock == nil {
		clock = FixedClock()
	}
	store, err := database.NewSQLiteStore(":memory:", clock, NewStubIDGenerator())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		t.Fatalf("failed to migrate store: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedPosting stores an open posting in the store's catalog.
func SeedPosting(t *testing.T, store *database.SQLiteStore, id, title, company string) *model.Posting {
	t.Helper()
	p := &model.Posting{ID: id, Title: title, CompanyName: company, IsActive: true}
	if err := store.Catalog().PutPosting(context.Background(), p); err != nil {
		t.Fatalf("failed to seed posting %s: %v", id, err)
	}
	return p
}

// NewApplication builds a pending application as Store.Create expects it.
func NewApplication(student, posting, company string) *model.Application {
	return &model.Application{
		PostingID:    posting,
		StudentID:    student,
		StudentEmail: student + "@students.example.edu",
		CompanyName:  company,
		PostingTitle: "Software Engineering Intern",
		Status:       model.StatusPending,
		CoverLetter:  "I am excited to apply for this internship.",
	}
}
