package ih

import (
	"context"

	"ih-go/internal/model"
)

// Querier is the read side of the application store.
type Querier interface {
	// Get returns the application with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (*model.Application, error)

	// QueryByStudent returns a student's applications in submission order.
	QueryByStudent(ctx context.Context, studentID string) ([]*model.Application, error)

	// QueryByPosting returns the applications for one posting in submission order.
	QueryByPosting(ctx context.Context, postingID string) ([]*model.Application, error)

	// QueryByCompany returns the applications across all of a company's postings
	// in submission order.
	QueryByCompany(ctx context.Context, companyName string) ([]*model.Application, error)
}

// Store is the durable application store and the single source of truth.
// Every successful Create, Update and Delete is published as a Change after commit.
type Store interface {
	Querier

	// Create inserts a new application, assigning ID, AppliedDate and LastUpdated.
	// Returns a *DuplicateError if the (student, posting) pair already exists.
	Create(ctx context.Context, app *model.Application) (*model.Application, error)

	// Update applies m.Apply to the stored application if its version still
	// equals m.ExpectedVersion, otherwise it fails with ErrConflict.
	// A status change is recorded in the status history within the same transaction.
	Update(ctx context.Context, m Mutation) (*model.Application, error)

	// Delete removes an application, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// StatusHistory returns the status audit trail for an application, oldest first.
	StatusHistory(ctx context.Context, id string) ([]*model.StatusChange, error)
}

// Mutation describes a versioned update of one application.
type Mutation struct {
	ID              string
	ExpectedVersion int64
	ActorID         string
	Reason          string // recorded with status changes
	Override        bool   // marks the status change as an audited override

	// Apply changes the application in place. ID, StudentID, PostingID,
	// AppliedDate and LastUpdated are restored by the store after Apply returns.
	Apply func(app *model.Application) error
}
