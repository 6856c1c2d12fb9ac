package ih

import (
	"context"

	"ih-go/internal/model"
)

// ChangeKind classifies a store mutation.
type ChangeKind int

const (
	ChangeCreated ChangeKind = iota + 1
	ChangeUpdated
	ChangeDeleted
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Change is a committed store mutation. Application holds the full document
// after the change; for deletes it holds the last stored state.
// Version increases for every change of the same document, deletes included.
type Change struct {
	Kind        ChangeKind
	Application model.Application
	Version     int64
}

// Publisher receives committed changes from the store. Publish must not block
// on subscribers.
type Publisher interface {
	Publish(change Change)
}

// DocUpdate is one delivery of a single-application subscription.
type DocUpdate struct {
	Application model.Application
	Deleted     bool
}

// DocStream is a live view of one application.
// The first value is the current snapshot. Close must be called to release it.
type DocStream interface {
	C() <-chan DocUpdate
	Close()
}

// ListStream is a live view of a query's result set.
// Every value is the complete list; the first value is the current snapshot.
// Close must be called to release it.
type ListStream interface {
	C() <-chan []model.Application
	Close()
}

// Subscriber opens live views. Subscriptions end when Close is called or ctx is done.
type Subscriber interface {
	SubscribeOne(ctx context.Context, id string) (DocStream, error)
	SubscribeByStudent(ctx context.Context, studentID string) (ListStream, error)
	SubscribeByPosting(ctx context.Context, postingID string) (ListStream, error)
	SubscribeByCompany(ctx context.Context, companyName string) (ListStream, error)
}
