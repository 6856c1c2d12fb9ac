package ih

import (
	"context"

	"ih-go/internal/model"
)

// PostingLookup reads postings. Returns ErrNotFound for unknown ids.
type PostingLookup interface {
	GetPosting(ctx context.Context, postingID string) (*model.Posting, error)
}

// ProfileLookup reads student profiles. Returns ErrNotFound for unknown ids.
type ProfileLookup interface {
	GetProfile(ctx context.Context, studentID string) (*model.Profile, error)
}
