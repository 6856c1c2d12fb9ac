package ih

import (
	"context"
	"errors"
	"fmt"

	"ih-go/internal/model"
)

// ApplicationView is an application enriched with its posting and the
// applicant's profile. Posting and Profile are nil when the lookup has no record.
type ApplicationView struct {
	Application *model.Application
	Posting     *model.Posting
	Profile     *model.Profile
}

// Get returns one application.
func (s *IHService) Get(ctx context.Context, id string) (*model.Application, error) {
	return s.store.Get(ctx, id)
}

// GetView returns an application with posting and profile details.
func (s *IHService) GetView(ctx context.Context, id string) (*ApplicationView, error) {
	app, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	view := &ApplicationView{Application: app}

	posting, err := s.postings.GetPosting(ctx, app.PostingID)
	switch {
	case err == nil:
		view.Posting = posting
	case !errors.Is(err, ErrNotFound):
		return nil, fmt.Errorf("looking up posting %s: %w", app.PostingID, err)
	}

	if s.profiles != nil {
		profile, err := s.profiles.GetProfile(ctx, app.StudentID)
		switch {
		case err == nil:
			view.Profile = profile
		case !errors.Is(err, ErrNotFound):
			return nil, fmt.Errorf("looking up profile %s: %w", app.StudentID, err)
		}
	}
	return view, nil
}

// ListByStudent returns a student's applications.
func (s *IHService) ListByStudent(ctx context.Context, studentID string) ([]*model.Application, error) {
	return s.store.QueryByStudent(ctx, studentID)
}

// ListByPosting returns the applications to one posting.
func (s *IHService) ListByPosting(ctx context.Context, postingID string) ([]*model.Application, error) {
	return s.store.QueryByPosting(ctx, postingID)
}

// ListByCompany returns the applications across a company's postings.
func (s *IHService) ListByCompany(ctx context.Context, companyName string) ([]*model.Application, error) {
	return s.store.QueryByCompany(ctx, companyName)
}

// StatusHistory returns the status audit trail of an application.
func (s *IHService) StatusHistory(ctx context.Context, id string) ([]*model.StatusChange, error) {
	return s.store.StatusHistory(ctx, id)
}

// OpenResume returns the decoded resume attached to an application.
func (s *IHService) OpenResume(ctx context.Context, id string) (*Attachment, error) {
	app, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.resumes == nil {
		return nil, fmt.Errorf("resume handling is not configured")
	}
	return s.resumes.Open(app)
}

// SubscribeOne opens a live view of one application.
func (s *IHService) SubscribeOne(ctx context.Context, id string) (DocStream, error) {
	if s.subs == nil {
		return nil, errNoSubscriber
	}
	return s.subs.SubscribeOne(ctx, id)
}

// SubscribeByStudent opens a live view of a student's applications.
func (s *IHService) SubscribeByStudent(ctx context.Context, studentID string) (ListStream, error) {
	if s.subs == nil {
		return nil, errNoSubscriber
	}
	return s.subs.SubscribeByStudent(ctx, studentID)
}

// SubscribeByPosting opens a live view of one posting's applications.
func (s *IHService) SubscribeByPosting(ctx context.Context, postingID string) (ListStream, error) {
	if s.subs == nil {
		return nil, errNoSubscriber
	}
	return s.subs.SubscribeByPosting(ctx, postingID)
}

// SubscribeByCompany opens a live view of a company's applications.
func (s *IHService) SubscribeByCompany(ctx context.Context, companyName string) (ListStream, error) {
	if s.subs == nil {
		return nil, errNoSubscriber
	}
	return s.subs.SubscribeByCompany(ctx, companyName)
}

var errNoSubscriber = errors.New("subscriptions are not configured")
