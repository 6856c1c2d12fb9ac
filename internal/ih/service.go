package ih

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"ih-go/internal/model"
)

// DefaultMinNotesLength is the minimum trimmed length of company notes on the
// combined status-and-notes action.
const DefaultMinNotesLength = 20

// IHService is the status transition engine. It validates every mutation
// against the current stored state and writes it through the versioned store.
type IHService struct {
	store    Store
	subs     Subscriber
	postings PostingLookup
	profiles ProfileLookup
	resumes  *ResumeAdapter
	logger   Logger
	minNotes int
}

// NewIHService creates a new IHService with the provided dependencies.
// subs, profiles and resumes may be nil when the caller does not need
// subscriptions, enriched views or resume handling.
func NewIHService(store Store, subs Subscriber, postings PostingLookup, profiles ProfileLookup, resumes *ResumeAdapter, logger Logger) *IHService {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &IHService{
		store:    store,
		subs:     subs,
		postings: postings,
		profiles: profiles,
		resumes:  resumes,
		logger:   logger,
		minNotes: DefaultMinNotesLength,
	}
}

// SetMinNotesLength overrides the note length required by UpdateStatusAndNotes.
func (s *IHService) SetMinNotesLength(n int) {
	if n > 0 {
		s.minNotes = n
	}
}

// SubmitRequest carries a student's submission.
type SubmitRequest struct {
	PostingID   string
	CoverLetter string
	Resume      *ResumeRef // optional
}

// SubmitApplication creates an application in PENDING for the acting student.
// If the student already applied to the posting, the existing application is
// resubmitted: cover letter and resume are replaced, id, status and notes are kept.
func (s *IHService) SubmitApplication(ctx context.Context, actor model.Actor, req SubmitRequest) (*model.Application, error) {
	if actor.Role != model.RoleStudent || actor.ID == "" {
		return nil, fmt.Errorf("only students can submit applications: %w", ErrForbidden)
	}
	coverLetter := strings.TrimSpace(req.CoverLetter)
	if coverLetter == "" {
		return nil, invalid("cover_letter", "must not be blank")
	}

	posting, err := s.postings.GetPosting(ctx, req.PostingID)
	if err != nil {
		return nil, fmt.Errorf("looking up posting %s: %w", req.PostingID, err)
	}
	if !posting.IsActive {
		return nil, fmt.Errorf("posting %s: %w", posting.ID, ErrPostingInactive)
	}

	var resume *InlineResume
	if req.Resume != nil {
		if s.resumes == nil {
			return nil, fmt.Errorf("resume handling is not configured")
		}
		resume, err = s.resumes.Load(ctx, *req.Resume)
		if err != nil {
			return nil, err
		}
	}

	app := &model.Application{
		PostingID:    posting.ID,
		StudentID:    actor.ID,
		StudentEmail: actor.Email,
		CompanyName:  posting.CompanyName,
		PostingTitle: posting.Title,
		Status:       model.StatusPending,
		CoverLetter:  coverLetter,
	}
	setResume(app, resume)

	created, err := s.store.Create(ctx, app)
	if err == nil {
		s.logger.Info("application submitted", "id", created.ID, "student", actor.ID, "posting", posting.ID)
		return created, nil
	}

	var dup *DuplicateError
	if !errors.As(err, &dup) {
		return nil, fmt.Errorf("creating application: %w", err)
	}

	updated, err := s.mutate(ctx, dup.ExistingID, 0, actor.ID, "", false,
		func(current *model.Application) error {
			if current.StudentID != actor.ID {
				return fmt.Errorf("application %s belongs to another student: %w", current.ID, ErrForbidden)
			}
			return nil
		},
		func(a *model.Application) {
			a.CoverLetter = coverLetter
			setResume(a, resume)
		})
	if err != nil {
		return nil, fmt.Errorf("resubmitting application: %w", err)
	}

	s.logger.Info("application resubmitted", "id", updated.ID, "student", actor.ID, "posting", posting.ID)
	return updated, nil
}

func setResume(app *model.Application, resume *InlineResume) {
	if resume == nil {
		return
	}
	app.ResumeBlob = resume.Blob
	app.ResumeFileName = resume.FileName
	app.ResumeMimeType = resume.MimeType
}

// UpdateStatus moves an application to status. Any current status may move to
// REVIEWED, SHORTLISTED, ACCEPTED or REJECTED.
// expectedVersion 0 means the version currently stored.
func (s *IHService) UpdateStatus(ctx context.Context, actor model.Actor, id string, status model.Status, expectedVersion int64) (*model.Application, error) {
	if err := checkReviewTarget(status); err != nil {
		return nil, err
	}

	var from model.Status
	updated, err := s.mutate(ctx, id, expectedVersion, actor.ID, "", false,
		func(current *model.Application) error {
			return authorizeCompany(actor, current)
		},
		func(a *model.Application) {
			from = a.Status
			a.Status = status
		})
	if err != nil {
		return nil, err
	}

	s.logger.Info("status updated", "id", id, "from", from, "to", status, "actor", actor.ID)
	return updated, nil
}

// UpdateNotes replaces the company notes on an application.
func (s *IHService) UpdateNotes(ctx context.Context, actor model.Actor, id string, notes string, expectedVersion int64) (*model.Application, error) {
	notes = strings.TrimSpace(notes)
	updated, err := s.mutate(ctx, id, expectedVersion, actor.ID, "", false,
		func(current *model.Application) error {
			return authorizeCompany(actor, current)
		},
		func(a *model.Application) {
			a.CompanyNotes = notes
		})
	if err != nil {
		return nil, err
	}

	s.logger.Info("notes updated", "id", id, "actor", actor.ID)
	return updated, nil
}

// UpdateStatusAndNotes is the combined "confirm changes" action. Unlike the
// single-field updates it rejects an unchanged status and notes shorter than
// the configured minimum.
func (s *IHService) UpdateStatusAndNotes(ctx context.Context, actor model.Actor, id string, status model.Status, notes string, expectedVersion int64) (*model.Application, error) {
	if err := checkReviewTarget(status); err != nil {
		return nil, err
	}
	notes = strings.TrimSpace(notes)
	if n := utf8.RuneCountInString(notes); n < s.minNotes {
		return nil, invalid("notes", "must be at least %d characters, got %d", s.minNotes, n)
	}

	var from model.Status
	updated, err := s.mutate(ctx, id, expectedVersion, actor.ID, "", false,
		func(current *model.Application) error {
			if err := authorizeCompany(actor, current); err != nil {
				return err
			}
			if current.Status == status {
				return invalid("status", "application is already %s", status)
			}
			return nil
		},
		func(a *model.Application) {
			from = a.Status
			a.Status = status
			a.CompanyNotes = notes
		})
	if err != nil {
		return nil, err
	}

	s.logger.Info("status and notes updated", "id", id, "from", from, "to", status, "actor", actor.ID)
	return updated, nil
}

// OverrideStatus sets any status, PENDING included, and records the change as
// an override with the given reason in the status history.
func (s *IHService) OverrideStatus(ctx context.Context, actor model.Actor, id string, status model.Status, reason string) (*model.Application, error) {
	if !status.Valid() {
		return nil, invalid("status", "unknown status %v", status)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, invalid("reason", "an override requires a reason")
	}

	var from model.Status
	updated, err := s.mutate(ctx, id, 0, actor.ID, reason, true,
		func(current *model.Application) error {
			return authorizeCompany(actor, current)
		},
		func(a *model.Application) {
			from = a.Status
			a.Status = status
		})
	if err != nil {
		return nil, err
	}

	s.logger.Warn("status overridden", "id", id, "from", from, "to", status, "actor", actor.ID, "reason", reason)
	return updated, nil
}

// Withdraw deletes an application on behalf of the student who owns it.
// Withdrawal is allowed in every status.
func (s *IHService) Withdraw(ctx context.Context, actor model.Actor, id string) error {
	if actor.Role != model.RoleStudent {
		return fmt.Errorf("only the applying student can withdraw: %w", ErrForbidden)
	}
	app, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if app.StudentID != actor.ID {
		return fmt.Errorf("application %s belongs to another student: %w", id, ErrForbidden)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("application withdrawn", "id", id, "student", actor.ID, "status", app.Status)
	return nil
}

// mutate validates and applies a change. A caller holding a stale
// expectedVersion gets ErrConflict immediately. A conflict caused by a write
// landing between the read here and the store update is retried exactly once,
// after re-reading and re-validating against the fresh state.
// expectedVersion 0 accepts whatever version is stored.
func (s *IHService) mutate(ctx context.Context, id string, expectedVersion int64, actorID, reason string, override bool, validate func(*model.Application) error, apply func(*model.Application)) (*model.Application, error) {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if expectedVersion != 0 && current.Version() != expectedVersion {
		return nil, fmt.Errorf("application %s is at version %d, expected %d: %w",
			id, current.Version(), expectedVersion, ErrConflict)
	}

	for attempt := 0; ; attempt++ {
		if err := validate(current); err != nil {
			return nil, err
		}

		updated, err := s.store.Update(ctx, Mutation{
			ID:              id,
			ExpectedVersion: current.Version(),
			ActorID:         actorID,
			Reason:          reason,
			Override:        override,
			Apply: func(a *model.Application) error {
				apply(a)
				return nil
			},
		})
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, ErrConflict) || attempt > 0 {
			return nil, err
		}

		s.logger.Warn("version conflict, retrying against fresh state", "id", id, "version", current.Version())
		current, err = s.store.Get(ctx, id)
		if err != nil {
			return nil, err
		}
	}
}

func checkReviewTarget(status model.Status) error {
	switch status {
	case model.StatusReviewed, model.StatusShortlisted, model.StatusAccepted, model.StatusRejected:
		return nil
	case model.StatusPending:
		return invalid("status", "PENDING can only be restored by an override")
	default:
		return invalid("status", "unknown status %v", status)
	}
}

// authorizeCompany enforces that only the company reviewing the application
// writes status and notes.
func authorizeCompany(actor model.Actor, app *model.Application) error {
	if actor.Role != model.RoleCompany {
		return fmt.Errorf("only the reviewing company can change application %s: %w", app.ID, ErrForbidden)
	}
	if actor.CompanyName != app.CompanyName {
		return fmt.Errorf("application %s belongs to another company: %w", app.ID, ErrForbidden)
	}
	return nil
}
