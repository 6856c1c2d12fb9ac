package database

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"ih-go/internal/ih"
	"ih-go/internal/model"
)

const (
	// DefaultFeedInterval is how often a Feed polls when no interval is given.
	DefaultFeedInterval = time.Second

	// feedLookback is re-read behind the newest version seen, so a write
	// stamped before that version but committed after the previous poll is
	// still delivered.
	feedLookback = 5 * time.Second
)

// Changes returns every application write and withdrawal with a version
// after since, oldest first. Only the latest state of each application is
// visible, so intermediate writes between two calls are not reported.
func (s *SQLiteStore) Changes(ctx context.Context, since int64) ([]ih.Change, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE last_updated > ? ORDER BY last_updated`, since)
	if err != nil {
		return nil, fmt.Errorf("querying changed applications: %w", err)
	}
	var changes []ih.Change
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning application: %w", err)
		}
		changes = append(changes, ih.Change{Kind: ih.ChangeUpdated, Application: *app, Version: app.Version()})
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("iterating applications: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `SELECT application_id, posting_id, student_id, student_email,
		company_name, posting_title, status, applied_date, version
		FROM withdrawals WHERE version > ? ORDER BY version`, since)
	if err != nil {
		return nil, fmt.Errorf("querying withdrawals: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			app              model.Application
			status           string
			applied, version int64
		)
		if err := rows.Scan(&app.ID, &app.PostingID, &app.StudentID, &app.StudentEmail,
			&app.CompanyName, &app.PostingTitle, &status, &applied, &version); err != nil {
			return nil, fmt.Errorf("scanning withdrawal: %w", err)
		}
		if app.Status, err = model.ParseStatus(status); err != nil {
			return nil, fmt.Errorf("withdrawal %s: %w", app.ID, err)
		}
		app.AppliedDate = time.Unix(0, applied).UTC()
		changes = append(changes, ih.Change{Kind: ih.ChangeDeleted, Application: app, Version: version})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating withdrawals: %w", err)
	}

	slices.SortStableFunc(changes, func(a, b ih.Change) int { return cmp.Compare(a.Version, b.Version) })
	return changes, nil
}

// Feed polls a store for changes committed by other processes sharing the
// database file and forwards them to a publisher. Changes the publisher has
// already seen arrive again and must be dropped by version, as the bus does.
type Feed struct {
	store    *SQLiteStore
	pub      ih.Publisher
	interval time.Duration
	logger   ih.Logger
	mark     int64
}

// NewFeed creates a Feed that starts from the store clock's current time.
// interval <= 0 selects DefaultFeedInterval.
func NewFeed(store *SQLiteStore, pub ih.Publisher, interval time.Duration, logger ih.Logger) *Feed {
	if interval <= 0 {
		interval = DefaultFeedInterval
	}
	if logger == nil {
		logger = ih.NewNopLogger()
	}
	return &Feed{
		store:    store,
		pub:      pub,
		interval: interval,
		logger:   logger,
		mark:     store.clock.Now().UnixNano(),
	}
}

// Poll forwards the changes since the previous poll and returns how many
// were forwarded.
func (f *Feed) Poll(ctx context.Context) (int, error) {
	changes, err := f.store.Changes(ctx, f.mark-int64(feedLookback))
	if err != nil {
		return 0, err
	}
	for _, c := range changes {
		f.pub.Publish(c)
		f.mark = max(f.mark, c.Version)
	}
	return len(changes), nil
}

// Run polls every interval until ctx is done.
func (f *Feed) Run(ctx context.Context) error {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := f.Poll(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				f.logger.Warn("polling for changes failed", "error", err)
			}
		}
	}
}
