package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"ih-go/internal/database/migrations"
	"ih-go/internal/ih"
	"ih-go/internal/model"
)

// SQLiteStore implements ih.Store on SQLite.
// Versions are the last_updated column in unix nanoseconds; every write is a
// compare-and-swap on that column.
type SQLiteStore struct {
	db    *sql.DB
	path  string
	clock ih.Clock
	idgen ih.IDGenerator

	mu        sync.RWMutex
	publisher ih.Publisher
}

// NewSQLiteStore opens a store at path (a file path or ":memory:").
// A nil clock or idgen selects the real implementation.
func NewSQLiteStore(path string, clock ih.Clock, idgen ih.IDGenerator) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	s := NewSQLiteStoreFromDB(db, clock, idgen)
	s.path = path
	return s, nil
}

// NewSQLiteStoreFromDB wraps an existing connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteStoreFromDB(db *sql.DB, clock ih.Clock, idgen ih.IDGenerator) *SQLiteStore {
	if clock == nil {
		clock = ih.RealClock{}
	}
	if idgen == nil {
		idgen = ih.UUIDGenerator{}
	}
	return &SQLiteStore{db: db, clock: clock, idgen: idgen}
}

// OpenConnection opens and configures a SQLite connection.
// The pool is limited to one connection: SQLite has a single writer, and an
// in-memory database exists only on the connection that created it.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", p, err)
		}
	}
	return db, nil
}

// SetPublisher registers the receiver of committed changes.
func (s *SQLiteStore) SetPublisher(p ih.Publisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publisher = p
}

func (s *SQLiteStore) publish(change ih.Change) {
	s.mu.RLock()
	p := s.publisher
	s.mu.RUnlock()
	if p != nil {
		p.Publish(change)
	}
}

// stamp returns a timestamp strictly after prev.
func (s *SQLiteStore) stamp(prev time.Time) time.Time {
	now := s.clock.Now().UTC()
	if !now.After(prev) {
		now = prev.Add(time.Nanosecond)
	}
	return now
}

const applicationColumns = `id, posting_id, student_id, student_email, company_name, posting_title,
	status, company_notes, cover_letter, resume_blob, resume_file_name, resume_mime_type,
	applied_date, last_updated`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*model.Application, error) {
	var (
		app          model.Application
		status       string
		applied, upd int64
	)
	err := row.Scan(&app.ID, &app.PostingID, &app.StudentID, &app.StudentEmail, &app.CompanyName, &app.PostingTitle,
		&status, &app.CompanyNotes, &app.CoverLetter, &app.ResumeBlob, &app.ResumeFileName, &app.ResumeMimeType,
		&applied, &upd)
	if err != nil {
		return nil, err
	}
	app.Status, err = model.ParseStatus(status)
	if err != nil {
		return nil, fmt.Errorf("application %s: %w", app.ID, err)
	}
	app.AppliedDate = time.Unix(0, applied).UTC()
	app.LastUpdated = time.Unix(0, upd).UTC()
	return &app, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getApplication(ctx context.Context, q queryer, id string) (*model.Application, error) {
	row := q.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = ?`, id)
	app, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("application %s: %w", id, ih.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading application: %w", err)
	}
	return app, nil
}

// Get returns one application.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.Application, error) {
	return getApplication(ctx, s.db, id)
}

func (s *SQLiteStore) queryApplications(ctx context.Context, where string, arg string) ([]*model.Application, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE `+where+` = ? ORDER BY applied_date, rowid`, arg)
	if err != nil {
		return nil, fmt.Errorf("querying applications: %w", err)
	}
	defer rows.Close()

	var result []*model.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning application: %w", err)
		}
		result = append(result, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating applications: %w", err)
	}
	return result, nil
}

// QueryByStudent returns a student's applications in submission order.
func (s *SQLiteStore) QueryByStudent(ctx context.Context, studentID string) ([]*model.Application, error) {
	return s.queryApplications(ctx, "student_id", studentID)
}

// QueryByPosting returns a posting's applications in submission order.
func (s *SQLiteStore) QueryByPosting(ctx context.Context, postingID string) ([]*model.Application, error) {
	return s.queryApplications(ctx, "posting_id", postingID)
}

// QueryByCompany returns a company's applications in submission order.
func (s *SQLiteStore) QueryByCompany(ctx context.Context, companyName string) ([]*model.Application, error) {
	return s.queryApplications(ctx, "company_name", companyName)
}

// Create inserts app with a fresh ID and timestamps.
// The (student_id, posting_id) uniqueness key turns a second submission into
// a *ih.DuplicateError carrying the existing id.
func (s *SQLiteStore) Create(ctx context.Context, app *model.Application) (*model.Application, error) {
	if !app.Status.Valid() {
		return nil, fmt.Errorf("invalid status %v: %w", app.Status, ih.ErrValidation)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if existing, err := findByPair(ctx, tx, app.StudentID, app.PostingID); err != nil {
		return nil, err
	} else if existing != "" {
		return nil, &ih.DuplicateError{ExistingID: existing}
	}

	created := *app
	created.ID = s.idgen.New()
	now := s.stamp(time.Time{})
	created.AppliedDate = now
	created.LastUpdated = now

	_, err = tx.ExecContext(ctx, `INSERT INTO applications (`+applicationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		created.ID, created.PostingID, created.StudentID, created.StudentEmail, created.CompanyName, created.PostingTitle,
		created.Status.String(), created.CompanyNotes, created.CoverLetter,
		created.ResumeBlob, created.ResumeFileName, created.ResumeMimeType,
		created.AppliedDate.UnixNano(), created.LastUpdated.UnixNano())
	if err != nil {
		if isUniqueViolation(err) {
			// Lost a race with another process writing the same pair.
			existing, ferr := findByPair(ctx, tx, app.StudentID, app.PostingID)
			if ferr == nil && existing != "" {
				return nil, &ih.DuplicateError{ExistingID: existing}
			}
		}
		return nil, fmt.Errorf("inserting application: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	s.publish(ih.Change{Kind: ih.ChangeCreated, Application: created, Version: created.Version()})
	return &created, nil
}

func findByPair(ctx context.Context, tx *sql.Tx, studentID, postingID string) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM applications WHERE student_id = ? AND posting_id = ?`, studentID, postingID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("checking for existing application: %w", err)
	}
	return id, nil
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}

// Update applies a versioned mutation in a single transaction.
func (s *SQLiteStore) Update(ctx context.Context, m ih.Mutation) (*model.Application, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := getApplication(ctx, tx, m.ID)
	if err != nil {
		return nil, err
	}
	if current.Version() != m.ExpectedVersion {
		return nil, fmt.Errorf("application %s is at version %d, expected %d: %w",
			m.ID, current.Version(), m.ExpectedVersion, ih.ErrConflict)
	}

	next := *current
	if m.Apply != nil {
		if err := m.Apply(&next); err != nil {
			return nil, err
		}
	}
	// Identity, snapshots and timestamps are not the mutator's to change.
	next.ID = current.ID
	next.PostingID = current.PostingID
	next.StudentID = current.StudentID
	next.StudentEmail = current.StudentEmail
	next.CompanyName = current.CompanyName
	next.PostingTitle = current.PostingTitle
	next.AppliedDate = current.AppliedDate
	next.LastUpdated = s.stamp(current.LastUpdated)
	if !next.Status.Valid() {
		return nil, fmt.Errorf("invalid status %v: %w", next.Status, ih.ErrValidation)
	}

	res, err := tx.ExecContext(ctx, `UPDATE applications
		SET status = ?, company_notes = ?, cover_letter = ?,
		    resume_blob = ?, resume_file_name = ?, resume_mime_type = ?, last_updated = ?
		WHERE id = ? AND last_updated = ?`,
		next.Status.String(), next.CompanyNotes, next.CoverLetter,
		next.ResumeBlob, next.ResumeFileName, next.ResumeMimeType, next.LastUpdated.UnixNano(),
		next.ID, m.ExpectedVersion)
	if err != nil {
		return nil, fmt.Errorf("updating application: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("checking update result: %w", err)
	} else if n == 0 {
		return nil, fmt.Errorf("application %s changed concurrently: %w", m.ID, ih.ErrConflict)
	}

	if next.Status != current.Status {
		_, err := tx.ExecContext(ctx, `INSERT INTO status_history
			(application_id, from_status, to_status, actor_id, reason, override, changed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			next.ID, current.Status.String(), next.Status.String(), m.ActorID, m.Reason, m.Override,
			next.LastUpdated.UnixNano())
		if err != nil {
			return nil, fmt.Errorf("recording status change: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	s.publish(ih.Change{Kind: ih.ChangeUpdated, Application: next, Version: next.Version()})
	return &next, nil
}

// Delete removes an application and its status history and leaves a
// withdrawal record for Feed.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := getApplication(ctx, tx, id)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM applications WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting application: %w", err)
	}

	tombstone := s.stamp(current.LastUpdated).UnixNano()
	_, err = tx.ExecContext(ctx, `INSERT OR REPLACE INTO withdrawals
		(application_id, posting_id, student_id, student_email, company_name, posting_title, status, applied_date, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		current.ID, current.PostingID, current.StudentID, current.StudentEmail, current.CompanyName,
		current.PostingTitle, current.Status.String(), current.AppliedDate.UnixNano(), tombstone)
	if err != nil {
		return fmt.Errorf("recording withdrawal: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	s.publish(ih.Change{Kind: ih.ChangeDeleted, Application: *current, Version: tombstone})
	return nil
}

// StatusHistory returns the status changes of an application, oldest first.
func (s *SQLiteStore) StatusHistory(ctx context.Context, id string) ([]*model.StatusChange, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, application_id, from_status, to_status, actor_id, reason, override, changed_at
		FROM status_history WHERE application_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("querying status history: %w", err)
	}
	defer rows.Close()

	var result []*model.StatusChange
	for rows.Next() {
		var (
			c        model.StatusChange
			from, to string
			changed  int64
		)
		if err := rows.Scan(&c.ID, &c.ApplicationID, &from, &to, &c.ActorID, &c.Reason, &c.Override, &changed); err != nil {
			return nil, fmt.Errorf("scanning status change: %w", err)
		}
		if c.From, err = model.ParseStatus(from); err != nil {
			return nil, err
		}
		if c.To, err = model.ParseStatus(to); err != nil {
			return nil, err
		}
		c.ChangedAt = time.Unix(0, changed).UTC()
		result = append(result, &c)
	}
	return result, rows.Err()
}

// Catalog returns the posting and profile lookups sharing this connection.
func (s *SQLiteStore) Catalog() *SQLiteCatalog {
	return NewSQLiteCatalog(s.db)
}

// Path returns the database file path (or ":memory:").
func (s *SQLiteStore) Path() string {
	return s.path
}

// Migrate applies pending schema migrations.
func (s *SQLiteStore) Migrate() error {
	return migrations.Up(s.db)
}

// CheckMigrations verifies the schema is up to date.
func (s *SQLiteStore) CheckMigrations() error {
	return migrations.Check(s.db)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteStore implements ih.Store
var _ ih.Store = (*SQLiteStore)(nil)
