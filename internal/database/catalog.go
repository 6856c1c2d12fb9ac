package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"ih-go/internal/ih"
	"ih-go/internal/model"
)

// SQLiteCatalog serves posting and profile lookups from the local database.
// The core only reads it; PutPosting and PutProfile exist for seeding.
type SQLiteCatalog struct {
	db *sql.DB
}

// NewSQLiteCatalog wraps an open, migrated connection.
func NewSQLiteCatalog(db *sql.DB) *SQLiteCatalog {
	return &SQLiteCatalog{db: db}
}

// GetPosting returns a posting or ih.ErrNotFound.
func (c *SQLiteCatalog) GetPosting(ctx context.Context, postingID string) (*model.Posting, error) {
	var p model.Posting
	err := c.db.QueryRowContext(ctx,
		`SELECT id, title, company_name, is_active FROM postings WHERE id = ?`, postingID).
		Scan(&p.ID, &p.Title, &p.CompanyName, &p.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("posting %s: %w", postingID, ih.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading posting: %w", err)
	}
	return &p, nil
}

// PutPosting inserts or replaces a posting.
func (c *SQLiteCatalog) PutPosting(ctx context.Context, p *model.Posting) error {
	_, err := c.db.ExecContext(ctx, `INSERT INTO postings (id, title, company_name, is_active) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET title = excluded.title, company_name = excluded.company_name, is_active = excluded.is_active`,
		p.ID, p.Title, p.CompanyName, p.IsActive)
	if err != nil {
		return fmt.Errorf("saving posting: %w", err)
	}
	return nil
}

// SetPostingActive opens or closes a posting for new submissions.
func (c *SQLiteCatalog) SetPostingActive(ctx context.Context, postingID string, active bool) error {
	res, err := c.db.ExecContext(ctx, `UPDATE postings SET is_active = ? WHERE id = ?`, active, postingID)
	if err != nil {
		return fmt.Errorf("updating posting: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("posting %s: %w", postingID, ih.ErrNotFound)
	}
	return nil
}

// GetProfile returns a student profile or ih.ErrNotFound.
func (c *SQLiteCatalog) GetProfile(ctx context.Context, studentID string) (*model.Profile, error) {
	var (
		p             model.Profile
		types, skills string
	)
	err := c.db.QueryRowContext(ctx, `SELECT student_id, name, school, course, year_level, city, barangay, preferred_types, skills
		FROM student_profiles WHERE student_id = ?`, studentID).
		Scan(&p.StudentID, &p.Name, &p.School, &p.Course, &p.YearLevel, &p.City, &p.Barangay, &types, &skills)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %s: %w", studentID, ih.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	if err := json.Unmarshal([]byte(types), &p.PreferredTypes); err != nil {
		return nil, fmt.Errorf("decoding preferred types: %w", err)
	}
	if err := json.Unmarshal([]byte(skills), &p.Skills); err != nil {
		return nil, fmt.Errorf("decoding skills: %w", err)
	}
	return &p, nil
}

// PutProfile inserts or replaces a student profile.
func (c *SQLiteCatalog) PutProfile(ctx context.Context, p *model.Profile) error {
	types, err := json.Marshal(nonNil(p.PreferredTypes))
	if err != nil {
		return fmt.Errorf("encoding preferred types: %w", err)
	}
	skills, err := json.Marshal(nonNil(p.Skills))
	if err != nil {
		return fmt.Errorf("encoding skills: %w", err)
	}
	_, err = c.db.ExecContext(ctx, `INSERT OR REPLACE INTO student_profiles
		(student_id, name, school, course, year_level, city, barangay, preferred_types, skills)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.StudentID, p.Name, p.School, p.Course, p.YearLevel, p.City, p.Barangay, string(types), string(skills))
	if err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var (
	_ ih.PostingLookup = (*SQLiteCatalog)(nil)
	_ ih.ProfileLookup = (*SQLiteCatalog)(nil)
)
