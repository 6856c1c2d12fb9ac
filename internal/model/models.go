package model

import (
	"fmt"
	"strings"
	"time"
)

// Status is the review state of an application. The zero value is invalid.
type Status uint8

const (
	StatusPending Status = iota + 1
	StatusReviewed
	StatusShortlisted
	StatusAccepted
	StatusRejected
)

var statusTokens = map[Status]string{
	StatusPending:     "PENDING",
	StatusReviewed:    "REVIEWED",
	StatusShortlisted: "SHORTLISTED",
	StatusAccepted:    "ACCEPTED",
	StatusRejected:    "REJECTED",
}

var statusLabels = map[Status]string{
	StatusPending:     "Pending",
	StatusReviewed:    "Reviewed",
	StatusShortlisted: "Shortlisted",
	StatusAccepted:    "Accepted",
	StatusRejected:    "Rejected",
}

// AllStatuses returns every valid status in workflow order.
func AllStatuses() []Status {
	return []Status{StatusPending, StatusReviewed, StatusShortlisted, StatusAccepted, StatusRejected}
}

// String returns the stable token used in storage and on the command line.
func (s Status) String() string {
	if tok, ok := statusTokens[s]; ok {
		return tok
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// Label returns the human-facing display label.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return "Unknown"
}

// Valid reports whether s is one of the declared statuses.
func (s Status) Valid() bool {
	_, ok := statusTokens[s]
	return ok
}

// IsTerminal reports whether s ends the review timeline.
// This is informational: the workflow does not block moves out of a terminal status.
func (s Status) IsTerminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// ParseStatus parses a status token. Matching is case-insensitive.
func ParseStatus(raw string) (Status, error) {
	want := strings.ToUpper(strings.TrimSpace(raw))
	for s, tok := range statusTokens {
		if tok == want {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown status: %q", raw)
}

// Application is a student's submission against one posting.
// CompanyName and PostingTitle are snapshots taken at submission time.
type Application struct {
	ID           string // UUID, immutable
	PostingID    string
	StudentID    string
	StudentEmail string
	CompanyName  string
	PostingTitle string

	Status       Status
	CompanyNotes string // written by the reviewing company, visible to the student
	CoverLetter  string // set by the student on submission

	ResumeBlob     string // base64 encoded bytes, empty when no resume is attached
	ResumeFileName string
	ResumeMimeType string

	AppliedDate time.Time // immutable
	LastUpdated time.Time // server-assigned, strictly increasing per application
}

// Version returns the optimistic concurrency token for the application.
func (a *Application) Version() int64 {
	return a.LastUpdated.UnixNano()
}

// HasResume reports whether a resume blob is attached.
func (a *Application) HasResume() bool {
	return a.ResumeBlob != ""
}

// Posting is an internship opportunity published by a company.
type Posting struct {
	ID          string
	Title       string
	CompanyName string
	IsActive    bool
}

// Profile is the student profile shown to reviewers.
type Profile struct {
	StudentID      string
	Name           string
	School         string
	Course         string
	YearLevel      int
	City           string
	Barangay       string
	PreferredTypes []string
	Skills         []string
}

// Role identifies which side of the workflow an actor is on.
type Role string

const (
	RoleStudent Role = "student"
	RoleCompany Role = "company"
)

// Actor is the identity performing an operation. It is passed explicitly into
// every mutating call.
type Actor struct {
	ID          string
	Role        Role
	Email       string // students only
	CompanyName string // companies only
}

// Student returns a student actor.
func Student(id, email string) Actor {
	return Actor{ID: id, Role: RoleStudent, Email: email}
}

// Company returns a company actor reviewing on behalf of companyName.
func Company(id, companyName string) Actor {
	return Actor{ID: id, Role: RoleCompany, CompanyName: companyName}
}

// StatusChange is one entry of an application's status audit trail.
type StatusChange struct {
	ID            int64
	ApplicationID string
	From          Status
	To            Status
	ActorID       string
	Reason        string
	Override      bool
	ChangedAt     time.Time
}
