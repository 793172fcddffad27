package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Job statuses. A job is open while it keeps appearing in sync runs and
// closed once a reconciliation pass notices it stopped appearing.
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

type Company struct {
	ID         int64
	ExternalID string // upstream company id, or the company name when the source has no id
	Name       string
	ShortName  string
}

type Location struct {
	ID       int64
	City     string
	State    string // "" when the location has no state component
	Country  string
	IsRemote bool
}

type SkillCategory struct {
	ID   int64
	Name string
}

type Skill struct {
	ID         int64
	Name       string
	CategoryID int64
}

type Job struct {
	ID              int64
	ExternalJobID   string
	Title           string
	CompanyID       int64
	Description     string
	SalaryMin       *float64
	SalaryMax       *float64
	IsRemote        bool
	PublicationDate *time.Time
	URL             string
	FetchedAt       *time.Time
	LastSeenAt      *time.Time
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// JobFields carries the mutable fields applied on every upsert of a job.
// Identity (ExternalJobID) and timestamps are handled by UpsertJob.
type JobFields struct {
	ExternalJobID   string
	Title           string
	CompanyID       int64
	Description     string
	SalaryMin       *float64
	SalaryMax       *float64
	IsRemote        bool
	PublicationDate *time.Time
	URL             string
}

// SyncRun is one row of the per-run audit log written after a completed
// sync (batch plus reconciliation).
type SyncRun struct {
	ID                string
	StartedAt         time.Time
	FinishedAt        time.Time
	JobsCreated       int
	JobsUpdated       int
	JobsClosed        int
	CompaniesCreated  int
	LocationsCreated  int
	SkillLinksCreated int
	Errors            int
}
