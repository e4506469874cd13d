package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrValidation is the base error for rejected input. Specific
	// validation errors wrap it so callers can match with errors.Is.
	ErrValidation = errors.New("invalid input")

	// ErrNotFound is the base error for missing reference targets.
	ErrNotFound = errors.New("not found")

	ErrEmptyProjectName = fmt.Errorf("%w: project name is required", ErrValidation)
	ErrEmptyMemberName  = fmt.Errorf("%w: member name is required", ErrValidation)
	ErrInvalidYear      = fmt.Errorf("%w: year out of range", ErrValidation)
	ErrInvalidMonth     = fmt.Errorf("%w: month must be between 1 and 12", ErrValidation)
	ErrNegativeHours    = fmt.Errorf("%w: hours must not be negative", ErrValidation)

	ErrProjectNotFound = fmt.Errorf("project %w", ErrNotFound)
	ErrMemberNotFound  = fmt.Errorf("member %w", ErrNotFound)
)

type (
	// Project is a tracked engagement. Rows are created once and never
	// mutated or deleted.
	Project struct {
		ID          int64     `json:"id"`
		Name        string    `json:"name"`
		Client      string    `json:"client"`
		Description string    `json:"description"`
		CreatedAt   time.Time `json:"created_at"`
	}

	// Member is a team member. Name is globally unique (exact,
	// case-sensitive match).
	Member struct {
		ID        int64     `json:"id"`
		Name      string    `json:"name"`
		Email     string    `json:"email"`
		CreatedAt time.Time `json:"created_at"`
	}

	// HourRecord holds the monthly hour figures for one project and
	// optionally one member. A nil MemberID means the record covers the
	// whole project without an individual assignment; that "no member"
	// value takes part in the (project, member, year, month) uniqueness
	// key as a single distinguished value.
	HourRecord struct {
		ID             int64     `json:"id"`
		ProjectID      int64     `json:"project_id"`
		MemberID       *int64    `json:"member_id"`
		Year           int       `json:"year"`
		Month          int       `json:"month"`
		EstimatedHours float64   `json:"estimated_hours"`
		PlannedHours   float64   `json:"planned_hours"`
		ActualHours    float64   `json:"actual_hours"`
		Notes          string    `json:"notes"`
		CreatedAt      time.Time `json:"created_at"`
		UpdatedAt      time.Time `json:"updated_at"`
	}

	// Record is a joined row as returned by the record store: the
	// HourRecord fields plus the owning project's name/client and the
	// assigned member's name (nil when unassigned).
	Record struct {
		ID             int64     `json:"id"`
		ProjectID      int64     `json:"project_id"`
		MemberID       *int64    `json:"member_id"`
		Year           int       `json:"year"`
		Month          int       `json:"month"`
		EstimatedHours float64   `json:"estimated_hours"`
		PlannedHours   float64   `json:"planned_hours"`
		ActualHours    float64   `json:"actual_hours"`
		Notes          string    `json:"notes"`
		CreatedAt      time.Time `json:"created_at"`
		UpdatedAt      time.Time `json:"updated_at"`
		ProjectName    string    `json:"project_name"`
		Client         string    `json:"client"`
		MemberName     *string   `json:"member_name"`
		MemberEmail    *string   `json:"-"`
	}

	// Period identifies a (year, month) bucket that has at least one
	// record.
	Period struct {
		Year  int `json:"year"`
		Month int `json:"month"`
	}
)

func (p Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyProjectName
	}
	return nil
}

func (m Member) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrEmptyMemberName
	}
	return nil
}

// Validate checks the writable fields of an hour record. Negative hour
// figures are rejected here rather than silently stored.
func (r HourRecord) Validate() error {
	if r.Year < 1 || r.Year > 9999 {
		return ErrInvalidYear
	}
	if r.Month < 1 || r.Month > 12 {
		return ErrInvalidMonth
	}
	if r.EstimatedHours < 0 || r.PlannedHours < 0 || r.ActualHours < 0 {
		return ErrNegativeHours
	}
	return nil
}

// Assigned reports whether the record is tied to an individual member.
func (r Record) Assigned() bool {
	return r.MemberID != nil
}

// Label renders the period as a "YYYY-MM" string.
func (p Period) Label() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}
