package booking

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// Session status constants
const (
	StatusPending   = "PENDING"
	StatusActive    = "ACTIVE"
	StatusCompleted = "COMPLETED"
	StatusCancelled = "CANCELLED"
)

// ValidStatuses contains all valid session statuses.
var ValidStatuses = []string{StatusPending, StatusActive, StatusCompleted, StatusCancelled}

// Domain errors
var (
	ErrEmptyTrainerID = errors.New("trainer ID cannot be empty")
	ErrEmptyMemberID  = errors.New("member ID cannot be empty")
	ErrInvalidStatus  = errors.New("status must be one of PENDING, ACTIVE, COMPLETED, CANCELLED")
	ErrInvalidPeriod  = errors.New("end date cannot be before start date")
)

// Member identifies who booked the sessions.
type Member struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Package identifies the PT package the sessions were bought under.
type Package struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CompletedSession records one session the member has attended.
type CompletedSession struct {
	Date time.Time `json:"date"`
	Note string    `json:"note,omitempty"`
}

// ScheduledSession is a PT booking owned by the booking subsystem.
// The availability feature reads it and never mutates it.
type ScheduledSession struct {
	ID                string             `json:"id"`
	TrainerID         string             `json:"-"`
	Member            Member             `json:"member"`
	Package           Package            `json:"package"`
	TotalSessionCount int                `json:"totalSessionCount"`
	Status            string             `json:"status"`
	StartDate         time.Time          `json:"startDate"`
	EndDate           time.Time          `json:"endDate"`
	CompletedSessions []CompletedSession `json:"completedSessions"`
}

// Validate checks if the ScheduledSession has valid data.
// PRE: ScheduledSession struct is populated
// POST: Returns nil if valid, error otherwise
func (s *ScheduledSession) Validate() error {
	if strings.TrimSpace(s.TrainerID) == "" {
		return ErrEmptyTrainerID
	}
	if strings.TrimSpace(s.Member.ID) == "" {
		return ErrEmptyMemberID
	}
	if !isValidStatus(s.Status) {
		return ErrInvalidStatus
	}
	if !s.EndDate.IsZero() && s.EndDate.Before(s.StartDate) {
		return ErrInvalidPeriod
	}
	return nil
}

// RemainingSessions returns how many sessions of the package are left.
// INVARIANT: ScheduledSession fields are not mutated
func (s ScheduledSession) RemainingSessions() int {
	left := s.TotalSessionCount - len(s.CompletedSessions)
	if left < 0 {
		return 0
	}
	return left
}

// SortForDisplay orders sessions by start date, then member name.
func SortForDisplay(sessions []ScheduledSession) {
	sort.SliceStable(sessions, func(i, j int) bool {
		if !sessions[i].StartDate.Equal(sessions[j].StartDate) {
			return sessions[i].StartDate.Before(sessions[j].StartDate)
		}
		return sessions[i].Member.Name < sessions[j].Member.Name
	})
}

func isValidStatus(status string) bool {
	for _, s := range ValidStatuses {
		if s == status {
			return true
		}
	}
	return false
}
