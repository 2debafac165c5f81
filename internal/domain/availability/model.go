package availability

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Weekday is the wire identifier of a day in a trainer's weekly template.
type Weekday string

// Day of week constants
const (
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
	Saturday  Weekday = "Saturday"
	Sunday    Weekday = "Sunday"
)

// AllWeekdays lists the seven required weekdays, Monday first.
var AllWeekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// SlotStatus is the availability state of one time slot.
type SlotStatus string

// Slot status constants
const (
	StatusAvailable SlotStatus = "AVAILABLE"
	StatusBusy      SlotStatus = "BUSY"
	StatusOff       SlotStatus = "OFF"
)

// ValidStatuses contains all valid slot statuses.
var ValidStatuses = []SlotStatus{StatusAvailable, StatusBusy, StatusOff}

// DaysInWeek is the number of DaySchedule entries in a complete WeeklySchedule.
const DaysInWeek = 7

// Domain errors
var (
	ErrUnknownWeekday   = errors.New("weekday must be one of Monday..Sunday")
	ErrDuplicateWeekday = errors.New("weekday appears more than once")
	ErrInvalidStatus    = errors.New("status must be one of AVAILABLE, BUSY, OFF")
	ErrInvalidTime      = errors.New("time must be in HH:MM 24h format")
	ErrEmptyTrainerID   = errors.New("trainer ID cannot be empty")
)

// TimeSlot is one entry in a day's availability template.
// Start may be after end; ordering is left to whoever edits the template.
type TimeSlot struct {
	StartTime string     `json:"startTime"`
	EndTime   string     `json:"endTime"`
	Status    SlotStatus `json:"status"`
}

// DaySchedule holds the slots a human entered for one weekday.
type DaySchedule struct {
	Weekday Weekday    `json:"weekday"`
	Slots   []TimeSlot `json:"slots"`
	Note    string     `json:"note,omitempty"`
}

// WeeklySchedule is a trainer's availability template for all seven weekdays.
type WeeklySchedule struct {
	TrainerID string        `json:"trainerId"`
	Days      []DaySchedule `json:"weeklySchedule"`
	Version   int           `json:"version"`
	UpdatedAt time.Time     `json:"updatedAt,omitzero"`
}

// ParseWeekday resolves a weekday identifier case-insensitively.
// PRE: none
// POST: Returns the canonical Weekday or ErrUnknownWeekday
func ParseWeekday(s string) (Weekday, error) {
	for _, d := range AllWeekdays {
		if strings.EqualFold(strings.TrimSpace(s), string(d)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownWeekday, s)
}

// ParseStatus resolves a slot status case-insensitively.
func ParseStatus(s string) (SlotStatus, error) {
	for _, st := range ValidStatuses {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// IsValid reports whether w is one of the seven canonical weekday identifiers.
func (w Weekday) IsValid() bool {
	for _, d := range AllWeekdays {
		if d == w {
			return true
		}
	}
	return false
}

// Index returns the Monday-based position of w, or -1.
func (w Weekday) Index() int {
	for i, d := range AllWeekdays {
		if d == w {
			return i
		}
	}
	return -1
}

// FromTime returns the weekday of t.
func FromTime(t time.Time) Weekday {
	return AllWeekdays[(int(t.Weekday())+6)%7]
}

// IsValid reports whether s is a known slot status.
func (s SlotStatus) IsValid() bool {
	for _, st := range ValidStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// ValidateClock checks an HH:MM 24h wall-clock value.
func ValidateClock(value string) error {
	if len(value) != 5 {
		return fmt.Errorf("%w: %q", ErrInvalidTime, value)
	}
	if _, err := time.Parse("15:04", value); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTime, value)
	}
	return nil
}

// Validate checks the slot's wire-level fields.
// PRE: none
// POST: Returns nil if status and both times are well-formed. Ordering is not checked.
func (s TimeSlot) Validate() error {
	if err := ValidateClock(s.StartTime); err != nil {
		return fmt.Errorf("startTime: %w", err)
	}
	if err := ValidateClock(s.EndTime); err != nil {
		return fmt.Errorf("endTime: %w", err)
	}
	if !s.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, s.Status)
	}
	return nil
}

// Validate checks the weekday and every slot.
func (d DaySchedule) Validate() error {
	if !d.Weekday.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownWeekday, d.Weekday)
	}
	for i, slot := range d.Slots {
		if err := slot.Validate(); err != nil {
			return fmt.Errorf("%s slot %d: %w", d.Weekday, i, err)
		}
	}
	return nil
}

// Validate checks a replacement document received from a client.
// PRE: WeeklySchedule is populated
// POST: Returns nil if every day is well-formed and no weekday repeats.
// Missing weekdays are allowed; readers merge defaults or report them as unset.
func (w WeeklySchedule) Validate() error {
	if strings.TrimSpace(w.TrainerID) == "" {
		return ErrEmptyTrainerID
	}
	seen := make(map[Weekday]bool, DaysInWeek)
	for _, d := range w.Days {
		if err := d.Validate(); err != nil {
			return err
		}
		if seen[d.Weekday] {
			return fmt.Errorf("%w: %s", ErrDuplicateWeekday, d.Weekday)
		}
		seen[d.Weekday] = true
	}
	return nil
}

// Day returns the schedule for w and whether it is present.
// INVARIANT: WeeklySchedule fields are not mutated
func (w WeeklySchedule) Day(day Weekday) (DaySchedule, bool) {
	for _, d := range w.Days {
		if d.Weekday == day {
			return d, true
		}
	}
	return DaySchedule{}, false
}

// Clone returns a deep copy so callers cannot alias slot slices.
func (d DaySchedule) Clone() DaySchedule {
	out := DaySchedule{Weekday: d.Weekday, Note: d.Note, Slots: make([]TimeSlot, len(d.Slots))}
	copy(out.Slots, d.Slots)
	return out
}

// Clone returns a deep copy of the whole week.
func (w WeeklySchedule) Clone() WeeklySchedule {
	out := w
	out.Days = make([]DaySchedule, len(w.Days))
	for i, d := range w.Days {
		out.Days[i] = d.Clone()
	}
	return out
}
