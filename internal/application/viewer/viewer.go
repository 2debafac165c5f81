// Package viewer loads a read-only picture of a trainer's week and bookings.
// Days the server does not return are reported as unset, never filled in.
package viewer

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"billionsgym/internal/adapters/api"
	"billionsgym/internal/domain/availability"
	"billionsgym/internal/domain/booking"
)

// State is the viewer lifecycle state.
type State int

// Viewer states
const (
	StateLoading State = iota
	StateReady
	StateError
)

// ErrEmptyTrainerID is returned when Load is called without a trainer.
var ErrEmptyTrainerID = availability.ErrEmptyTrainerID

// ScheduleFetcher is the read half of the REST client. *api.Client satisfies it.
type ScheduleFetcher interface {
	GetTrainerSchedule(ctx context.Context, trainerID string) (api.ScheduleData, error)
}

// ErrorNotifier shows a load failure to the user.
type ErrorNotifier interface {
	NotifyError(message string)
}

// ErrorNotifierFunc adapts a function to ErrorNotifier.
type ErrorNotifierFunc func(message string)

// NotifyError calls f.
func (f ErrorNotifierFunc) NotifyError(message string) { f(message) }

// DayView is one weekday as stored. Set is false when the server has no entry.
type DayView struct {
	Weekday availability.Weekday
	Set     bool
	Slots   []availability.TimeSlot
	Note    string
}

// StatusSummary counts a day's slots by status.
type StatusSummary struct {
	Available int
	Busy      int
	Off       int
}

// Summary counts the day's slots by status.
func (d DayView) Summary() StatusSummary {
	var s StatusSummary
	for _, slot := range d.Slots {
		switch slot.Status {
		case availability.StatusAvailable:
			s.Available++
		case availability.StatusBusy:
			s.Busy++
		case availability.StatusOff:
			s.Off++
		}
	}
	return s
}

// View is the rendered state: seven days Monday first, plus booked sessions.
type View struct {
	TrainerID string
	Days      [availability.DaysInWeek]DayView
	Sessions  []booking.ScheduledSession
}

// FilterSessions returns sessions with the given status; "" returns all.
func (v View) FilterSessions(status string) []booking.ScheduledSession {
	out := make([]booking.ScheduledSession, 0, len(v.Sessions))
	for _, s := range v.Sessions {
		if status == "" || s.Status == status {
			out = append(out, s)
		}
	}
	return out
}

// emptyView returns seven unset days.
func emptyView(trainerID string) View {
	v := View{TrainerID: trainerID, Sessions: []booking.ScheduledSession{}}
	for i, w := range availability.AllWeekdays {
		v.Days[i] = DayView{Weekday: w}
	}
	return v
}

// BuildView converts the wire payload into a View without synthesizing days.
// Unknown weekdays are ignored; for repeated weekdays the first entry wins.
func BuildView(trainerID string, data api.ScheduleData) View {
	v := emptyView(trainerID)
	for _, d := range data.WeeklySchedule {
		i := d.Weekday.Index()
		if i < 0 || v.Days[i].Set {
			continue
		}
		slots := make([]availability.TimeSlot, len(d.Slots))
		copy(slots, d.Slots)
		v.Days[i] = DayView{Weekday: d.Weekday, Set: true, Slots: slots, Note: d.Note}
	}
	if data.ScheduledSessions != nil {
		v.Sessions = append(v.Sessions, data.ScheduledSessions...)
	}
	booking.SortForDisplay(v.Sessions)
	return v
}

// Viewer loads one trainer's schedule for display.
type Viewer struct {
	fetcher  ScheduleFetcher
	notifier ErrorNotifier

	mu    sync.Mutex
	state State
	view  View
}

// New creates a viewer in the LOADING state.
// PRE: fetcher and notifier are non-nil
func New(fetcher ScheduleFetcher, notifier ErrorNotifier) *Viewer {
	return &Viewer{fetcher: fetcher, notifier: notifier}
}

// Load fetches and stores the view.
// POST: READY with the server's data, or ERROR with an empty view and an error
// notification. There is no retry.
func (v *Viewer) Load(ctx context.Context, trainerID string) (View, error) {
	if trainerID == "" {
		return View{}, ErrEmptyTrainerID
	}
	data, err := v.fetcher.GetTrainerSchedule(ctx, trainerID)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.state = StateError
		v.view = emptyView(trainerID)
		msg := api.Message(err)
		if msg == "" || errors.Is(err, api.ErrUnauthorized) {
			msg = "Could not load the trainer's schedule."
		}
		v.notifier.NotifyError(msg)
		slog.Warn("viewer_event", "event", "load_failed", "trainer_id", trainerID, "error", err)
		return v.view, err
	}
	v.state = StateReady
	v.view = BuildView(trainerID, data)
	return v.view, nil
}

// State returns the lifecycle state.
func (v *Viewer) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// View returns the last loaded view.
func (v *Viewer) View() View {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.view
}
