package viewer

import (
	"context"
	"errors"
	"testing"
	"time"

	"billionsgym/internal/adapters/api"
	"billionsgym/internal/domain/availability"
	"billionsgym/internal/domain/booking"
)

type mockFetcher struct {
	data api.ScheduleData
	err  error
}

func (m *mockFetcher) GetTrainerSchedule(context.Context, string) (api.ScheduleData, error) {
	return m.data, m.err
}

type errRecorder struct{ msgs []string }

func (r *errRecorder) NotifyError(msg string) { r.msgs = append(r.msgs, msg) }

// TestLoad_NoSynthesis tests absent days stay unset.
func TestLoad_NoSynthesis(t *testing.T) {
	tue := availability.DaySchedule{Weekday: availability.Tuesday, Note: "late start", Slots: []availability.TimeSlot{
		{StartTime: "10:00", EndTime: "12:00", Status: availability.StatusAvailable},
		{StartTime: "14:00", EndTime: "16:00", Status: availability.StatusOff},
	}}
	empty := availability.DaySchedule{Weekday: availability.Sunday, Slots: []availability.TimeSlot{}}
	f := &mockFetcher{data: api.ScheduleData{WeeklySchedule: []availability.DaySchedule{empty, tue}}}
	v := New(f, &errRecorder{})

	view, err := v.Load(context.Background(), "t1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v.State() != StateReady {
		t.Errorf("state = %v, want READY", v.State())
	}
	for i, d := range view.Days {
		if d.Weekday != availability.AllWeekdays[i] {
			t.Errorf("Days[%d].Weekday = %s", i, d.Weekday)
		}
		switch d.Weekday {
		case availability.Tuesday:
			if !d.Set || len(d.Slots) != 2 || d.Note != "late start" {
				t.Errorf("Tuesday = %+v", d)
			}
			if s := d.Summary(); s != (StatusSummary{Available: 1, Off: 1}) {
				t.Errorf("Summary = %+v", s)
			}
		case availability.Sunday:
			if !d.Set || len(d.Slots) != 0 {
				t.Errorf("Sunday should be set with no slots: %+v", d)
			}
		default:
			if d.Set || len(d.Slots) != 0 {
				t.Errorf("%s should be unset, got %+v", d.Weekday, d)
			}
		}
	}
}

// TestLoad_Failure tests an error notification and empty view.
func TestLoad_Failure(t *testing.T) {
	rec := &errRecorder{}
	v := New(&mockFetcher{err: &api.APIError{Status: 500, Message: "boom"}}, rec)

	view, err := v.Load(context.Background(), "t1")
	if err == nil {
		t.Fatal("expected error")
	}
	if v.State() != StateError {
		t.Errorf("state = %v, want ERROR", v.State())
	}
	if len(rec.msgs) != 1 || rec.msgs[0] != "boom" {
		t.Errorf("msgs = %v", rec.msgs)
	}
	for _, d := range view.Days {
		if d.Set {
			t.Errorf("%s should be unset", d.Weekday)
		}
	}
	if view.Sessions == nil || len(view.Sessions) != 0 {
		t.Errorf("Sessions = %#v", view.Sessions)
	}
}

// TestLoad_EmptyTrainer tests the precondition.
func TestLoad_EmptyTrainer(t *testing.T) {
	v := New(&mockFetcher{}, &errRecorder{})
	if _, err := v.Load(context.Background(), ""); !errors.Is(err, ErrEmptyTrainerID) {
		t.Errorf("err = %v", err)
	}
}

// TestBuildView_SessionsSortedAndFiltered tests display order and filtering.
func TestBuildView_SessionsSortedAndFiltered(t *testing.T) {
	d1 := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 7)
	data := api.ScheduleData{ScheduledSessions: []booking.ScheduledSession{
		{ID: "c", Member: booking.Member{Name: "Chi"}, StartDate: d2, Status: booking.StatusActive},
		{ID: "b", Member: booking.Member{Name: "Bao"}, StartDate: d2, Status: booking.StatusCompleted},
		{ID: "a", Member: booking.Member{Name: "Yen"}, StartDate: d1, Status: booking.StatusActive},
	}}
	view := BuildView("t1", data)

	var order []string
	for _, s := range view.Sessions {
		order = append(order, s.ID)
	}
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Errorf("order = %v, want [a b c]", order)
	}
	if got := view.FilterSessions(booking.StatusActive); len(got) != 2 {
		t.Errorf("active = %d, want 2", len(got))
	}
	if got := view.FilterSessions(""); len(got) != 3 {
		t.Errorf("all = %d, want 3", len(got))
	}
	// Input must not be reordered.
	if data.ScheduledSessions[0].ID != "c" {
		t.Error("BuildView mutated its input")
	}
}
