package availability_test

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"billionsgym/internal/domain/availability"
)

// TestDefaultDay_Shape tests the fixed seven-slot template.
func TestDefaultDay_Shape(t *testing.T) {
	want := [][2]string{
		{"06:00", "08:00"}, {"08:00", "10:00"}, {"10:00", "12:00"},
		{"14:00", "16:00"}, {"16:00", "18:00"}, {"18:00", "20:00"}, {"20:00", "22:00"},
	}
	for _, w := range availability.AllWeekdays {
		day := availability.DefaultDay(w)
		if day.Weekday != w {
			t.Errorf("DefaultDay(%s).Weekday = %s", w, day.Weekday)
		}
		if day.Note != "" {
			t.Errorf("DefaultDay(%s).Note = %q, want empty", w, day.Note)
		}
		if len(day.Slots) != len(want) {
			t.Fatalf("DefaultDay(%s) has %d slots, want %d", w, len(day.Slots), len(want))
		}
		for i, s := range day.Slots {
			if s.StartTime != want[i][0] || s.EndTime != want[i][1] {
				t.Errorf("%s slot %d = %s-%s, want %s-%s", w, i, s.StartTime, s.EndTime, want[i][0], want[i][1])
			}
			if s.Status != availability.StatusAvailable {
				t.Errorf("%s slot %d status = %s, want AVAILABLE", w, i, s.Status)
			}
		}
	}
}

// TestDefaultDay_NotShared tests that each call returns fresh storage.
func TestDefaultDay_NotShared(t *testing.T) {
	a := availability.DefaultDay(availability.Monday)
	b := availability.DefaultDay(availability.Monday)
	a.Slots[0].Status = availability.StatusOff
	if b.Slots[0].Status != availability.StatusAvailable {
		t.Error("mutating one default day leaked into another")
	}

	week := availability.DefaultWeek()
	week[0].Slots[0].Status = availability.StatusBusy
	if week[1].Slots[0].Status != availability.StatusAvailable {
		t.Error("days of DefaultWeek share slot storage")
	}
}

// TestMergeWithDefaults_Completeness tests that any subset of weekdays merges to all seven.
func TestMergeWithDefaults_Completeness(t *testing.T) {
	custom := availability.DaySchedule{
		Weekday: availability.Wednesday,
		Slots:   []availability.TimeSlot{{StartTime: "07:00", EndTime: "09:00", Status: availability.StatusBusy}},
		Note:    "gym floor refurb",
	}

	// Walk every prefix size 0..6 of the week, always including Wednesday's custom day.
	for n := 0; n < availability.DaysInWeek; n++ {
		var input []availability.DaySchedule
		for _, w := range availability.AllWeekdays[:n] {
			if w == availability.Wednesday {
				continue
			}
			d := availability.DefaultDay(w)
			d.Note = "server " + string(w)
			input = append(input, d)
		}
		input = append(input, custom)

		merged := availability.MergeWithDefaults(input)
		if len(merged) != availability.DaysInWeek {
			t.Fatalf("n=%d: merged has %d days", n, len(merged))
		}
		for i, w := range availability.AllWeekdays {
			got := merged[i]
			if got.Weekday != w {
				t.Fatalf("n=%d: merged[%d] = %s, want %s", n, i, got.Weekday, w)
			}
			switch {
			case w == availability.Wednesday:
				if !reflect.DeepEqual(got, custom) {
					t.Errorf("n=%d: Wednesday = %+v, want server copy", n, got)
				}
			case i < n:
				if got.Note != "server "+string(w) {
					t.Errorf("n=%d: %s should come from server", n, w)
				}
			default:
				if !reflect.DeepEqual(got, availability.DefaultDay(w)) {
					t.Errorf("n=%d: %s = %+v, want default template", n, w, got)
				}
			}
		}
	}
}

// TestMergeWithDefaults_DropsUnknownAndDuplicates tests input cleanup.
func TestMergeWithDefaults_DropsUnknownAndDuplicates(t *testing.T) {
	first := availability.DaySchedule{Weekday: availability.Friday, Slots: []availability.TimeSlot{}, Note: "first"}
	second := availability.DaySchedule{Weekday: availability.Friday, Note: "second"}
	merged := availability.MergeWithDefaults([]availability.DaySchedule{
		{Weekday: "Funday"},
		first,
		second,
	})
	if len(merged) != availability.DaysInWeek {
		t.Fatalf("merged has %d days", len(merged))
	}
	fri, _ := availability.WeeklySchedule{Days: merged}.Day(availability.Friday)
	if fri.Note != "first" {
		t.Errorf("Friday note = %q, want first occurrence", fri.Note)
	}
	if fri.Slots == nil || len(fri.Slots) != 0 {
		t.Errorf("Friday slots = %v, want empty non-nil list", fri.Slots)
	}
}

// TestWeeklySchedule_Validate tests validation of replacement documents.
func TestWeeklySchedule_Validate(t *testing.T) {
	okSlot := availability.TimeSlot{StartTime: "10:00", EndTime: "11:00", Status: availability.StatusAvailable}
	tests := []struct {
		name    string
		week    availability.WeeklySchedule
		wantErr error
	}{
		{
			name: "full default week",
			week: availability.WeeklySchedule{TrainerID: "t-1", Days: availability.DefaultWeek()},
		},
		{
			name: "partial week is allowed",
			week: availability.WeeklySchedule{TrainerID: "t-1", Days: []availability.DaySchedule{{Weekday: availability.Sunday}}},
		},
		{
			name: "start after end is not rejected",
			week: availability.WeeklySchedule{TrainerID: "t-1", Days: []availability.DaySchedule{{
				Weekday: availability.Monday,
				Slots:   []availability.TimeSlot{{StartTime: "18:00", EndTime: "09:00", Status: availability.StatusOff}},
			}}},
		},
		{
			name: "overlapping slots are not rejected",
			week: availability.WeeklySchedule{TrainerID: "t-1", Days: []availability.DaySchedule{{
				Weekday: availability.Monday,
				Slots:   []availability.TimeSlot{okSlot, okSlot},
			}}},
		},
		{
			name:    "missing trainer",
			week:    availability.WeeklySchedule{Days: availability.DefaultWeek()},
			wantErr: availability.ErrEmptyTrainerID,
		},
		{
			name:    "unknown weekday",
			week:    availability.WeeklySchedule{TrainerID: "t-1", Days: []availability.DaySchedule{{Weekday: "monday"}}},
			wantErr: availability.ErrUnknownWeekday,
		},
		{
			name: "duplicate weekday",
			week: availability.WeeklySchedule{TrainerID: "t-1", Days: []availability.DaySchedule{
				{Weekday: availability.Monday}, {Weekday: availability.Monday},
			}},
			wantErr: availability.ErrDuplicateWeekday,
		},
		{
			name: "bad status",
			week: availability.WeeklySchedule{TrainerID: "t-1", Days: []availability.DaySchedule{{
				Weekday: availability.Monday,
				Slots:   []availability.TimeSlot{{StartTime: "10:00", EndTime: "11:00", Status: "MAYBE"}},
			}}},
			wantErr: availability.ErrInvalidStatus,
		},
		{
			name: "bad clock",
			week: availability.WeeklySchedule{TrainerID: "t-1", Days: []availability.DaySchedule{{
				Weekday: availability.Monday,
				Slots:   []availability.TimeSlot{{StartTime: "9:00", EndTime: "11:00", Status: availability.StatusBusy}},
			}}},
			wantErr: availability.ErrInvalidTime,
		},
		{
			name: "hour out of range",
			week: availability.WeeklySchedule{TrainerID: "t-1", Days: []availability.DaySchedule{{
				Weekday: availability.Monday,
				Slots:   []availability.TimeSlot{{StartTime: "10:00", EndTime: "24:30", Status: availability.StatusBusy}},
			}}},
			wantErr: availability.ErrInvalidTime,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.week.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestParseWeekday tests case-insensitive parsing.
func TestParseWeekday(t *testing.T) {
	got, err := availability.ParseWeekday(" wednesday ")
	if err != nil || got != availability.Wednesday {
		t.Errorf("ParseWeekday = %q, %v", got, err)
	}
	if _, err := availability.ParseWeekday("Caturday"); !errors.Is(err, availability.ErrUnknownWeekday) {
		t.Errorf("expected ErrUnknownWeekday, got %v", err)
	}
	st, err := availability.ParseStatus("off")
	if err != nil || st != availability.StatusOff {
		t.Errorf("ParseStatus = %q, %v", st, err)
	}
}

// TestFromTime tests the Monday-first mapping from time.Weekday.
func TestFromTime(t *testing.T) {
	// 2026-10-12 is a Monday.
	base := time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC)
	for i, w := range availability.AllWeekdays {
		if got := availability.FromTime(base.AddDate(0, 0, i)); got != w {
			t.Errorf("FromTime(+%d) = %s, want %s", i, got, w)
		}
		if w.Index() != i {
			t.Errorf("%s.Index() = %d, want %d", w, w.Index(), i)
		}
	}
}
