package availability

// templateHours are the fixed start/end pairs of the default day.
// The 12:00-14:00 gap is the midday break.
var templateHours = [...][2]string{
	{"06:00", "08:00"},
	{"08:00", "10:00"},
	{"10:00", "12:00"},
	{"14:00", "16:00"},
	{"16:00", "18:00"},
	{"18:00", "20:00"},
	{"20:00", "22:00"},
}

// NewSlotStart and NewSlotEnd are the bounds of a slot added by hand.
const (
	NewSlotStart = "09:00"
	NewSlotEnd   = "10:00"
)

// DefaultSlots returns a fresh copy of the seven-slot template with the given status.
func DefaultSlots(status SlotStatus) []TimeSlot {
	slots := make([]TimeSlot, len(templateHours))
	for i, h := range templateHours {
		slots[i] = TimeSlot{StartTime: h[0], EndTime: h[1], Status: status}
	}
	return slots
}

// DefaultDay returns the default template for one weekday, all slots AVAILABLE.
// Every call allocates; results are never shared between days.
func DefaultDay(day Weekday) DaySchedule {
	return DaySchedule{Weekday: day, Slots: DefaultSlots(StatusAvailable)}
}

// DefaultWeek returns the default template for all seven weekdays.
func DefaultWeek() []DaySchedule {
	days := make([]DaySchedule, 0, DaysInWeek)
	for _, d := range AllWeekdays {
		days = append(days, DefaultDay(d))
	}
	return days
}

// NewSlot returns the slot appended when a day gains a hand-entered slot.
func NewSlot() TimeSlot {
	return TimeSlot{StartTime: NewSlotStart, EndTime: NewSlotEnd, Status: StatusAvailable}
}

// MergeWithDefaults completes a partial week loaded from the server.
// PRE: days may hold 0..7 entries in any order, possibly with unknown or repeated weekdays
// POST: Returns exactly seven days in Monday-first order. Days present in the input are
// kept (first occurrence wins); missing days come from DefaultDay.
func MergeWithDefaults(days []DaySchedule) []DaySchedule {
	byDay := make(map[Weekday]DaySchedule, len(days))
	for _, d := range days {
		if !d.Weekday.IsValid() {
			continue
		}
		if _, exists := byDay[d.Weekday]; exists {
			continue
		}
		byDay[d.Weekday] = d.Clone()
	}

	merged := make([]DaySchedule, 0, DaysInWeek)
	for _, w := range AllWeekdays {
		if d, ok := byDay[w]; ok {
			if d.Slots == nil {
				d.Slots = []TimeSlot{}
			}
			merged = append(merged, d)
			continue
		}
		merged = append(merged, DefaultDay(w))
	}
	return merged
}
