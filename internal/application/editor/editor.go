// Package editor holds one trainer's weekly availability as an editable draft.
//
// A draft is loaded once, mutated in memory, and saved back as a whole document.
// Slots carry a stable SlotID from creation, so removing or reordering slots never
// shifts the identity of the others; index-based operations resolve the index
// against the day's current order at call time.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"billionsgym/internal/adapters/api"
	"billionsgym/internal/application/refresh"
	"billionsgym/internal/domain/availability"
)

// DefaultConfirmDelay is how long the success message stays up before the editor closes.
const DefaultConfirmDelay = 1500 * time.Millisecond

// State is the editor lifecycle state.
type State int

// Editor states
const (
	StateLoading State = iota
	StateReady
	StateSaving
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "LOADING"
	case StateReady:
		return "READY"
	case StateSaving:
		return "SAVING"
	case StateClosed:
		return "CLOSED"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Editor errors
var (
	ErrNotReady       = errors.New("editor has not finished loading")
	ErrAlreadyLoaded  = errors.New("editor has already been loaded")
	ErrBusy           = errors.New("a save is in progress")
	ErrClosed         = errors.New("editor is closed")
	ErrSlotNotFound   = errors.New("slot not found")
	ErrUnknownWeekday = availability.ErrUnknownWeekday
	ErrConflict       = errors.New("schedule was changed elsewhere; reload before saving")
)

// Field selects which bound of a slot SetSlotTime overwrites.
type Field int

// Slot bounds
const (
	FieldStart Field = iota
	FieldEnd
)

// ParseField resolves "start" or "end".
func ParseField(s string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "start":
		return FieldStart, nil
	case "end":
		return FieldEnd, nil
	}
	return 0, fmt.Errorf("field must be start or end, got %q", s)
}

// SlotID is the stable identity of a slot within one editor session.
type SlotID string

type dayDraft struct {
	order []SlotID
	note  string
}

// Deps holds the collaborators of an Editor.
type Deps struct {
	Client    ScheduleClient
	Notifier  Notifier
	Navigator Navigator
	Hub       *refresh.Hub // optional

	// ConfirmDelay defaults to DefaultConfirmDelay.
	ConfirmDelay time.Duration
	// After defaults to time.After; tests substitute an immediate channel.
	After func(time.Duration) <-chan time.Time
	// NewID defaults to a random UUID.
	NewID func() string
}

// Option configures an Editor.
type Option func(*Editor)

// WithOptimisticLock makes Save send the version seen at load.
// A concurrent save elsewhere then fails with ErrConflict instead of being overwritten.
func WithOptimisticLock() Option {
	return func(e *Editor) { e.lock = true }
}

// Editor is the draft of one trainer's week. It is safe for concurrent use.
type Editor struct {
	deps Deps
	lock bool

	mu        sync.Mutex
	state     State
	loading   bool
	closing   bool
	dirty     bool
	fellBack  bool
	trainerID string
	version   int
	slots     map[SlotID]availability.TimeSlot
	days      map[availability.Weekday]*dayDraft
}

// New creates an editor in the LOADING state.
// PRE: deps.Client, deps.Notifier and deps.Navigator are non-nil
func New(deps Deps, opts ...Option) *Editor {
	if deps.ConfirmDelay <= 0 {
		deps.ConfirmDelay = DefaultConfirmDelay
	}
	if deps.After == nil {
		deps.After = time.After
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	e := &Editor{deps: deps, state: StateLoading}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load fetches the trainer's schedule and builds the draft.
// PRE: Editor is in LOADING and Load has not been called
// POST: State is READY with all seven weekdays present. A failed fetch is not
// returned as an error: the draft falls back to the default week and an info
// notification is shown.
func (e *Editor) Load(ctx context.Context, trainerID string) error {
	if strings.TrimSpace(trainerID) == "" {
		return availability.ErrEmptyTrainerID
	}
	e.mu.Lock()
	if e.state != StateLoading || e.loading {
		e.mu.Unlock()
		return ErrAlreadyLoaded
	}
	e.loading = true
	e.trainerID = trainerID
	e.mu.Unlock()

	var days []availability.DaySchedule
	var version int
	fellBack := false
	data, err := e.deps.Client.GetTrainerSchedule(ctx, trainerID)
	switch {
	case err != nil:
		slog.Warn("editor_event", "event", "load_failed", "trainer_id", trainerID, "error", err)
		days = availability.DefaultWeek()
		fellBack = true
		e.deps.Notifier.Notify(LevelInfo, "Could not load the saved schedule. Showing the default template.")
	case len(data.WeeklySchedule) == 0:
		days = availability.DefaultWeek()
		version = data.Version
	default:
		days = availability.MergeWithDefaults(data.WeeklySchedule)
		version = data.Version
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.slots = make(map[SlotID]availability.TimeSlot)
	e.days = make(map[availability.Weekday]*dayDraft, availability.DaysInWeek)
	for _, d := range days {
		dd := &dayDraft{note: d.Note, order: make([]SlotID, 0, len(d.Slots))}
		for _, s := range d.Slots {
			dd.order = append(dd.order, e.put(s))
		}
		e.days[d.Weekday] = dd
	}
	e.version = version
	e.fellBack = fellBack
	e.dirty = false
	e.loading = false
	e.state = StateReady
	slog.Debug("editor_event", "event", "loaded", "trainer_id", trainerID, "version", version)
	return nil
}

// put stores s under a fresh id. Caller holds mu.
func (e *Editor) put(s availability.TimeSlot) SlotID {
	id := SlotID(e.deps.NewID())
	e.slots[id] = s
	return id
}

// mutable reports whether mutations are allowed now. Caller holds mu.
func (e *Editor) mutable() error {
	switch {
	case e.state == StateClosed || e.closing:
		return ErrClosed
	case e.state == StateSaving:
		return ErrBusy
	case e.state != StateReady:
		return ErrNotReady
	}
	return nil
}

// day resolves a weekday to its draft. Caller holds mu.
func (e *Editor) day(w availability.Weekday) (*dayDraft, error) {
	if err := e.mutable(); err != nil {
		return nil, err
	}
	d, ok := e.days[w]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownWeekday, w)
	}
	return d, nil
}

// slotAt resolves a positional reference. Caller holds mu.
func (e *Editor) slotAt(w availability.Weekday, index int) (*dayDraft, SlotID, error) {
	d, err := e.day(w)
	if err != nil {
		return nil, "", err
	}
	if index < 0 || index >= len(d.order) {
		return nil, "", fmt.Errorf("%w: %s index %d", ErrSlotNotFound, w, index)
	}
	return d, d.order[index], nil
}

// locate finds the day holding id. Caller holds mu.
func (e *Editor) locate(id SlotID) (*dayDraft, int, error) {
	if err := e.mutable(); err != nil {
		return nil, 0, err
	}
	for _, d := range e.days {
		for i, sid := range d.order {
			if sid == id {
				return d, i, nil
			}
		}
	}
	return nil, 0, fmt.Errorf("%w: %s", ErrSlotNotFound, id)
}

// SetSlotStatus replaces the status of the slot at index on day.
func (e *Editor) SetSlotStatus(day availability.Weekday, index int, status availability.SlotStatus) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, id, err := e.slotAt(day, index)
	if err != nil {
		return err
	}
	return e.setStatus(id, status)
}

// SetSlotStatusByID replaces the status of slot id.
func (e *Editor) SetSlotStatusByID(id SlotID, status availability.SlotStatus) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, _, err := e.locate(id); err != nil {
		return err
	}
	return e.setStatus(id, status)
}

func (e *Editor) setStatus(id SlotID, status availability.SlotStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: %q", availability.ErrInvalidStatus, status)
	}
	s := e.slots[id]
	s.Status = status
	e.slots[id] = s
	e.dirty = true
	return nil
}

// AddSlot appends a 09:00-10:00 AVAILABLE slot to day. Overlaps are not checked.
// POST: Returns the new slot's id
func (e *Editor) AddSlot(day availability.Weekday) (SlotID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, err := e.day(day)
	if err != nil {
		return "", err
	}
	id := e.put(availability.NewSlot())
	d.order = append(d.order, id)
	e.dirty = true
	return id, nil
}

// RemoveSlot removes the slot at index on day. Removing the last slot leaves an empty day.
func (e *Editor) RemoveSlot(day availability.Weekday, index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, _, err := e.slotAt(day, index)
	if err != nil {
		return err
	}
	e.remove(d, index)
	return nil
}

// RemoveSlotByID removes slot id from whichever day holds it.
func (e *Editor) RemoveSlotByID(id SlotID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, i, err := e.locate(id)
	if err != nil {
		return err
	}
	e.remove(d, i)
	return nil
}

func (e *Editor) remove(d *dayDraft, index int) {
	delete(e.slots, d.order[index])
	d.order = append(d.order[:index], d.order[index+1:]...)
	e.dirty = true
}

// SetSlotTime overwrites one bound of the slot at index. The value must be HH:MM;
// start may end up after end.
func (e *Editor) SetSlotTime(day availability.Weekday, index int, field Field, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, id, err := e.slotAt(day, index)
	if err != nil {
		return err
	}
	return e.setTime(id, field, value)
}

// SetSlotTimeByID overwrites one bound of slot id.
func (e *Editor) SetSlotTimeByID(id SlotID, field Field, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, _, err := e.locate(id); err != nil {
		return err
	}
	return e.setTime(id, field, value)
}

func (e *Editor) setTime(id SlotID, field Field, value string) error {
	if err := availability.ValidateClock(value); err != nil {
		return err
	}
	s := e.slots[id]
	switch field {
	case FieldStart:
		s.StartTime = value
	case FieldEnd:
		s.EndTime = value
	default:
		return fmt.Errorf("unknown field %d", field)
	}
	e.slots[id] = s
	e.dirty = true
	return nil
}

// SetDayNote overwrites day's free-text note.
func (e *Editor) SetDayNote(day availability.Weekday, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, err := e.day(day)
	if err != nil {
		return err
	}
	d.note = text
	e.dirty = true
	return nil
}

// MarkDayOff sets every slot of day to OFF, keeping slots and times.
func (e *Editor) MarkDayOff(day availability.Weekday) error {
	return e.markDay(day, availability.StatusOff)
}

// MarkDayAvailable sets every slot of day to AVAILABLE, keeping slots and times.
func (e *Editor) MarkDayAvailable(day availability.Weekday) error {
	return e.markDay(day, availability.StatusAvailable)
}

func (e *Editor) markDay(day availability.Weekday, status availability.SlotStatus) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, err := e.day(day)
	if err != nil {
		return err
	}
	for _, id := range d.order {
		s := e.slots[id]
		s.Status = status
		e.slots[id] = s
	}
	e.dirty = true
	return nil
}

// MarkAllOff resets all seven days to the default template with every slot OFF.
// Custom slots are discarded; notes are kept.
func (e *Editor) MarkAllOff() error {
	return e.resetAll(availability.StatusOff)
}

// MarkAllAvailable resets all seven days to the default template with every slot AVAILABLE.
// Custom slots are discarded; notes are kept.
func (e *Editor) MarkAllAvailable() error {
	return e.resetAll(availability.StatusAvailable)
}

func (e *Editor) resetAll(status availability.SlotStatus) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.mutable(); err != nil {
		return err
	}
	e.slots = make(map[SlotID]availability.TimeSlot, availability.DaysInWeek*7)
	for _, w := range availability.AllWeekdays {
		d := e.days[w]
		d.order = d.order[:0]
		for _, s := range availability.DefaultSlots(status) {
			d.order = append(d.order, e.put(s))
		}
	}
	e.dirty = true
	return nil
}

// Save sends the whole draft to the server.
// PRE: State is READY
// POST: On success a success notification is shown, ScheduleSaved is published,
// and after the confirmation delay the navigator closes the editor (state CLOSED).
// On failure an error notification is shown, the draft is left exactly as it was,
// and the state returns to READY so the user can retry.
func (e *Editor) Save(ctx context.Context) error {
	e.mu.Lock()
	if err := e.mutable(); err != nil {
		e.mu.Unlock()
		return err
	}
	e.state = StateSaving
	trainerID := e.trainerID
	req := api.ReplaceScheduleRequest{WeeklySchedule: e.snapshotLocked().Days}
	if e.lock {
		v := e.version
		req.Version = &v
	}
	e.mu.Unlock()

	res, err := e.deps.Client.ReplaceTrainerSchedule(ctx, trainerID, req)
	if err != nil {
		e.mu.Lock()
		e.state = StateReady
		e.mu.Unlock()

		msg := api.Message(err)
		if msg == "" {
			msg = "Could not save the schedule. Please try again."
		}
		e.deps.Notifier.Notify(LevelError, msg)
		slog.Warn("editor_event", "event", "save_failed", "trainer_id", trainerID, "error", err)
		if errors.Is(err, api.ErrConflict) {
			return fmt.Errorf("%w: %w", ErrConflict, err)
		}
		return fmt.Errorf("save schedule: %w", err)
	}

	e.mu.Lock()
	e.version = res.Version
	e.fellBack = false
	e.dirty = false
	e.closing = true
	e.state = StateReady
	e.mu.Unlock()

	e.deps.Notifier.Notify(LevelSuccess, "Schedule saved.")
	slog.Info("editor_event", "event", "saved", "trainer_id", trainerID, "version", res.Version)
	if e.deps.Hub != nil {
		e.deps.Hub.Publish(refresh.Event{Topic: refresh.ScheduleSaved, TrainerID: trainerID, Version: res.Version})
	}

	select {
	case <-e.deps.After(e.deps.ConfirmDelay):
	case <-ctx.Done():
	}

	e.mu.Lock()
	e.state = StateClosed
	e.closing = false
	e.mu.Unlock()
	e.deps.Navigator.Close(trainerID)
	return nil
}

// State returns the lifecycle state.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Dirty reports whether the draft has unsaved changes.
func (e *Editor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirty
}

// LoadedFromServer reports whether the draft came from the server rather
// than the default template substituted after a failed fetch.
func (e *Editor) LoadedFromServer() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state != StateLoading && !e.fellBack
}

// Version returns the server version the draft is based on.
func (e *Editor) Version() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.version
}

// SlotIDs returns the ids of day's slots in display order.
func (e *Editor) SlotIDs(day availability.Weekday) []SlotID {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.days[day]
	if !ok {
		return nil
	}
	out := make([]SlotID, len(d.order))
	copy(out, d.order)
	return out
}

// Snapshot returns the draft as a plain week, Monday first.
// Before Load completes it returns a week with no days.
func (e *Editor) Snapshot() availability.WeeklySchedule {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Editor) snapshotLocked() availability.WeeklySchedule {
	out := availability.WeeklySchedule{TrainerID: e.trainerID, Version: e.version}
	if e.days == nil {
		return out
	}
	out.Days = make([]availability.DaySchedule, 0, availability.DaysInWeek)
	for _, w := range availability.AllWeekdays {
		d, ok := e.days[w]
		if !ok {
			continue
		}
		ds := availability.DaySchedule{Weekday: w, Note: d.note, Slots: make([]availability.TimeSlot, len(d.order))}
		for i, id := range d.order {
			ds.Slots[i] = e.slots[id]
		}
		out.Days = append(out.Days, ds)
	}
	return out
}
