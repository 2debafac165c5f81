package main

import (
	"fmt"
	"strconv"
	"strings"

	"billionsgym/internal/application/editor"
	"billionsgym/internal/domain/availability"
)

// draft is the slice of *editor.Editor that edit operations drive.
type draft interface {
	SetSlotStatus(day availability.Weekday, index int, status availability.SlotStatus) error
	AddSlot(day availability.Weekday) (editor.SlotID, error)
	RemoveSlot(day availability.Weekday, index int) error
	SetSlotTime(day availability.Weekday, index int, field editor.Field, value string) error
	SetDayNote(day availability.Weekday, text string) error
	MarkDayOff(day availability.Weekday) error
	MarkDayAvailable(day availability.Weekday) error
	MarkAllOff() error
	MarkAllAvailable() error
}

// op is one parsed edit operation.
type op struct {
	raw   string
	apply func(d draft) error
}

const opUsage = `operations:
  all-off | all-available
  off:DAY | available:DAY
  add:DAY
  remove:DAY:INDEX
  status:DAY:INDEX:AVAILABLE|BUSY|OFF
  start:DAY:INDEX:HH:MM | end:DAY:INDEX:HH:MM
  note:DAY=TEXT`

// parseOp parses one operation argument. Indexes are zero-based.
func parseOp(arg string) (op, error) {
	if arg == "all-off" {
		return op{raw: arg, apply: func(d draft) error { return d.MarkAllOff() }}, nil
	}
	if arg == "all-available" {
		return op{raw: arg, apply: func(d draft) error { return d.MarkAllAvailable() }}, nil
	}

	// note text may contain colons, so it is split on "=" first
	if rest, ok := strings.CutPrefix(arg, "note:"); ok {
		dayPart, text, found := strings.Cut(rest, "=")
		if !found {
			return op{}, fmt.Errorf("%s: expected note:DAY=TEXT", arg)
		}
		day, err := availability.ParseWeekday(dayPart)
		if err != nil {
			return op{}, fmt.Errorf("%s: %w", arg, err)
		}
		return op{raw: arg, apply: func(d draft) error { return d.SetDayNote(day, text) }}, nil
	}

	name, rest, found := strings.Cut(arg, ":")
	if !found {
		return op{}, fmt.Errorf("%s: unknown operation", arg)
	}
	parts := strings.SplitN(rest, ":", 3)
	day, err := availability.ParseWeekday(parts[0])
	if err != nil {
		return op{}, fmt.Errorf("%s: %w", arg, err)
	}

	switch name {
	case "off":
		return op{raw: arg, apply: func(d draft) error { return d.MarkDayOff(day) }}, nil
	case "available":
		return op{raw: arg, apply: func(d draft) error { return d.MarkDayAvailable(day) }}, nil
	case "add":
		return op{raw: arg, apply: func(d draft) error {
			_, err := d.AddSlot(day)
			return err
		}}, nil
	}

	if len(parts) < 2 {
		return op{}, fmt.Errorf("%s: missing slot index", arg)
	}
	index, err := strconv.Atoi(parts[1])
	if err != nil || index < 0 {
		return op{}, fmt.Errorf("%s: slot index must be a non-negative integer", arg)
	}

	switch name {
	case "remove":
		return op{raw: arg, apply: func(d draft) error { return d.RemoveSlot(day, index) }}, nil
	case "status":
		if len(parts) < 3 {
			return op{}, fmt.Errorf("%s: missing status", arg)
		}
		status, err := availability.ParseStatus(parts[2])
		if err != nil {
			return op{}, fmt.Errorf("%s: %w", arg, err)
		}
		return op{raw: arg, apply: func(d draft) error { return d.SetSlotStatus(day, index, status) }}, nil
	case "start", "end":
		if len(parts) < 3 {
			return op{}, fmt.Errorf("%s: missing time", arg)
		}
		field, _ := editor.ParseField(name)
		value := parts[2]
		return op{raw: arg, apply: func(d draft) error { return d.SetSlotTime(day, index, field, value) }}, nil
	}
	return op{}, fmt.Errorf("%s: unknown operation %q", arg, name)
}

// parseOps parses every argument before any is applied.
func parseOps(args []string) ([]op, error) {
	ops := make([]op, 0, len(args))
	for _, a := range args {
		o, err := parseOp(a)
		if err != nil {
			return nil, err
		}
		ops = append(ops, o)
	}
	return ops, nil
}

// applyOps applies ops in order and stops at the first failure.
func applyOps(d draft, ops []op) error {
	for _, o := range ops {
		if err := o.apply(d); err != nil {
			return fmt.Errorf("%s: %w", o.raw, err)
		}
	}
	return nil
}
