package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"billionsgym/internal/application/viewer"
	"billionsgym/internal/domain/availability"
)

// printView writes the week followed by booked sessions matching status.
func printView(w io.Writer, v viewer.View, status string) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "DAY\tSLOTS\tNOTE\n")
	for _, d := range v.Days {
		if !d.Set {
			fmt.Fprintf(tw, "%s\tNot set\t\n", d.Weekday)
			continue
		}
		s := d.Summary()
		fmt.Fprintf(tw, "%s\t%s (%d available, %d busy, %d off)\t%s\n",
			d.Weekday, formatSlots(d.Slots), s.Available, s.Busy, s.Off, d.Note)
	}
	tw.Flush()

	sessions := v.FilterSessions(status)
	fmt.Fprintf(w, "\n%d sessions\n", len(sessions))
	if len(sessions) == 0 {
		return
	}
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "MEMBER\tPACKAGE\tSTATUS\tSTART\tREMAINING\n")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d/%d\n",
			s.Member.Name, s.Package.Name, s.Status, s.StartDate.Format("2006-01-02"),
			s.RemainingSessions(), s.TotalSessionCount)
	}
	tw.Flush()
}

// printDays writes an editor snapshot.
func printDays(w io.Writer, days []availability.DaySchedule) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, d := range days {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Weekday, formatSlots(d.Slots), d.Note)
	}
	tw.Flush()
}

func formatSlots(slots []availability.TimeSlot) string {
	if len(slots) == 0 {
		return "-"
	}
	parts := make([]string, len(slots))
	for i, s := range slots {
		parts[i] = fmt.Sprintf("%s-%s %s", s.StartTime, s.EndTime, s.Status)
	}
	return strings.Join(parts, ", ")
}
