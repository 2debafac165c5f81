package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"
)

// ScheduleChanged is the data for the "availability updated" email.
type ScheduleChanged struct {
	RecipientName string
	TrainerName   string
	EditorName    string
	ViewURL       string
	ChangedAt     time.Time
}

var scheduleChangedTmpl = template.Must(template.New("schedule_changed").Parse(`<!doctype html>
<html><body style="font-family:sans-serif">
<p>Hi {{.RecipientName}},</p>
<p>{{.EditorName}} updated the weekly availability for <strong>{{.TrainerName}}</strong> on {{.ChangedAt.Format "Mon 02 Jan 2006 15:04"}}.</p>
{{if .ViewURL}}<p><a href="{{.ViewURL}}">View the schedule</a></p>{{end}}
<p>Billions Gym</p>
</body></html>`))

// Render returns the subject, HTML body and plain-text body.
func (m ScheduleChanged) Render() (subject, html, text string, err error) {
	subject = fmt.Sprintf("Availability updated for %s", m.TrainerName)

	var buf bytes.Buffer
	if err := scheduleChangedTmpl.Execute(&buf, m); err != nil {
		return "", "", "", fmt.Errorf("render schedule_changed: %w", err)
	}

	var tb strings.Builder
	fmt.Fprintf(&tb, "Hi %s,\n\n%s updated the weekly availability for %s on %s.\n",
		m.RecipientName, m.EditorName, m.TrainerName, m.ChangedAt.Format("Mon 02 Jan 2006 15:04"))
	if m.ViewURL != "" {
		fmt.Fprintf(&tb, "\n%s\n", m.ViewURL)
	}
	return subject, buf.String(), tb.String(), nil
}
