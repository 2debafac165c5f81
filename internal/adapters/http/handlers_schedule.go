package web

import (
	"net/http"
	"net/url"

	"billionsgym/internal/adapters/api"
	"billionsgym/internal/application/orchestrators"
	"billionsgym/internal/application/viewer"
	"billionsgym/internal/domain/availability"
)

// availabilityURL links to a trainer's HTML availability page, or "" without a public URL.
func availabilityURL(trainerID string) string {
	if publicURL == "" {
		return ""
	}
	return publicURL + "/trainers/" + url.PathEscape(trainerID) + "/availability"
}

func getScheduleDeps() orchestrators.GetTrainerScheduleDeps {
	return orchestrators.GetTrainerScheduleDeps{
		AccountStore:  stores.AccountStore,
		ScheduleStore: stores.ScheduleStore,
		BookingStore:  stores.BookingStore,
	}
}

// handleGetTrainerSchedule handles GET /trainer-schedule/{trainerId}
func handleGetTrainerSchedule(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	acct, ok := currentAccount(w, r, sess)
	if !ok {
		return
	}
	trainerID := r.PathValue("trainerId")
	if !acct.CanViewSchedule(trainerID) {
		writeError(w, http.StatusForbidden, "not allowed to view this trainer's schedule")
		return
	}

	res, err := orchestrators.ExecuteGetTrainerSchedule(r.Context(), orchestrators.GetTrainerScheduleInput{TrainerID: trainerID}, getScheduleDeps())
	if status, known := scheduleErrorStatus(err); known {
		writeError(w, status, err.Error())
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}

	days := res.Schedule.Days
	if days == nil {
		days = []availability.DaySchedule{}
	}
	writeData(w, http.StatusOK, api.ScheduleData{
		WeeklySchedule:    days,
		ScheduledSessions: res.Sessions,
		Version:           res.Schedule.Version,
	}, "")
}

// handleReplaceTrainerSchedule handles PUT /trainer-schedule/{trainerId}
func handleReplaceTrainerSchedule(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	acct, ok := currentAccount(w, r, sess)
	if !ok {
		return
	}

	var req api.ReplaceScheduleRequest
	if err := strictDecode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.WeeklySchedule == nil {
		writeError(w, http.StatusBadRequest, "weeklySchedule is required")
		return
	}

	saved, err := orchestrators.ExecuteReplaceTrainerSchedule(r.Context(), orchestrators.ReplaceTrainerScheduleInput{
		TrainerID: r.PathValue("trainerId"),
		Days:      req.WeeklySchedule,
		Version:   req.Version,
		Actor:     acct,
	}, orchestrators.ReplaceTrainerScheduleDeps{
		AccountStore:  stores.AccountStore,
		ScheduleStore: stores.ScheduleStore,
		Notify: &orchestrators.NotifyScheduleChangedDeps{
			NotificationStore: stores.NotificationStore,
			AccountStore:      stores.AccountStore,
			Outbox:            stores.OutboxStore,
			FromAddress:       emailFromAddress,
			ViewURL:           availabilityURL,
			GenerateID:        generateID,
			Now:               timeNow,
		},
	})
	if status, known := scheduleErrorStatus(err); known {
		writeError(w, status, err.Error())
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	writeData(w, http.StatusOK, api.ReplaceScheduleData{Version: saved.Version}, "Schedule saved")
}

// handleAvailabilityPage handles GET /trainers/{trainerId}/availability (HTML).
// Days the trainer never saved are shown as not set.
func handleAvailabilityPage(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	acct, ok := currentAccount(w, r, sess)
	if !ok {
		return
	}
	trainerID := r.PathValue("trainerId")
	if !acct.CanViewSchedule(trainerID) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	res, err := orchestrators.ExecuteGetTrainerSchedule(r.Context(), orchestrators.GetTrainerScheduleInput{TrainerID: trainerID}, getScheduleDeps())
	if status, known := scheduleErrorStatus(err); known {
		http.Error(w, err.Error(), status)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}

	view := viewer.BuildView(trainerID, api.ScheduleData{
		WeeklySchedule:    res.Schedule.Days,
		ScheduledSessions: res.Sessions,
	})
	status := r.URL.Query().Get("status")
	renderTemplate(w, r, "availability.html", map[string]any{
		"Trainer":  res.Trainer,
		"View":     view,
		"Sessions": view.FilterSessions(status),
		"Status":   status,
		"Version":  res.Schedule.Version,
	})
}
