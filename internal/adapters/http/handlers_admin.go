package web

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"billionsgym/internal/adapters/api"
	"billionsgym/internal/application/orchestrators"
	domainAccount "billionsgym/internal/domain/account"
)

// dateLayout is the wire format of booking dates.
const dateLayout = "2006-01-02"

// handleCreateAccount handles POST /admin/accounts
func handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	var req api.CreateAccountRequest
	if err := strictDecode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	acct, err := orchestrators.ExecuteCreateAccount(r.Context(), orchestrators.CreateAccountInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     req.Role,
	}, orchestrators.CreateAccountDeps{
		AccountStore: stores.AccountStore,
		GenerateID:   generateID,
		Now:          timeNow,
	})
	switch {
	case errors.Is(err, orchestrators.ErrEmailAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
		return
	case isAccountValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		internalError(w, err)
		return
	}
	writeData(w, http.StatusCreated, api.AccountData{ID: acct.ID, Email: acct.Email, Name: acct.Name, Role: acct.Role}, "")
}

func isAccountValidationError(err error) bool {
	for _, target := range []error{
		domainAccount.ErrEmptyEmail, domainAccount.ErrEmailTooLong, domainAccount.ErrInvalidEmail,
		domainAccount.ErrEmptyName, domainAccount.ErrInvalidRole,
		domainAccount.ErrEmptyPassword, domainAccount.ErrPasswordTooShort,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// handleCreateBooking handles POST /admin/bookings
func handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	var req api.CreateBookingRequest
	if err := strictDecode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "startDate must be YYYY-MM-DD")
		return
	}
	var end time.Time
	if req.EndDate != "" {
		if end, err = time.Parse(dateLayout, req.EndDate); err != nil {
			writeError(w, http.StatusBadRequest, "endDate must be YYYY-MM-DD")
			return
		}
	}

	s, err := orchestrators.ExecuteCreateBooking(r.Context(), orchestrators.CreateBookingInput{
		TrainerID:         req.TrainerID,
		Member:            req.Member,
		Package:           req.Package,
		TotalSessionCount: req.TotalSessionCount,
		Status:            req.Status,
		StartDate:         start,
		EndDate:           end,
	}, orchestrators.CreateBookingDeps{
		AccountStore:      stores.AccountStore,
		BookingStore:      stores.BookingStore,
		NotificationStore: stores.NotificationStore,
		GenerateID:        generateID,
		Now:               timeNow,
	})
	switch {
	case errors.Is(err, orchestrators.ErrTrainerNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, orchestrators.ErrInvalidBooking):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		internalError(w, err)
		return
	}
	writeData(w, http.StatusCreated, s, "")
}

// handleAdminPerf handles GET /admin/perf (?minutes=N, ?top=N)
func handleAdminPerf(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	if perfCollector == nil {
		writeError(w, http.StatusServiceUnavailable, "performance collection is disabled")
		return
	}
	minutes, top := 15, 10
	if v, err := strconv.Atoi(r.URL.Query().Get("minutes")); err == nil && v > 0 {
		minutes = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("top")); err == nil && v > 0 {
		top = v
	}
	since := timeNow().Add(-time.Duration(minutes) * time.Minute)
	writeData(w, http.StatusOK, perfCollector.Snapshot(since, top), "")
}
