package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"billionsgym/internal/adapters/api"
	"billionsgym/internal/adapters/http/middleware"
	"billionsgym/internal/application/orchestrators"
	domainAccount "billionsgym/internal/domain/account"
	"billionsgym/internal/domain/availability"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response_encode_failed", "error", err)
	}
}

// writeData writes a success envelope around data.
func writeData[T any](w http.ResponseWriter, status int, data T, message string) {
	writeJSON(w, status, api.Envelope[T]{Success: true, Data: data, Message: message})
}

// writeError writes the {success:false, message} envelope.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, api.Envelope[struct{}]{Success: false, Message: message})
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// requireSession returns the caller's session or writes 401.
func requireSession(w http.ResponseWriter, r *http.Request) (middleware.Session, bool) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		slog.Warn("auth_denied", "path", r.URL.Path, "reason", "no session")
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return middleware.Session{}, false
	}
	return sess, true
}

// requireAdmin returns the caller's session if it is an admin, else writes 401/403.
func requireAdmin(w http.ResponseWriter, r *http.Request) (middleware.Session, bool) {
	sess, ok := requireSession(w, r)
	if !ok {
		return middleware.Session{}, false
	}
	if sess.Role != domainAccount.RoleAdmin {
		slog.Warn("auth_denied", "path", r.URL.Path, "account_id", sess.AccountID, "role", sess.Role, "required", "admin")
		writeError(w, http.StatusForbidden, "forbidden")
		return middleware.Session{}, false
	}
	return sess, true
}

// currentAccount loads the account behind a session, or writes 401 if it is gone.
func currentAccount(w http.ResponseWriter, r *http.Request, sess middleware.Session) (domainAccount.Account, bool) {
	acct, err := stores.AccountStore.GetByID(r.Context(), sess.AccountID)
	if err != nil {
		slog.Warn("auth_denied", "path", r.URL.Path, "account_id", sess.AccountID, "reason", "account missing")
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return domainAccount.Account{}, false
	}
	return acct, true
}

// scheduleErrorStatus maps orchestrator sentinels to HTTP statuses.
func scheduleErrorStatus(err error) (int, bool) {
	switch {
	case errors.Is(err, orchestrators.ErrForbidden):
		return http.StatusForbidden, true
	case errors.Is(err, orchestrators.ErrTrainerNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, orchestrators.ErrInvalidSchedule), errors.Is(err, availability.ErrEmptyTrainerID):
		return http.StatusBadRequest, true
	case errors.Is(err, orchestrators.ErrVersionConflict):
		return http.StatusConflict, true
	}
	return 0, false
}

// handleHealth handles GET /healthz
func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]string{"status": "ok"}, "")
}
