package web

import (
	"errors"
	"net/http"
	"strings"

	"billionsgym/internal/adapters/api"
	"billionsgym/internal/adapters/http/middleware"
	"billionsgym/internal/application/orchestrators"
)

// handleLogin handles POST /auth/login
func handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := strictDecode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	}, orchestrators.LoginDeps{
		AccountStore: stores.AccountStore,
		Now:          timeNow,
	})
	switch {
	case errors.Is(err, orchestrators.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	case errors.Is(err, orchestrators.ErrAccountLocked):
		writeError(w, http.StatusLocked, err.Error())
		return
	case err != nil:
		internalError(w, err)
		return
	}

	token, err := sessions.Create(result.AccountID, result.Email, result.Role)
	if err != nil {
		internalError(w, err)
		return
	}
	// The cookie lets the same login open the HTML availability pages.
	middleware.SetSessionCookie(w, token)
	writeData(w, http.StatusOK, api.LoginData{Token: token, Role: result.Role, AccountID: result.AccountID}, "")
}

// handleLogout handles POST /auth/logout for API clients and the page's sign-out form.
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.RequestToken(r); token != "" {
		sessions.Delete(token)
	}
	middleware.ClearSessionCookie(w)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		// Only same-site paths are followed.
		if next := r.FormValue("next"); strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") {
			http.Redirect(w, r, next, http.StatusSeeOther)
			return
		}
	}
	writeData(w, http.StatusOK, struct{}{}, "signed out")
}
