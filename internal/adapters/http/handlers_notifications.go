package web

import (
	"errors"
	"net/http"
	"strconv"

	"billionsgym/internal/adapters/api"
	notificationStore "billionsgym/internal/adapters/storage/notification"
	"billionsgym/internal/application/orchestrators"
)

// handleListNotifications handles GET /notifications (?unread=1, ?limit=N)
func handleListNotifications(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	filter := notificationStore.ListFilter{}
	if v := r.URL.Query().Get("unread"); v != "" {
		unread, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unread must be a boolean")
			return
		}
		filter.UnreadOnly = unread
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filter.Limit = min(n, notificationStore.DefaultListLimit)
	}

	list, err := stores.NotificationStore.ListByRecipient(r.Context(), sess.AccountID, filter)
	if err != nil {
		internalError(w, err)
		return
	}
	unread, err := stores.NotificationStore.CountUnread(r.Context(), sess.AccountID)
	if err != nil {
		internalError(w, err)
		return
	}
	writeData(w, http.StatusOK, api.NotificationsData{Notifications: list, UnreadCount: unread}, "")
}

// handleMarkNotificationRead handles POST /notifications/{id}/read
func handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	n, err := orchestrators.ExecuteMarkNotificationRead(r.Context(), orchestrators.MarkNotificationReadInput{
		NotificationID: r.PathValue("id"),
		AccountID:      sess.AccountID,
	}, orchestrators.MarkNotificationReadDeps{
		NotificationStore: stores.NotificationStore,
		Now:               timeNow,
	})
	if errors.Is(err, orchestrators.ErrNotificationNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	writeData(w, http.StatusOK, n, "")
}
