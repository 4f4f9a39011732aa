package handlers

import (
	"net/http"
	"strconv"

	"github.com/vxplore/Clinik-pe-sub000/internal/notify"
)

// Notifications handles GET /api/notifications?limit=N, newest first.
func (e *Env) Notifications(w http.ResponseWriter, r *http.Request) {
	sess := current(r)
	if e.Feed == nil {
		writeJSON(w, http.StatusOK, Result{Items: []notify.Notification{}})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := e.Feed.Recent(r.Context(), sess.ID, limit)
	if err != nil {
		e.logger().Error("notification history unavailable", "session_id", sess.ID, "error", err)
		jsonError(w, "Notifications are unavailable right now", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, Result{Items: items})
}
