package handlers

import (
	"net/http"
	"strings"

	"github.com/vxplore/Clinik-pe-sub000/internal/audit"
	"github.com/vxplore/Clinik-pe-sub000/internal/clinikpe"
)

// AuditLog handles GET /api/audit: the current organization's changes,
// newest first, filtered by ?entity= and ?action=.
func (e *Env) AuditLog(w http.ResponseWriter, r *http.Request) {
	sess := current(r)
	if sess.OrgID == "" {
		e.fail(w, r, sess, clinikpe.ErrMissingScope)
		return
	}
	q := e.query(r)
	events, err := e.Audit.Query(r.Context(), audit.Filter{
		OrgID:  sess.OrgID,
		Entity: strings.TrimSpace(r.URL.Query().Get("entity")),
		Action: audit.Action(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("action")))),
		Limit:  q.PageSize,
		Offset: (q.PageNumber - 1) * q.PageSize,
	})
	if err != nil {
		e.logger().Error("audit trail unavailable", "org_id", sess.OrgID, "error", err)
		jsonError(w, "The activity log is unavailable right now", http.StatusServiceUnavailable)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	writeJSON(w, http.StatusOK, Result{Items: events})
}
