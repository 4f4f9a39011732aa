package handlers

import (
	"context"
	"net/http"

	"github.com/vxplore/Clinik-pe-sub000/internal/audit"
	"github.com/vxplore/Clinik-pe-sub000/internal/clinikpe"
	"github.com/vxplore/Clinik-pe-sub000/internal/listview"
	"github.com/vxplore/Clinik-pe-sub000/internal/notify"
	"github.com/vxplore/Clinik-pe-sub000/internal/observability/metrics"
	"github.com/vxplore/Clinik-pe-sub000/internal/session"
	"github.com/vxplore/Clinik-pe-sub000/pkg/logging"
)

// Env carries the collaborators every dashboard handler shares. API and
// Tracker are required; the rest may be nil.
type Env struct {
	API      *clinikpe.Client
	Tracker  *listview.Tracker
	Feed     *notify.Feed
	Audit    *audit.Recorder
	Metrics  *metrics.DashboardMetrics
	Logger   *logging.Logger
	PageSize int
}

func (e *Env) logger() *logging.Logger {
	if e.Logger == nil {
		return logging.Default()
	}
	return e.Logger
}

// query parses the list query of r with the configured default page size.
func (e *Env) query(r *http.Request) listview.Query {
	return listview.ParseQuery(r.URL.Query(), e.PageSize)
}

// notify stores n in the session feed so the live stream and history see it,
// and returns it for the inline response.
func (e *Env) notify(ctx context.Context, sess session.Session, n notify.Notification) *notify.Notification {
	if e.Feed != nil {
		if err := e.Feed.Push(ctx, sess.ID, n); err != nil {
			e.logger().Warn("notification not stored", "session_id", sess.ID, "error", err)
		}
	} else {
		e.Metrics.ObserveNotification(string(n.Level))
	}
	return &n
}

// record writes an audit event for a mutation.
func (e *Env) record(ctx context.Context, sess session.Session, entity string, action audit.Action, targetID string, err error, message string) {
	if err != nil && message == "" {
		message = errorMessage(err)
	}
	e.Audit.Record(ctx, audit.Event{
		SessionID: sess.ID,
		OrgID:     sess.OrgID,
		CenterID:  sess.CenterID,
		UserID:    sess.UserID,
		Entity:    entity,
		Action:    action,
		TargetID:  targetID,
		Success:   err == nil,
		Message:   message,
	})
}

// fail writes an error toast for err.
func (e *Env) fail(w http.ResponseWriter, r *http.Request, sess session.Session, err error) {
	n := e.notify(r.Context(), sess, notify.Error(errorMessage(err)))
	writeJSON(w, errorStatus(err), Result{Notification: n, Errors: fieldErrors(err)})
}

// current returns the request's session. Routes behind the session guard
// always have one.
func current(r *http.Request) session.Session {
	sess, _ := session.FromContext(r.Context())
	return sess
}
