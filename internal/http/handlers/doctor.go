package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vxplore/Clinik-pe-sub000/internal/audit"
	"github.com/vxplore/Clinik-pe-sub000/internal/clinikpe"
	"github.com/vxplore/Clinik-pe-sub000/internal/listview"
	"github.com/vxplore/Clinik-pe-sub000/internal/notify"
)

const doctorAppointmentsPage = "doctor-appointments"

// DoctorHandler serves the provider dashboard.
type DoctorHandler struct {
	env *Env
}

func NewDoctorHandler(env *Env) *DoctorHandler {
	return &DoctorHandler{env: env}
}

// Dashboard handles GET /api/doctor/dashboard.
func (h *DoctorHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	sess := current(r)
	dash, err := h.env.API.DoctorDashboard(r.Context())
	if err != nil {
		h.env.fail(w, r, sess, err)
		return
	}
	writeJSON(w, http.StatusOK, Result{Data: dash})
}

func (h *DoctorHandler) appointments(ctx context.Context, sessionID string, q listview.Query) (listview.Page[clinikpe.Appointment], error) {
	return listview.Load(ctx, h.env.Tracker, sessionID, doctorAppointmentsPage,
		func(ctx context.Context) (listview.Page[clinikpe.Appointment], error) {
			src, err := h.env.API.ListDoctorAppointments(ctx, q.ListQuery())
			if err != nil {
				return listview.Page[clinikpe.Appointment]{}, err
			}
			return listview.NewPage(src, q), nil
		})
}

// Appointments handles GET /api/doctor/appointments.
func (h *DoctorHandler) Appointments(w http.ResponseWriter, r *http.Request) {
	sess := current(r)
	page, err := h.appointments(r.Context(), sess.ID, h.env.query(r))
	if errors.Is(err, listview.ErrStale) {
		writeJSON(w, http.StatusConflict, Result{Stale: true})
		return
	}
	if err != nil {
		h.env.fail(w, r, sess, err)
		return
	}
	writeJSON(w, http.StatusOK, Result{Page: page})
}

// AppointmentStatusRequest is the status a provider sets on an appointment.
type AppointmentStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /api/doctor/appointments/{id}/status and
// answers with the re-fetched appointment page.
func (h *DoctorHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := current(r)
	id := chi.URLParam(r, "id")

	var req AppointmentStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.env.fail(w, r, sess, badRequest("Invalid request body"))
		return
	}
	if _, err := h.env.API.UpdateAppointmentStatus(ctx, id, req.Status); err != nil {
		h.env.record(ctx, sess, "appointment", audit.ActionStatus, id, err, "")
		h.env.fail(w, r, sess, err)
		return
	}
	msg := fmt.Sprintf("Appointment marked %s", strings.ToLower(strings.TrimSpace(req.Status)))
	h.env.record(ctx, sess, "appointment", audit.ActionStatus, id, nil, msg)

	res := Result{Notification: h.env.notify(ctx, sess, notify.Success(msg))}
	page, err := h.appointments(ctx, sess.ID, h.env.query(r))
	switch {
	case err == nil:
		res.Page = page
	case errors.Is(err, listview.ErrStale):
		res.Stale = true
	default:
		h.env.logger().Warn("re-fetch after appointment update failed", "error", err)
	}
	writeJSON(w, http.StatusOK, res)
}
