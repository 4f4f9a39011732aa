// Package handlers implements the dashboard's JSON API.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/vxplore/Clinik-pe-sub000/internal/apiclient"
	"github.com/vxplore/Clinik-pe-sub000/internal/clinikpe"
	"github.com/vxplore/Clinik-pe-sub000/internal/listview"
	"github.com/vxplore/Clinik-pe-sub000/internal/notify"
	"github.com/vxplore/Clinik-pe-sub000/internal/onboarding"
	"github.com/vxplore/Clinik-pe-sub000/internal/reorder"
	"github.com/vxplore/Clinik-pe-sub000/internal/schedule"
)

const maxBodyBytes = 1 << 20

// Result is the body of every dashboard response. Mutations always carry a
// notification; list pages carry the re-fetched page.
type Result struct {
	Notification *notify.Notification `json:"notification,omitempty"`
	Page         any                  `json:"page,omitempty"`
	Items        any                  `json:"items,omitempty"`
	Data         any                  `json:"data,omitempty"`
	Errors       map[string]string    `json:"errors,omitempty"`
	Redirect     string               `json:"redirect,omitempty"`
	Stale        bool                 `json:"stale,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func jsonError(w http.ResponseWriter, message string, status int) {
	n := notify.Error(message)
	writeJSON(w, status, Result{Notification: &n})
}

// decodeJSON reads a size-limited JSON body into v. An empty body leaves v
// untouched.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

var errBadRequest = errors.New("handlers: bad request")

// badRequest wraps a user-facing validation message.
func badRequest(message string) error {
	return fmt.Errorf("%w: %s", errBadRequest, message)
}

// errorMessage turns any failure into the text of an error toast.
func errorMessage(err error) string {
	var fields onboarding.FieldErrors
	switch {
	case errors.As(err, &fields):
		return fields.Error()
	case errors.Is(err, errBadRequest):
		msg := err.Error()
		prefix := errBadRequest.Error() + ": "
		if len(msg) > len(prefix) {
			return msg[len(prefix):]
		}
		return "Invalid request"
	case errors.Is(err, clinikpe.ErrMissingScope):
		return "Select an organization and center first"
	case errors.Is(err, schedule.ErrInvalidTime):
		return "Enter times as HH:MM"
	case errors.Is(err, schedule.ErrEmptyWindow):
		return "End time must be after start time"
	case errors.Is(err, schedule.ErrSlotDuration):
		return "Slot duration must divide the time window"
	case errors.Is(err, reorder.ErrUnknownItem):
		return "That item is no longer in the list. Refresh and try again."
	case errors.Is(err, clinikpe.ErrInvalidReorder):
		return "Invalid reorder request"
	case errors.Is(err, clinikpe.ErrInvalidAppointmentStatus):
		return "Unknown appointment status"
	case errors.Is(err, clinikpe.ErrNoToken):
		return "Login failed. Please request a new OTP."
	default:
		return apiclient.MessageOf(err)
	}
}

// errorStatus picks the HTTP status for a failure. Backend rejections keep
// their 4xx status; anything the backend got wrong is a 502.
func errorStatus(err error) int {
	var fields onboarding.FieldErrors
	switch {
	case errors.As(err, &fields),
		errors.Is(err, errBadRequest),
		errors.Is(err, schedule.ErrInvalidTime),
		errors.Is(err, schedule.ErrEmptyWindow),
		errors.Is(err, schedule.ErrSlotDuration),
		errors.Is(err, clinikpe.ErrInvalidReorder),
		errors.Is(err, clinikpe.ErrInvalidAppointmentStatus):
		return http.StatusBadRequest
	case errors.Is(err, clinikpe.ErrMissingScope):
		return http.StatusConflict
	case errors.Is(err, reorder.ErrUnknownItem):
		return http.StatusNotFound
	case errors.Is(err, listview.ErrStale):
		return http.StatusConflict
	}
	if status := apiclient.StatusOf(err); status >= 400 && status < 500 {
		return status
	}
	return http.StatusBadGateway
}

func fieldErrors(err error) map[string]string {
	var fields onboarding.FieldErrors
	if errors.As(err, &fields) {
		return fields
	}
	return nil
}
