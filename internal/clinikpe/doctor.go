package clinikpe

import (
	"context"
	"errors"
	"strings"
)

const (
	routeDoctorDashboard         = "/doctor/dashboard"
	routeDoctorAppointments      = "/doctor/appointments"
	routeDoctorAppointmentStatus = "/doctor/appointments/{appointment}/status"
)

// Appointment statuses a provider may set.
const (
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
	AppointmentNoShow    = "no-show"
	AppointmentConfirmed = "confirmed"
)

// ErrInvalidAppointmentStatus is returned for a status a provider cannot set.
var ErrInvalidAppointmentStatus = errors.New("clinikpe: invalid appointment status")

// DoctorDashboard returns the summary cards of the logged-in provider.
func (c *Client) DoctorDashboard(ctx context.Context) (*DoctorDashboard, error) {
	return fetch[DoctorDashboard](ctx, c, get(routeDoctorDashboard))
}

// ListDoctorAppointments lists the logged-in provider's appointments.
func (c *Client) ListDoctorAppointments(ctx context.Context, q ListQuery) (*Page[Appointment], error) {
	return list[Appointment](ctx, c, get(routeDoctorAppointments), q)
}

func (c *Client) UpdateAppointmentStatus(ctx context.Context, appointmentID, status string) (*Appointment, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	switch status {
	case AppointmentCompleted, AppointmentCancelled, AppointmentNoShow, AppointmentConfirmed:
	default:
		return nil, ErrInvalidAppointmentStatus
	}
	body := map[string]string{"status": status}
	return fetch[Appointment](ctx, c, patch(routeDoctorAppointmentStatus, appointmentID).JSON(body))
}
