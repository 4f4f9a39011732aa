package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vxplore/Clinik-pe-sub000/internal/audit"
	"github.com/vxplore/Clinik-pe-sub000/internal/clinikpe"
	"github.com/vxplore/Clinik-pe-sub000/internal/notify"
)

type captureSender struct {
	mu   sync.Mutex
	sent []notify.EmailMessage
	err  error
}

func (s *captureSender) Send(_ context.Context, msg notify.EmailMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func invoiceUpstream(h *harness, patientEmail string) {
	h.upstream.Get("/organization/{org}/center/{center}/booking/{booking}/invoice", func(w http.ResponseWriter, r *http.Request) {
		envelope(w, http.StatusOK, "", map[string]any{
			"invoice_number": "INV-0042",
			"booking_id":     "b-1",
			"patient":        map[string]any{"name": "Ravi Kumar", "email": patientEmail},
			"center":         map[string]any{"name": "Main Lab"},
			"items": []map[string]any{
				{"type": "test", "ref_id": "t-1", "name": "CBC <basic>", "price": 350},
				{"type": "panel", "ref_id": "p-1", "name": "Lipid Profile", "price": 800},
			},
			"sub_total": 1150, "discount": 50, "tax": 0, "total": 1100, "paid": 600, "due": 500,
		})
	})
}

func newBilling(h *harness, sender notify.EmailSender) *BillingHandler {
	return NewBillingHandler(h.env, NewResourceHandler(h.env, Bookings(h.env.API)), sender)
}

func TestEmailInvoice_DefaultsToPatient(t *testing.T) {
	h := newHarness(t)
	invoiceUpstream(h, "ravi@example.com")
	sender := &captureSender{}
	sess := h.adminSession()

	rec := h.serve(http.MethodPost, "/bookings/{id}/invoice/email", newBilling(h, sender).EmailInvoice,
		"/bookings/b-1/invoice/email", map[string]any{}, &sess)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Invoice INV-0042 sent to ravi@example.com", decode(t, rec).Notification.Message)

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "ravi@example.com", msg.To)
	assert.Equal(t, "Ravi Kumar", msg.ToName)
	assert.Equal(t, "Your invoice INV-0042 from Main Lab", msg.Subject)
	assert.Equal(t, "INV-0042", msg.InvoiceNumber)
	assert.Contains(t, msg.Body, "Total: 1100.00")
	assert.Contains(t, msg.Body, "Due: 500.00")
	assert.Contains(t, msg.HTML, "CBC &lt;basic&gt;")
	assert.NotContains(t, msg.HTML, "CBC <basic>")
}

func TestEmailInvoice_Recipients(t *testing.T) {
	tests := []struct {
		name    string
		patient string
		body    map[string]any
		status  int
		want    string
	}{
		{"override", "", map[string]any{"to": "billing@acme.test", "name": "Accounts"}, http.StatusOK, "Invoice INV-0042 sent to billing@acme.test"},
		{"no address", "", map[string]any{}, http.StatusBadRequest, "The patient has no e-mail address"},
		{"bad address", "ravi@example.com", map[string]any{"to": "not-mail"}, http.StatusBadRequest, "Enter a valid e-mail address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			invoiceUpstream(h, tt.patient)
			sess := h.adminSession()
			rec := h.serve(http.MethodPost, "/bookings/{id}/invoice/email", newBilling(h, &captureSender{}).EmailInvoice,
				"/bookings/b-1/invoice/email", tt.body, &sess)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.want, decode(t, rec).Notification.Message)
		})
	}
}

func TestEmailInvoice_NotConfigured(t *testing.T) {
	h := newHarness(t)
	sess := h.adminSession()
	rec := h.serve(http.MethodPost, "/bookings/{id}/invoice/email", newBilling(h, nil).EmailInvoice,
		"/bookings/b-1/invoice/email", nil, &sess)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "E-mail is not configured", decode(t, rec).Notification.Message)
	assert.Zero(t, h.called("GET /organization/org-1/center/center-1/booking/b-1/invoice"))
}

func TestEmailInvoice_SendFailureIsRecorded(t *testing.T) {
	h := newHarness(t)
	invoiceUpstream(h, "ravi@example.com")
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	h.env.Audit = audit.NewRecorder(db, h.env.Logger)
	mock.ExpectExec("INSERT INTO dashboard_audit_events").WillReturnResult(sqlmock.NewResult(1, 1))

	sess := h.adminSession()
	sender := &captureSender{err: errors.New("sendgrid: status 503")}
	rec := h.serve(http.MethodPost, "/bookings/{id}/invoice/email", newBilling(h, sender).EmailInvoice,
		"/bookings/b-1/invoice/email", nil, &sess)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	out := decode(t, rec)
	assert.False(t, out.Notification.Success)
	assert.Equal(t, "Invoice e-mail could not be sent. Try again later.", out.Notification.Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingStatus_Validation(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
		want string
	}{
		{"unknown status", map[string]any{"status": "lost"}, "Unknown booking status"},
		{"unknown payment", map[string]any{"status": "confirmed", "payment_status": "later"}, "Unknown payment status"},
		{"negative paid", map[string]any{"status": "confirmed", "paid_amount": -1}, "Amounts cannot be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			sess := h.adminSession()
			rec := h.serve(http.MethodPatch, "/bookings/{id}/status", newBilling(h, nil).UpdateStatus,
				"/bookings/b-1/status", tt.body, &sess)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, decode(t, rec).Notification.Message)
			assert.Zero(t, h.called("PATCH /organization/org-1/center/center-1/booking/b-1/status"))
		})
	}
}

func TestBookingStatus_NormalizesAndRefetches(t *testing.T) {
	h := newHarness(t)
	var sent clinikpe.BookingStatusInput
	h.upstream.Patch("/organization/{org}/center/{center}/booking/{booking}/status", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
		envelope(w, http.StatusOK, "", map[string]any{"uid": "b-1", "status": sent.Status})
	})
	h.upstream.Get("/organization/{org}/center/{center}/booking", func(w http.ResponseWriter, r *http.Request) {
		listEnvelope(w, "bookings", []map[string]any{{"uid": "b-1", "patient_id": "pt-1", "amount": 1100}}, 1)
	})
	sess := h.adminSession()

	rec := h.serve(http.MethodPatch, "/bookings/{id}/status", newBilling(h, nil).UpdateStatus,
		"/bookings/b-1/status", map[string]any{"status": " Completed ", "payment_status": "PAID", "paid_amount": 1100}, &sess)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, clinikpe.BookingStatusInput{Status: "completed", PaymentStatus: "paid", PaidAmount: 1100}, sent)
	out := decode(t, rec)
	assert.Equal(t, "Booking status updated", out.Notification.Message)
	assert.Len(t, decodePage[clinikpe.Booking](t, out.Page).Items, 1)
}
