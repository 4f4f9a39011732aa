package handlers

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vxplore/Clinik-pe-sub000/internal/audit"
	"github.com/vxplore/Clinik-pe-sub000/internal/clinikpe"
	"github.com/vxplore/Clinik-pe-sub000/internal/notify"
	"github.com/vxplore/Clinik-pe-sub000/internal/onboarding"
	"github.com/vxplore/Clinik-pe-sub000/internal/session"
)

var bookingStatuses = map[string]bool{
	"pending":   true,
	"confirmed": true,
	"completed": true,
	"cancelled": true,
}

var paymentStatuses = map[string]bool{
	"":        true,
	"unpaid":  true,
	"partial": true,
	"paid":    true,
}

// BillingHandler adds booking status changes and invoices on top of the
// bookings page.
type BillingHandler struct {
	env      *Env
	bookings *ResourceHandler[clinikpe.Booking, clinikpe.BookingInput]
	email    notify.EmailSender
}

// NewBillingHandler builds the handler. email may be nil, in which case
// invoice e-mails are refused.
func NewBillingHandler(env *Env, bookings *ResourceHandler[clinikpe.Booking, clinikpe.BookingInput], email notify.EmailSender) *BillingHandler {
	return &BillingHandler{env: env, bookings: bookings, email: email}
}

// UpdateStatus handles PATCH /api/billing/bookings/{id}/status.
func (h *BillingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	h.bookings.mutate(w, r, audit.ActionStatus, http.StatusOK, "Booking status updated",
		func(ctx context.Context, ref Ref) error {
			var in clinikpe.BookingStatusInput
			if err := decodeJSON(r, &in); err != nil {
				return badRequest("Invalid request body")
			}
			in.Status = strings.ToLower(strings.TrimSpace(in.Status))
			in.PaymentStatus = strings.ToLower(strings.TrimSpace(in.PaymentStatus))
			if !bookingStatuses[in.Status] {
				return badRequest("Unknown booking status")
			}
			if !paymentStatuses[in.PaymentStatus] {
				return badRequest("Unknown payment status")
			}
			if in.PaidAmount < 0 {
				return badRequest("Amounts cannot be negative")
			}
			_, err := h.env.API.UpdateBookingStatus(ctx, ref.Session.Scope(), ref.ID, in)
			return err
		})
}

// Invoice handles GET /api/billing/bookings/{id}/invoice.
func (h *BillingHandler) Invoice(w http.ResponseWriter, r *http.Request) {
	sess := current(r)
	inv, err := h.env.API.GetInvoice(r.Context(), sess.Scope(), chi.URLParam(r, "id"))
	if err != nil {
		h.env.fail(w, r, sess, err)
		return
	}
	writeJSON(w, http.StatusOK, Result{Data: inv})
}

// InvoiceEmailRequest overrides the invoice recipient.
type InvoiceEmailRequest struct {
	To   string `json:"to"`
	Name string `json:"name"`
}

// EmailInvoice handles POST /api/billing/bookings/{id}/invoice/email. The
// recipient defaults to the patient on the invoice.
func (h *BillingHandler) EmailInvoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := current(r)
	bookingID := chi.URLParam(r, "id")

	if h.email == nil {
		h.env.fail(w, r, sess, badRequest("E-mail is not configured"))
		return
	}
	var req InvoiceEmailRequest
	if err := decodeJSON(r, &req); err != nil {
		h.env.fail(w, r, sess, badRequest("Invalid request body"))
		return
	}

	inv, err := h.env.API.GetInvoice(ctx, sess.Scope(), bookingID)
	if err != nil {
		h.env.fail(w, r, sess, err)
		return
	}
	to := strings.TrimSpace(req.To)
	if to == "" {
		to = inv.Patient.Email
	}
	if to == "" {
		h.env.fail(w, r, sess, badRequest("The patient has no e-mail address"))
		return
	}
	if !onboarding.ValidEmail(to) {
		h.env.fail(w, r, sess, badRequest("Enter a valid e-mail address"))
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = inv.Patient.Name
	}

	msg, err := invoiceEmail(inv, to, name)
	if err != nil {
		h.env.logger().Error("invoice render failed", "booking_id", bookingID, "error", err)
		h.env.fail(w, r, sess, err)
		return
	}
	if err := h.email.Send(ctx, msg); err != nil {
		h.env.logger().Error("invoice email failed", "booking_id", bookingID, "error", err)
		h.env.record(ctx, sess, "invoice", audit.ActionEmail, bookingID, err, "Invoice e-mail could not be sent")
		h.emailFailed(w, r, sess)
		return
	}

	text := fmt.Sprintf("Invoice %s sent to %s", inv.InvoiceNumber, to)
	h.env.record(ctx, sess, "invoice", audit.ActionEmail, bookingID, nil, text)
	writeJSON(w, http.StatusOK, Result{Notification: h.env.notify(ctx, sess, notify.Success(text))})
}

func (h *BillingHandler) emailFailed(w http.ResponseWriter, r *http.Request, sess session.Session) {
	n := h.env.notify(r.Context(), sess, notify.Error("Invoice e-mail could not be sent. Try again later."))
	writeJSON(w, http.StatusBadGateway, Result{Notification: n})
}

var invoiceHTML = template.Must(template.New("invoice").Funcs(template.FuncMap{"money": money}).Parse(`<html><body>
<h2>{{.Center.Name}}</h2>
<p>Invoice <strong>{{.InvoiceNumber}}</strong>{{if .IssuedAt}} issued {{.IssuedAt}}{{end}}</p>
<p>Billed to: {{.Patient.Name}}{{if .Patient.Phone}} ({{.Patient.Phone}}){{end}}</p>
<table border="1" cellpadding="4" cellspacing="0">
<tr><th align="left">Item</th><th align="right">Price</th></tr>
{{range .Items}}<tr><td>{{.Name}}</td><td align="right">{{money .Price}}</td></tr>
{{end}}</table>
<p>Subtotal: {{money .SubTotal}}<br>Discount: {{money .Discount}}<br>Tax: {{money .Tax}}<br>
<strong>Total: {{money .Total}}</strong><br>Paid: {{money .Paid}}<br>Due: {{money .Due}}</p>
</body></html>`))

func money(v float64) string { return fmt.Sprintf("%.2f", v) }

func invoiceEmail(inv *clinikpe.Invoice, to, name string) (notify.EmailMessage, error) {
	var text strings.Builder
	fmt.Fprintf(&text, "%s\nInvoice %s\n", inv.Center.Name, inv.InvoiceNumber)
	if inv.IssuedAt != "" {
		fmt.Fprintf(&text, "Issued: %s\n", inv.IssuedAt)
	}
	fmt.Fprintf(&text, "Billed to: %s\n\n", inv.Patient.Name)
	for _, item := range inv.Items {
		fmt.Fprintf(&text, "%-40s %10s\n", item.Name, money(item.Price))
	}
	fmt.Fprintf(&text, "\nSubtotal: %s\nDiscount: %s\nTax: %s\nTotal: %s\nPaid: %s\nDue: %s\n",
		money(inv.SubTotal), money(inv.Discount), money(inv.Tax), money(inv.Total), money(inv.Paid), money(inv.Due))

	var html bytes.Buffer
	if err := invoiceHTML.Execute(&html, inv); err != nil {
		return notify.EmailMessage{}, fmt.Errorf("render invoice: %w", err)
	}
	subject := "Your invoice " + inv.InvoiceNumber
	if inv.Center.Name != "" {
		subject += " from " + inv.Center.Name
	}
	return notify.EmailMessage{
		To:      to,
		ToName:  name,
		Subject: subject,
		Body:    text.String(),
		HTML:    html.String(),

		InvoiceNumber: inv.InvoiceNumber,
	}, nil
}
