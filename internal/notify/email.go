package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/vxplore/Clinik-pe-sub000/pkg/logging"
)

const (
	defaultFromName = "ClinikPe"
	invoiceCategory = "invoice"
)

// EmailSender delivers invoice e-mails. Billing picks SendGrid, SES or the
// stub at startup.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is one invoice e-mail. Text is always set; HTML is the
// rendered invoice.
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Body    string
	HTML    string
	// InvoiceNumber tags the message at the provider so bounces and opens
	// can be traced back to a booking.
	InvoiceNumber string
}

// SendGridSender posts invoice e-mails to the SendGrid v3 API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	logger    *logging.Logger
}

type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// NewSendGridSender returns nil when no API key is configured.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = defaultFromName
	}
	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

// message builds the v3 payload. Every invoice e-mail carries the "invoice"
// category and the invoice number as a custom arg.
func (s *SendGridSender) message(msg EmailMessage) *mail.SGMailV3 {
	html := msg.HTML
	if html == "" {
		html = msg.Body
	}
	m := mail.NewSingleEmail(
		mail.NewEmail(s.fromName, s.fromEmail),
		msg.Subject,
		mail.NewEmail(msg.ToName, msg.To),
		msg.Body,
		html,
	)
	m.AddCategories(invoiceCategory)
	if msg.InvoiceNumber != "" {
		m.SetCustomArg("invoice_number", msg.InvoiceNumber)
	}
	return m
}

func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.client == nil {
		return fmt.Errorf("notify: sendgrid client not configured")
	}
	resp, err := s.client.SendWithContext(ctx, s.message(msg))
	if err != nil {
		s.logger.Error("invoice e-mail failed", "provider", "sendgrid", "invoice", msg.InvoiceNumber, "error", err)
		return fmt.Errorf("notify: sendgrid send failed: %w", err)
	}
	if resp.StatusCode >= 400 {
		s.logger.Error("invoice e-mail rejected", "provider", "sendgrid", "invoice", msg.InvoiceNumber, "status", resp.StatusCode, "body", resp.Body)
		return fmt.Errorf("notify: sendgrid returned status %d", resp.StatusCode)
	}
	s.logger.Info("invoice e-mail sent", "provider", "sendgrid", "invoice", msg.InvoiceNumber, "status", resp.StatusCode)
	return nil
}

// StubEmailSender only logs. It is used when no provider is configured.
type StubEmailSender struct {
	logger *logging.Logger
}

func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

func (s *StubEmailSender) Send(_ context.Context, msg EmailMessage) error {
	s.logger.Info("invoice e-mail not sent; no provider configured", "invoice", msg.InvoiceNumber, "subject", msg.Subject)
	return nil
}

var (
	_ EmailSender = (*SendGridSender)(nil)
	_ EmailSender = (*StubEmailSender)(nil)
)
