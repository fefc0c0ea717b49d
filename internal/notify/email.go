package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/wolfman30/cashbarber-autobook/pkg/logging"
)

// DefaultFromName is the sender name used when none is configured.
const DefaultFromName = "CashBarber Autobook"

// EmailSender sends one email. SendGrid, SES and the logging stub implement it.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// Mailbox is an address with an optional display name.
type Mailbox struct {
	Name    string
	Address string
}

func (m Mailbox) String() string {
	if m.Name == "" {
		return m.Address
	}
	return fmt.Sprintf("%s <%s>", m.Name, m.Address)
}

func (m Mailbox) withDefaultName() Mailbox {
	if strings.TrimSpace(m.Name) == "" {
		m.Name = DefaultFromName
	}
	return m
}

// EmailMessage is one outgoing email. Category is passed to the provider as
// a tag so report mail can be filtered.
type EmailMessage struct {
	To       Mailbox
	Subject  string
	Body     string
	HTML     string
	Category string
}

// SendGridSender sends through the SendGrid v3 API.
type SendGridSender struct {
	client *sendgrid.Client
	from   Mailbox
	logger *logging.Logger
}

// NewSendGridSender returns nil when apiKey is empty.
func NewSendGridSender(apiKey string, from Mailbox, logger *logging.Logger) *SendGridSender {
	if apiKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SendGridSender{
		client: sendgrid.NewSendClient(apiKey),
		from:   from.withDefaultName(),
		logger: logger,
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.client == nil {
		return fmt.Errorf("notify: sendgrid client not configured")
	}

	// SendGrid rejects an empty html part, so plain text doubles as html.
	htmlBody := msg.HTML
	if htmlBody == "" {
		htmlBody = msg.Body
	}
	message := mail.NewSingleEmail(
		mail.NewEmail(s.from.Name, s.from.Address),
		msg.Subject,
		mail.NewEmail(msg.To.Name, msg.To.Address),
		msg.Body,
		htmlBody,
	)
	if msg.Category != "" {
		message.AddCategories(msg.Category)
	}

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		s.logger.Error("sendgrid send failed", "error", err, "to", msg.To.Address)
		return fmt.Errorf("notify: sendgrid send failed: %w", err)
	}
	if resp.StatusCode >= 400 {
		s.logger.Error("sendgrid rejected message", "status", resp.StatusCode, "body", resp.Body, "to", msg.To.Address)
		return fmt.Errorf("notify: sendgrid returned status %d", resp.StatusCode)
	}

	s.logger.Info("email sent via sendgrid", "to", msg.To.Address, "subject", msg.Subject, "status", resp.StatusCode)
	return nil
}

// StubEmailSender only logs. It stands in when no provider is configured.
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
	s.logger.Info("stub email sender: would send email", "to", msg.To.Address, "subject", msg.Subject)
	return nil
}

// SenderConfig selects and configures the report email provider.
type SenderConfig struct {
	Provider       string // "sendgrid", "ses" or empty for automatic
	SendGridAPIKey string
	From           Mailbox
}

// NewEmailSender picks a provider: SES when requested and a client is
// available, SendGrid when an API key is set, the logging stub otherwise.
func NewEmailSender(cfg SenderConfig, ses SESAPI, logger *logging.Logger) EmailSender {
	if logger == nil {
		logger = logging.Default()
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "ses":
		if sender := NewSESSender(ses, cfg.From, logger); sender != nil {
			return sender
		}
		logger.Warn("notify: SES requested but no client configured, using stub sender")
	case "", "sendgrid":
		if sender := NewSendGridSender(cfg.SendGridAPIKey, cfg.From, logger); sender != nil {
			return sender
		}
	default:
		logger.Warn("notify: unknown provider, using stub sender", "provider", cfg.Provider)
	}
	return NewStubEmailSender(logger)
}

var (
	_ EmailSender = (*SendGridSender)(nil)
	_ EmailSender = (*StubEmailSender)(nil)
)
