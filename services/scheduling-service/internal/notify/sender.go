// Package notify delivers patient emails about appointment changes.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"sync"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Notifier sends one HTML email. Implementations can be swapped (SMTP,
// SendGrid, stub) without changing callers.
type Notifier interface {
	Send(ctx context.Context, to, subject, html string) error
}

// SMTPSender sends email via unauthenticated SMTP (Mailpit-compatible).
type SMTPSender struct {
	addr string
	from string
}

func NewSMTPSender(host string, port string, from string) *SMTPSender {
	host = strings.TrimSpace(host)
	port = strings.TrimSpace(port)
	from = strings.TrimSpace(from)
	if from == "" {
		from = "no-reply@clinic.local"
	}
	return &SMTPSender{
		addr: fmt.Sprintf("%s:%s", host, port),
		from: from,
	}
}

// Send ignores ctx: net/smtp has no context support.
func (s *SMTPSender) Send(_ context.Context, to, subject, html string) error {
	msg := buildMessage(s.from, to, subject, html)
	return smtp.SendMail(s.addr, nil, s.from, []string{to}, []byte(msg))
}

func buildMessage(from, to, subject, html string) string {
	// Minimal RFC 5322 message; enough for Mailpit and most SMTP relays.
	return fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s\r\n",
		from,
		to,
		subject,
		html,
	)
}

type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
	// Host overrides https://api.sendgrid.com, for tests.
	Host string
}

// SendGridSender sends emails via the SendGrid v3 API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	logger    *slog.Logger
}

// NewSendGridSender returns nil when no API key is configured.
func NewSendGridSender(cfg SendGridConfig, logger *slog.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = "Clinic"
	}
	client := sendgrid.NewSendClient(cfg.APIKey)
	if cfg.Host != "" {
		client.BaseURL = strings.TrimRight(cfg.Host, "/") + "/v3/mail/send"
	}
	return &SendGridSender{
		client:    client,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

func (s *SendGridSender) Send(ctx context.Context, to, subject, html string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	message := mail.NewSingleEmail(from, subject, mail.NewEmail("", to), plainText(html), html)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("notify: sendgrid send failed: %w", err)
	}
	if response.StatusCode >= 400 {
		s.logger.ErrorContext(ctx, "sendgrid returned error status", "status", response.StatusCode, "body", response.Body, "to", to)
		return fmt.Errorf("notify: sendgrid returned status %d", response.StatusCode)
	}
	s.logger.DebugContext(ctx, "email sent via sendgrid", "to", to, "subject", subject, "status", response.StatusCode)
	return nil
}

// plainText strips tags for the text/plain alternative.
func plainText(html string) string {
	var b strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

type SentMessage struct {
	To      string
	Subject string
	HTML    string
}

// StubSender logs and records messages instead of sending them.
type StubSender struct {
	logger *slog.Logger

	mu   sync.Mutex
	sent []SentMessage
}

func NewStubSender(logger *slog.Logger) *StubSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &StubSender{logger: logger}
}

func (s *StubSender) Send(ctx context.Context, to, subject, html string) error {
	s.mu.Lock()
	s.sent = append(s.sent, SentMessage{To: to, Subject: subject, HTML: html})
	s.mu.Unlock()
	s.logger.InfoContext(ctx, "stub email sender: would send email", "to", to, "subject", subject)
	return nil
}

func (s *StubSender) Sent() []SentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SentMessage, len(s.sent))
	copy(out, s.sent)
	return out
}
