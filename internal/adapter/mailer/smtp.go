package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"

	"golang.org/x/time/rate"
)

// SMTPMailer implements domain.Mailer over a plain SMTP relay. Outbound
// sends pass through a rate limiter so a burst of notifications cannot
// flood the relay.
type SMTPMailer struct {
	addr    string
	auth    smtp.Auth
	from    string
	limiter *rate.Limiter
	logger  *slog.Logger

	// sendMail is swappable for tests.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer creates a mailer for the given relay. Username may be empty
// for unauthenticated relays. perSecond bounds the outbound send rate.
func NewSMTPMailer(host string, port int, username, password, from string, perSecond float64, logger *slog.Logger) *SMTPMailer {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	return &SMTPMailer{
		addr:     fmt.Sprintf("%s:%d", host, port),
		auth:     auth,
		from:     from,
		limiter:  rate.NewLimiter(rate.Limit(perSecond), 1),
		logger:   logger.With("component", "smtp_mailer"),
		sendMail: smtp.SendMail,
	}
}

// Send delivers one message to one address. Failures are returned to the
// caller, which isolates them per address.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	msg := []byte("From: " + m.from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=\"utf-8\"\r\n" +
		"\r\n" +
		body + "\r\n")

	if err := m.sendMail(m.addr, m.auth, m.from, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	m.logger.Debug("email sent", "to", to, "subject", subject)
	return nil
}
