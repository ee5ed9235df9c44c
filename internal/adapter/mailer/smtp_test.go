package mailer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/smtp"
	"strings"
	"testing"
)

func newTestMailer() (*SMTPMailer, *[]string) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := NewSMTPMailer("mail.corp.test", 587, "notifier", "password", "no-reply@corp.test", 100, logger)

	var sent []string
	m.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		sent = append(sent, strings.Join(to, ",")+"|"+string(msg))
		return nil
	}
	return m, &sent
}

func TestSMTPMailer_Send(t *testing.T) {
	t.Run("Formats Message", func(t *testing.T) {
		m, sent := newTestMailer()

		if err := m.Send(context.Background(), "u1@corp.test", "New Evaluation Assigned", "You have a new form."); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(*sent) != 1 {
			t.Fatalf("expected 1 send, got %d", len(*sent))
		}
		msg := (*sent)[0]
		if !strings.HasPrefix(msg, "u1@corp.test|") {
			t.Errorf("unexpected envelope recipient: %s", msg)
		}
		for _, want := range []string{
			"From: no-reply@corp.test",
			"To: u1@corp.test",
			"Subject: New Evaluation Assigned",
			"You have a new form.",
		} {
			if !strings.Contains(msg, want) {
				t.Errorf("message missing %q:\n%s", want, msg)
			}
		}
	})

	t.Run("Wraps Transport Error", func(t *testing.T) {
		m, _ := newTestMailer()
		sendErr := errors.New("connection refused")
		m.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			return sendErr
		}

		err := m.Send(context.Background(), "u1@corp.test", "s", "b")
		if err == nil {
			t.Fatal("expected an error, got nil")
		}
		if !errors.Is(err, sendErr) {
			t.Errorf("expected wrapped transport error, got %v", err)
		}
	})

	t.Run("Cancelled Context Stops Send", func(t *testing.T) {
		m, sent := newTestMailer()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := m.Send(ctx, "u1@corp.test", "s", "b"); err == nil {
			t.Fatal("expected an error, got nil")
		}
		if len(*sent) != 0 {
			t.Errorf("no message should be sent after cancellation, got %d", len(*sent))
		}
	})
}
