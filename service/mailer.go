package service

import (
	"context"
	"fmt"

	mail "github.com/go-mail/mail/v2"
)

// Email is one outbound HTML message.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers email over SMTP with STARTTLS.
type Mailer struct {
	dialer *mail.Dialer
	from   string
}

func NewMailer(host string, port int, user, pass string) *Mailer {
	d := mail.NewDialer(host, port, user, pass)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	return &Mailer{dialer: d, from: user}
}

// Configured reports whether SMTP credentials were provided.
func (m *Mailer) Configured() bool {
	return m != nil && m.from != ""
}

// Inbox is the store's own address, the destination of contact messages.
func (m *Mailer) Inbox() string {
	return m.from
}

func (m *Mailer) message(e Email) *mail.Message {
	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", e.To)
	msg.SetHeader("Subject", e.Subject)
	msg.SetBody("text/html", e.HTML)
	return msg
}

// Send dials the SMTP server and delivers e. The context bounds the wait for
// the dial; an in-progress SMTP exchange is not interrupted.
func (m *Mailer) Send(ctx context.Context, e Email) error {
	if !m.Configured() {
		return fmt.Errorf("mailer: USER_EMAIL is not configured")
	}
	errc := make(chan error, 1)
	go func() { errc <- m.dialer.DialAndSend(m.message(e)) }()
	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("send %q to %s: %w", e.Subject, e.To, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
