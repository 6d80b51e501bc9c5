package config

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	mail "github.com/go-mail/mail/v2"
)

// ErrMailerNotConfigured is returned when SMTP_HOST or SMTP_FROM is missing.
var ErrMailerNotConfigured = errors.New("smtp not configured (SMTP_HOST/SMTP_FROM)")

// Mailer sends HTML mail over SMTP.
type Mailer struct {
	cfg SMTPSettings
}

func NewMailer(cfg SMTPSettings) *Mailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &Mailer{cfg: cfg}
}

// Configured reports whether enough settings exist to attempt delivery.
func (m *Mailer) Configured() bool {
	return m != nil && m.cfg.Host != "" && m.cfg.From != ""
}

// Send delivers one HTML message. The dial honours the context deadline.
func (m *Mailer) Send(ctx context.Context, to, subject, html string) error {
	if to == "" {
		return nil
	}
	if !m.Configured() {
		return ErrMailerNotConfigured
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)

	d := mail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.User, m.cfg.Pass)

	// STARTTLS is mandatory on 587 (Gmail/Office365)
	d.StartTLSPolicy = mail.MandatoryStartTLS

	// ServerName must match the SMTP hostname, e.g. "smtp.gmail.com"
	d.TLSConfig = &tls.Config{
		ServerName:         m.cfg.Host,
		InsecureSkipVerify: m.cfg.SkipTLSVerify,
	}
	if deadline, ok := ctx.Deadline(); ok {
		d.Timeout = time.Until(deadline)
	}

	done := make(chan error, 1)
	go func() { done <- d.DialAndSend(msg) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send to %s: %w", to, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
