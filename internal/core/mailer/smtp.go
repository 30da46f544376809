package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/markdave123-py/dreammend/internal/config"
	"github.com/markdave123-py/dreammend/internal/core"
)

var ErrNotConfigured = errors.New("email config missing")

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	from   string
	dialer dialer
	logger *slog.Logger
}

var _ core.Mailer = (*SMTPMailer)(nil)

func NewSMTPMailer(cfg *config.Config, logger *slog.Logger) *SMTPMailer {
	m := &SMTPMailer{from: cfg.EmailFrom, logger: logger}
	if cfg.SMTPHost != "" {
		m.dialer = gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	}
	return m
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	if m.dialer == nil || m.from == "" {
		return ErrNotConfigured
	}
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("empty recipient")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", textBody)
	if htmlBody != "" {
		msg.AddAlternative("text/html", htmlBody)
	}

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	m.logger.Info("email sent", slog.String("to", to), slog.String("subject", subject))
	return nil
}

// CodeEmail renders the message carrying a 6-digit code.
func CodeEmail(heading, code, purpose string) (subject, htmlBody, textBody string) {
	subject = "[DreamMend] " + heading
	htmlBody = fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 520px; margin: 0 auto; padding: 16px;">
    <h2>%s</h2>
    <p>%s</p>
    <div style="font-size: 28px; font-weight: bold; letter-spacing: 3px;">%s</div>
    <p>The code is valid for 1 hour.</p>
  </div>
</body>
</html>`, heading, purpose, code)
	textBody = fmt.Sprintf("%s\n\n%s\n\n%s\n\nThe code is valid for 1 hour.\n", heading, purpose, code)
	return subject, htmlBody, textBody
}
