// AngelaMos | 2026
// sender.go

package email

import (
	"context"
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"

	"github.com/cit-submit/go-backend/internal/config"
)

type Message struct {
	To      string
	Subject string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender returns the SMTP sender when email delivery is configured, and a
// log-only sender otherwise so local environments never need a mail relay.
func NewSender(cfg config.EmailConfig, logger *slog.Logger) Sender {
	if cfg.Enabled {
		return NewSMTPSender(cfg)
	}
	return &LogSender{logger: logger}
}

type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(
			cfg.SMTPHost,
			cfg.SMTPPort,
			cfg.SMTPUser,
			cfg.SMTPPassword,
		),
		from: cfg.From,
	}
}

func (s *SMTPSender) Send(_ context.Context, msg Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	return nil
}

// LogSender writes outgoing mail to the log instead of delivering it.
type LogSender struct {
	logger *slog.Logger
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("email suppressed (delivery disabled)",
		"to", msg.To,
		"subject", msg.Subject,
	)
	return nil
}
