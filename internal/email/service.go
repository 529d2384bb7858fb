package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

type Service interface {
	SendCustom(ctx context.Context, to string, subject string, content string) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPService delivers mail through a gomail dialer. A new connection is
// opened per message; booking mail volume does not justify pooling.
type SMTPService struct {
	from string
	send func(*gomail.Message) error
}

func NewSMTPService(cfg Config) *SMTPService {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &SMTPService{
		from: cfg.From,
		send: func(m *gomail.Message) error { return dialer.DialAndSend(m) },
	}
}

func (s *SMTPService) SendCustom(ctx context.Context, to string, subject string, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", content)

	if err := s.send(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

// NopService is used when SMTP is disabled.
type NopService struct{}

func (NopService) SendCustom(context.Context, string, string, string) error { return nil }
