package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"os"
	"strings"
)

type SMTP struct {
	Host string
	Port string
	User string
	Pass string
}

func NewSMTPFromEnv() *SMTP {
	return &SMTP{
		Host: os.Getenv("SMTP_HOST"),
		Port: envOr("SMTP_PORT", "587"),
		User: os.Getenv("SMTP_USER"),
		Pass: os.Getenv("SMTP_PASS"),
	}
}

func (s *SMTP) Configured() bool { return s.Host != "" }

func (s *SMTP) Send(ctx context.Context, e Email) error {
	_ = ctx // net/smtp has no context support; the dial is bounded by server config

	if len(e.To) == 0 {
		return fmt.Errorf("mailer: no recipients")
	}

	from := e.From
	if e.FromName != "" {
		from = fmt.Sprintf("%s <%s>", e.FromName, e.From)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(e.To, ", "))
	if len(e.Cc) > 0 {
		fmt.Fprintf(&b, "Cc: %s\r\n", strings.Join(e.Cc, ", "))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", e.Subject)
	for k, v := range e.Headers {
		fmt.Fprintf(&b, "%s: %s\r\n", k, v)
	}
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(e.TextBody)

	var auth smtp.Auth
	if s.User != "" {
		auth = smtp.PlainAuth("", s.User, s.Pass, s.Host)
	}
	addr := s.Host + ":" + s.Port
	return smtp.SendMail(addr, auth, e.From, e.AllRecipients(), []byte(b.String()))
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
