package email

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/ncobase/jobqueue/nanoid"
)

// SMTPConfig holds the configuration for a plain SMTP relay
type SMTPConfig struct {
	SMTPHost string `json:"host" yaml:"host"`
	SMTPPort string `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	From     string `json:"from" yaml:"from"`
}

// LocalSMTPSender implements Sender for an SMTP relay. Templates are not
// rendered; the body is sent as is.
type LocalSMTPSender struct {
	Config *SMTPConfig
}

func (s *LocalSMTPSender) SendTemplateEmail(ctx context.Context, recipientEmail string, template Template) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := fmt.Sprintf("<%s@%s>", nanoid.String(21), s.Config.SMTPHost)
	msg := buildMessage(s.Config.From, recipientEmail, id, template)

	var auth smtp.Auth
	if s.Config.Username != "" {
		auth = smtp.PlainAuth("", s.Config.Username, s.Config.Password, s.Config.SMTPHost)
	}
	addr := net.JoinHostPort(s.Config.SMTPHost, s.Config.SMTPPort)
	if err := smtp.SendMail(addr, auth, s.Config.From, []string{recipientEmail}, msg); err != nil {
		return "", fmt.Errorf("smtp send: %w", err)
	}
	return id, nil
}

func buildMessage(from, to, id string, template Template) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", template.Subject)
	fmt.Fprintf(&b, "Message-ID: %s\r\n", id)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(template.Body)
	return []byte(b.String())
}

func validateSMTPConfig(config *SMTPConfig) error {
	if config == nil || config.SMTPHost == "" || config.SMTPPort == "" || config.From == "" {
		return errors.New("invalid SMTP configuration")
	}
	return nil
}
