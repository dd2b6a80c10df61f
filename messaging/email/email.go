// Package email sends notification mail through a configured provider.
package email

import (
	"context"
	"errors"
)

// Providers selectable with email.provider
const (
	ProviderMailgun  = "mailgun"
	ProviderSendGrid = "sendgrid"
	ProviderSMTP     = "smtp"
)

// Email holds the configuration for all email providers. An empty Provider
// disables sending.
type Email struct {
	Provider string          `json:"provider" yaml:"provider" validate:"omitempty,oneof=mailgun sendgrid smtp"`
	Mailgun  *MailgunConfig  `json:"mailgun" yaml:"mailgun"`
	SendGrid *SendGridConfig `json:"sendgrid" yaml:"sendgrid"`
	SMTP     *SMTPConfig     `json:"smtp" yaml:"smtp"`
}

// Template is one message. Template names a provider side template; when it
// is empty Body is sent as plain text.
type Template struct {
	Subject   string         `json:"subject"`
	Template  string         `json:"template"`
	Body      string         `json:"body"`
	Variables map[string]any `json:"variables"`
}

// Sender delivers a message and returns the provider's message id
type Sender interface {
	SendTemplateEmail(ctx context.Context, recipientEmail string, template Template) (string, error)
}

// Config is one of the provider configurations
type Config any

// validateEmailConfig validates the common email configuration
func validateEmailConfig(config Config) error {
	switch c := config.(type) {
	case *MailgunConfig:
		return validateMailgunConfig(c)
	case *SendGridConfig:
		return validateSendGridConfig(c)
	case *SMTPConfig:
		return validateSMTPConfig(c)
	default:
		return errors.New("invalid email configuration")
	}
}

// NewSender returns the sender for a provider configuration
func NewSender(config Config) (Sender, error) {
	if err := validateEmailConfig(config); err != nil {
		return nil, err
	}
	switch c := config.(type) {
	case *MailgunConfig:
		return &MailgunSender{Config: c}, nil
	case *SendGridConfig:
		return &SendGridSender{Config: c}, nil
	case *SMTPConfig:
		return &LocalSMTPSender{Config: c}, nil
	default:
		return nil, errors.New("create email sender failed")
	}
}
