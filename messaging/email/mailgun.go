package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/ncobase/jobqueue/logging/logger"
)

// MailgunConfig holds the configuration for Mailgun
type MailgunConfig struct {
	Key    string `json:"key" yaml:"key"`
	Domain string `json:"domain" yaml:"domain"`
	From   string `json:"from" yaml:"from"`
	// APIBase overrides the API endpoint, e.g. the EU region
	APIBase string `json:"api_base" yaml:"api_base"`
}

// MailgunSender implements Sender for Mailgun
type MailgunSender struct {
	Config *MailgunConfig
}

func (s *MailgunSender) SendTemplateEmail(ctx context.Context, recipientEmail string, template Template) (string, error) {
	mg := mailgun.NewMailgun(s.Config.Domain, s.Config.Key)
	if s.Config.APIBase != "" {
		mg.SetAPIBase(s.Config.APIBase)
	}

	message := mg.NewMessage(s.Config.From, template.Subject, template.Body, recipientEmail)
	if template.Template != "" {
		message.SetTemplate(template.Template)
	}
	for k, v := range template.Variables {
		if err := message.AddVariable(k, v); err != nil {
			return "", fmt.Errorf("mailgun variable %s: %w", k, err)
		}
	}

	_, id, err := mg.Send(ctx, message)
	if err != nil {
		logger.Warn(ctx, "Mailgun send failed", "error", err)
		return "", err
	}

	logger.Debug(ctx, "Email queued by mailgun", "message_id", id)
	return id, nil
}

func validateMailgunConfig(config *MailgunConfig) error {
	if config == nil || config.Key == "" || config.Domain == "" || config.From == "" {
		return errors.New("invalid Mailgun configuration")
	}
	return nil
}
