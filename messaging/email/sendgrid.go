package email

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ncobase/jobqueue/logging/logger"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridConfig holds the configuration for SendGrid
type SendGridConfig struct {
	Key      string `json:"key" yaml:"key"`
	From     string `json:"from" yaml:"from"`
	FromName string `json:"from_name" yaml:"from_name"`
	// Endpoint overrides the mail send URL
	Endpoint string `json:"endpoint" yaml:"endpoint"`
}

// SendGridSender implements Sender for SendGrid
type SendGridSender struct {
	Config *SendGridConfig
}

func (s *SendGridSender) SendTemplateEmail(ctx context.Context, recipientEmail string, template Template) (string, error) {
	from := mail.NewEmail(s.Config.FromName, s.Config.From)
	to := mail.NewEmail("", recipientEmail)

	var message *mail.SGMailV3
	if template.Template != "" {
		message = mail.NewV3Mail()
		message.SetFrom(from)
		message.SetTemplateID(template.Template)
		p := mail.NewPersonalization()
		p.AddTos(to)
		p.Subject = template.Subject
		for k, v := range template.Variables {
			p.SetDynamicTemplateData(k, v)
		}
		message.AddPersonalizations(p)
	} else {
		message = mail.NewSingleEmailPlainText(from, template.Subject, to, template.Body)
	}

	client := sendgrid.NewSendClient(s.Config.Key)
	if s.Config.Endpoint != "" {
		client.Request.BaseURL = s.Config.Endpoint
	}

	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		logger.Warn(ctx, "SendGrid send failed", "error", err)
		return "", err
	}
	if response.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("failed to send email, status code: %d", response.StatusCode)
	}

	id := http.Header(response.Headers).Get("X-Message-Id")
	logger.Debug(ctx, "Email accepted by sendgrid", "message_id", id)
	return id, nil
}

func validateSendGridConfig(config *SendGridConfig) error {
	if config == nil || config.Key == "" || config.From == "" {
		return errors.New("invalid SendGrid configuration")
	}
	return nil
}
