package email

import "github.com/google/wire"

// ProviderSet is the wire provider set for the email package
var ProviderSet = wire.NewSet(ProvideSender)

// ProvideSender creates the Sender selected by cfg.Provider. It returns nil
// when no provider is configured.
func ProvideSender(cfg *Email) (Sender, error) {
	if cfg == nil {
		return nil, nil
	}

	switch cfg.Provider {
	case ProviderMailgun:
		return NewSender(cfg.Mailgun)
	case ProviderSendGrid:
		return NewSender(cfg.SendGrid)
	case ProviderSMTP:
		return NewSender(cfg.SMTP)
	default:
		return nil, nil
	}
}
