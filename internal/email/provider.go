package email

import (
	"fmt"
	"log"
	"strings"

	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/config"
)

// NewSender picks the mail provider. Mailgun without a domain or key falls
// back to logging.
func NewSender(cfg config.MailConfig, logger *log.Logger) (Sender, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "mailgun":
		if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" {
			logger.Printf("[Email] MAILGUN_DOMAIN or MAILGUN_API_KEY unset; logging mail instead")
			return LogSender{Logger: logger}, nil
		}
		return NewMailgunSender(cfg.MailgunBaseURL, cfg.MailgunPath, cfg.MailgunDomain, cfg.MailgunAPIKey), nil
	case "smtp":
		return NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom), nil
	case "log":
		return LogSender{Logger: logger}, nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}
