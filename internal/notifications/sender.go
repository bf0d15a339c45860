package notifications

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"dealflow/internal/config"
	"dealflow/internal/logging"
)

// ErrNotConfigured reports that no email transport has credentials.
var ErrNotConfigured = errors.New("No email service configured")

// Message is one outgoing HTML email.
type Message struct {
	To      string
	From    string
	Subject string
	HTML    string
}

// Sender delivers digest emails.
type Sender interface {
	Send(ctx context.Context, msg Message) error
	// Name identifies the transport in logs and scan results.
	Name() string
}

// NewSender selects the transport the configuration enables. Resend wins
// over SMTP; with neither configured the returned sender fails every Send
// with ErrNotConfigured.
func NewSender(cfg *config.Config, logger *slog.Logger) Sender {
	logger = logging.NewComponentLogger(logger, "notifications")
	if cfg == nil {
		return noopSender{}
	}
	email := cfg.Email
	switch {
	case strings.TrimSpace(email.ResendAPIKey) != "":
		logger.Debug("email transport selected", logging.String("transport", "resend"))
		return NewResend(email.ResendAPIKey, email.ResendBaseURL, logger)
	case email.SMTPServer != "" && email.SMTPUsername != "" && email.SMTPPassword != "":
		logger.Debug("email transport selected", logging.String("transport", "smtp"))
		return NewSMTP(SMTPConfig{
			Server:   email.SMTPServer,
			Port:     email.SMTPPort,
			Username: email.SMTPUsername,
			Password: email.SMTPPassword,
		}, logger)
	default:
		logging.WarnWithContext(logger, "no email transport configured", "email_not_configured",
			logging.String(logging.FieldErrorHint, "set email.resend_api_key or the email.smtp_* settings"),
			logging.String(logging.FieldImpact, "reminder digests will not be delivered"),
		)
		return noopSender{}
	}
}

// Configured reports whether sender can actually deliver mail.
func Configured(sender Sender) bool {
	if sender == nil {
		return false
	}
	_, noop := sender.(noopSender)
	return !noop
}

type noopSender struct{}

func (noopSender) Send(context.Context, Message) error { return ErrNotConfigured }
func (noopSender) Name() string                        { return "none" }
