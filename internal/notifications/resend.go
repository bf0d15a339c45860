package notifications

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"dealflow/internal/logging"
	"dealflow/internal/services"
	"dealflow/internal/services/apiclient"
)

const (
	defaultResendBaseURL = "https://api.resend.com"
	resendTimeout        = 10 * time.Second
)

// Resend posts messages to the Resend HTTP API.
type Resend struct {
	api    *apiclient.Client
	logger *slog.Logger
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type resendResponse struct {
	ID string `json:"id"`
}

// NewResend builds a Resend sender. baseURL defaults to the public API.
func NewResend(apiKey, baseURL string, logger *slog.Logger, opts ...apiclient.Option) *Resend {
	if baseURL == "" {
		baseURL = defaultResendBaseURL
	}
	base := []apiclient.Option{
		apiclient.WithTimeout(resendTimeout),
		apiclient.WithBearerToken(apiKey),
	}
	return &Resend{
		api:    apiclient.New("Resend", baseURL, append(base, opts...)...),
		logger: logger,
	}
}

// Name implements Sender.
func (r *Resend) Name() string { return "resend" }

// Send implements Sender.
func (r *Resend) Send(ctx context.Context, msg Message) error {
	if msg.To == "" || msg.From == "" {
		return services.Wrap(services.ErrValidation, "resend", "send", "to and from addresses are required", nil)
	}
	payload := resendRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
	}
	var out resendResponse
	if err := r.api.Do(ctx, http.MethodPost, "emails", nil, payload, &out); err != nil {
		return err
	}
	logging.WithContext(ctx, r.logger).Info("email sent",
		logging.String("transport", "resend"),
		logging.String("to", msg.To),
		logging.String("message_id", out.ID),
	)
	return nil
}
