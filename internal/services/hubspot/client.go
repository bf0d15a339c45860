package hubspot

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dealflow/internal/logging"
	"dealflow/internal/services/apiclient"
)

const (
	defaultBaseURL     = "https://api.hubapi.com"
	defaultAppURL      = "https://app.hubspot.com"
	defaultHTTPTimeout = 30 * time.Second
	searchLimit        = 100
	contactSearchLimit = 10
)

// Config captures the runtime settings required to talk to HubSpot.
type Config struct {
	APIKey         string
	BaseURL        string
	PortalID       string
	TimeoutSeconds int
}

// Client wraps the HubSpot CRM REST API.
type Client struct {
	cfg    Config
	api    *apiclient.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewClient constructs a HubSpot client. Transport options are forwarded to
// the shared API client.
func NewClient(cfg Config, logger *slog.Logger, opts ...apiclient.Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.PortalID = strings.TrimSpace(cfg.PortalID)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	base := []apiclient.Option{
		apiclient.WithTimeout(timeout),
		apiclient.WithBearerToken(cfg.APIKey),
	}
	return &Client{
		cfg:    cfg,
		api:    apiclient.New("HubSpot", cfg.BaseURL, append(base, opts...)...),
		logger: logging.NewComponentLogger(logger, "hubspot"),
		now:    time.Now,
	}
}

// ContactURL returns the app link for a contact record, or "" without a portal.
func (c *Client) ContactURL(contactID string) string {
	return ContactURL(c.cfg.PortalID, contactID)
}

// ContactURL builds the app link for a contact record.
func ContactURL(portalID, contactID string) string {
	if portalID == "" || contactID == "" {
		return ""
	}
	return defaultAppURL + "/contacts/" + portalID + "/contact/" + contactID
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.api.Do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.api.Do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) patch(ctx context.Context, path string, body, out any) error {
	return c.api.Do(ctx, http.MethodPatch, path, nil, body, out)
}
