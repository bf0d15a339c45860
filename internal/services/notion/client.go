// Package notion talks to the Notion API for the investor preference and
// to-do databases.
package notion

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"dealflow/internal/logging"
	"dealflow/internal/preferences"
	"dealflow/internal/services"
	"dealflow/internal/services/apiclient"
)

const (
	defaultBaseURL = "https://api.notion.com/v1"
	// dataSourceVersion is required for the data_sources query endpoint.
	dataSourceVersion = "2025-09-03"
	// databaseVersion is the last version serving the databases query endpoint.
	databaseVersion    = "2022-06-28"
	defaultHTTPTimeout = 30 * time.Second
)

// Config captures the runtime settings required to talk to Notion.
type Config struct {
	APIKey         string
	BaseURL        string
	InvestorDBID   string
	TodosDBID      string
	HubSpotPortal  string
	TimeoutSeconds int
}

// Client wraps the Notion REST API.
type Client struct {
	cfg    Config
	pages  *apiclient.Client
	legacy *apiclient.Client
	merger *preferences.Merger
	logger *slog.Logger
}

// NewClient constructs a Notion client. A nil merger selects the embedded
// preference vocabulary.
func NewClient(cfg Config, merger *preferences.Merger, logger *slog.Logger, opts ...apiclient.Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	build := func(version string) *apiclient.Client {
		base := []apiclient.Option{
			apiclient.WithTimeout(timeout),
			apiclient.WithBearerToken(cfg.APIKey),
			apiclient.WithHeader("Notion-Version", version),
		}
		return apiclient.New("Notion", cfg.BaseURL, append(base, opts...)...)
	}
	if merger == nil {
		merger = preferences.NewMerger(nil, logger)
	}
	return &Client{
		cfg:    cfg,
		pages:  build(dataSourceVersion),
		legacy: build(databaseVersion),
		merger: merger,
		logger: logging.NewComponentLogger(logger, "notion"),
	}
}

// TodosConfigured reports whether the to-do database is reachable.
func (c *Client) TodosConfigured() bool {
	return c.cfg.APIKey != "" && c.cfg.TodosDBID != ""
}

func (c *Client) requireInvestorDB(operation string) error {
	if c.cfg.InvestorDBID == "" {
		return services.Wrap(services.ErrConfiguration, "notion", operation, "investor database id not configured", nil)
	}
	return nil
}

func (c *Client) requireTodosDB(operation string) error {
	if c.cfg.TodosDBID == "" {
		return services.Wrap(services.ErrConfiguration, "notion", operation, "to-do database id not configured", nil)
	}
	return nil
}

// FormatDatabaseID renders a 32 character id in the dashed 8-4-4-4-12 form.
// Other inputs are returned unchanged.
func FormatDatabaseID(id string) string {
	clean := strings.ReplaceAll(strings.TrimSpace(id), "-", "")
	if len(clean) != 32 {
		return strings.TrimSpace(id)
	}
	return clean[:8] + "-" + clean[8:12] + "-" + clean[12:16] + "-" + clean[16:20] + "-" + clean[20:]
}

func (c *Client) doPages(ctx context.Context, method, path string, body, out any) error {
	return c.pages.Do(ctx, method, path, nil, body, out)
}

func (c *Client) queryDatabase(ctx context.Context, databaseID string, filter any) ([]page, error) {
	var resp queryResponse
	path := "/databases/" + FormatDatabaseID(databaseID) + "/query"
	if err := c.legacy.Do(ctx, http.MethodPost, path, nil, map[string]any{"filter": filter}, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}
