// Package serper runs Google searches through serper.dev to find a contact's
// LinkedIn profile and recent public activity.
package serper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"dealflow/internal/logging"
	"dealflow/internal/services/apiclient"
)

const (
	defaultBaseURL     = "https://google.serper.dev"
	defaultHTTPTimeout = 10 * time.Second
	resultsPerQuery    = 5
	maxActivity        = 3

	// NotConfiguredNotice is reported as activity when no API key is set.
	NotConfiguredNotice = "Web search not configured - add SERPER_API_KEY to enable"
)

// Config captures the runtime settings required to talk to Serper.
type Config struct {
	APIKey  string
	BaseURL string
}

// LinkedIn is the profile match for a contact.
type LinkedIn struct {
	ProfileURL      string `json:"profile_url,omitempty"`
	CurrentPosition string `json:"current_position,omitempty"`
	Snippet         string `json:"snippet,omitempty"`
}

// IsEmpty reports whether no profile was found.
func (l LinkedIn) IsEmpty() bool {
	return l.ProfileURL == "" && l.CurrentPosition == ""
}

// Findings is the web research for one contact.
type Findings struct {
	LinkedIn       LinkedIn `json:"linkedin"`
	RecentActivity []string `json:"recent_activity"`
}

// Client wraps the Serper search endpoint.
type Client struct {
	cfg    Config
	api    *apiclient.Client
	logger *slog.Logger
}

// NewClient constructs a Serper client.
func NewClient(cfg Config, logger *slog.Logger, opts ...apiclient.Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	base := []apiclient.Option{
		apiclient.WithTimeout(defaultHTTPTimeout),
		apiclient.WithHeader("X-API-KEY", cfg.APIKey),
	}
	return &Client{
		cfg:    cfg,
		api:    apiclient.New("Serper", cfg.BaseURL, append(base, opts...)...),
		logger: logging.NewComponentLogger(logger, "serper"),
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c != nil && c.cfg.APIKey != ""
}

type organicResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

type searchResponse struct {
	Organic []organicResult `json:"organic"`
}

// search runs a single query and returns the organic results.
func (c *Client) search(ctx context.Context, query string) ([]organicResult, error) {
	var resp searchResponse
	body := map[string]any{"q": query, "num": resultsPerQuery}
	if err := c.api.Do(ctx, http.MethodPost, "/search", nil, body, &resp); err != nil {
		return nil, err
	}
	return resp.Organic, nil
}

// ResearchContact looks up the LinkedIn profile and recent posts for a
// person. Individual query failures are logged and leave that part empty.
func (c *Client) ResearchContact(ctx context.Context, name, company string) Findings {
	findings := Findings{RecentActivity: []string{}}
	if !c.Configured() {
		findings.RecentActivity = append(findings.RecentActivity, NotConfiguredNotice)
		return findings
	}

	profiles, err := c.search(ctx, fmt.Sprintf("%s %s LinkedIn", name, company))
	if err != nil {
		logging.WarnWithContext(c.logger, "linkedin search failed", "web_search_failed",
			logging.String("query_kind", "linkedin"),
			logging.Error(err),
			logging.String(logging.FieldImpact, "brief has no profile information"),
		)
	}
	findings.LinkedIn = linkedInFrom(profiles)

	activity, err := c.search(ctx, fmt.Sprintf("%q %s (post OR article OR news) %s", name, company, yearRange(time.Now())))
	if err != nil {
		logging.WarnWithContext(c.logger, "activity search failed", "web_search_failed",
			logging.String("query_kind", "activity"),
			logging.Error(err),
			logging.String(logging.FieldImpact, "brief has no recent activity"),
		)
	}
	for _, item := range activity {
		if len(findings.RecentActivity) >= maxActivity {
			break
		}
		if item.Title == "" && item.Snippet == "" {
			continue
		}
		findings.RecentActivity = append(findings.RecentActivity, item.Title+": "+item.Snippet)
	}
	return findings
}

func linkedInFrom(results []organicResult) LinkedIn {
	for _, item := range results {
		if !strings.Contains(item.Link, "linkedin.com/in/") {
			continue
		}
		return LinkedIn{
			ProfileURL:      item.Link,
			CurrentPosition: positionFromTitle(item.Title),
			Snippet:         item.Snippet,
		}
	}
	return LinkedIn{}
}

// positionFromTitle reads "Name - Title at Company | LinkedIn" result titles.
func positionFromTitle(title string) string {
	parts := strings.Split(title, " - ")
	if len(parts) > 1 && strings.Contains(title, "|") {
		position, _, _ := strings.Cut(parts[1], "|")
		return strings.TrimSpace(position)
	}
	return strings.TrimSpace(parts[0])
}

// yearRange covers the previous and current year.
func yearRange(now time.Time) string {
	return fmt.Sprintf("%d..%d", now.Year()-1, now.Year())
}
