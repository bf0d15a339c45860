package testsupport

import (
	"path/filepath"
	"testing"

	"dealflow/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Vendor credentials are set to placeholders so integrations count as
// configured; base URLs still point at the real services unless overridden.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.HubSpot.APIKey = "test-hubspot"
	cfgVal.HubSpot.PortalID = "999"
	cfgVal.Notion.APIKey = "test-notion"
	cfgVal.Notion.InvestorPrefsDB = "prefs-db"
	cfgVal.Notion.TodosDB = "todos-db"
	cfgVal.LLM.APIKey = "test-llm"
	cfgVal.Email.To = "team@example.com"
	cfgVal.Email.From = "Reminders <reminders@example.com>"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithHubSpotURL points the HubSpot client at a test server.
func WithHubSpotURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.HubSpot.BaseURL = url
	}
}

// WithNotionURL points the Notion client at a test server.
func WithNotionURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notion.BaseURL = url
	}
}

// WithLLMURL points the Anthropic client at a test server.
func WithLLMURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.BaseURL = url
	}
}

// WithResendURL enables the Resend transport against a test server.
func WithResendURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Email.ResendAPIKey = "test-resend"
		b.cfg.Email.ResendBaseURL = url
	}
}

// WithAPIToken enables bearer authentication on the HTTP API.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.APIToken = token
	}
}

// WithoutTodos clears the Notion to-do database.
func WithoutTodos() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notion.TodosDB = ""
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
