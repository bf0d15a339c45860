package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// HubSpot contains configuration for the HubSpot CRM API.
type HubSpot struct {
	APIKey            string  `toml:"api_key"`
	PortalID          string  `toml:"portal_id"`
	BaseURL           string  `toml:"base_url"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// Notion contains configuration for the Notion API and its two databases.
type Notion struct {
	APIKey            string  `toml:"api_key"`
	BaseURL           string  `toml:"base_url"`
	InvestorPrefsDB   string  `toml:"investor_prefs_db_id"`
	TodosDB           string  `toml:"todos_db_id"`
	TodosURL          string  `toml:"todos_url"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// LLM contains the Anthropic connection settings.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	NotesModel     string `toml:"notes_model"`
	BriefModel     string `toml:"brief_model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Serper contains configuration for web search during call preparation.
type Serper struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// Email contains digest delivery settings. Resend is preferred when its key
// is set; SMTP is used when server, username and password are all set.
type Email struct {
	To            string `toml:"to"`
	From          string `toml:"from"`
	ResendAPIKey  string `toml:"resend_api_key"`
	ResendBaseURL string `toml:"resend_base_url"`
	SMTPServer    string `toml:"smtp_server"`
	SMTPPort      int    `toml:"smtp_port"`
	SMTPUsername  string `toml:"smtp_username"`
	SMTPPassword  string `toml:"smtp_password"`
}

// Reminders contains the daily scan schedule.
type Reminders struct {
	Enabled bool `toml:"enabled"`
	// RunAt is the UTC wall-clock time of the daily scan, HH:MM.
	RunAt string `toml:"run_at"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for dealflow.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories, API bind address and token
//   - HubSpot: CRM credentials and portal id for deep links
//   - Notion: investor preference and to-do databases
//   - LLM: Anthropic credentials and models
//   - Serper: optional web search for call briefs
//   - Email: digest recipients and transport (Resend or SMTP)
//   - Reminders: daily scan schedule
//   - Logging: log format, level, and retention
type Config struct {
	Paths     Paths     `toml:"paths"`
	HubSpot   HubSpot   `toml:"hubspot"`
	Notion    Notion    `toml:"notion"`
	LLM       LLM       `toml:"llm"`
	Serper    Serper    `toml:"serper"`
	Email     Email     `toml:"email"`
	Reminders Reminders `toml:"reminders"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()
	// Left unset so normalize can tell a file value from SMTP_PORT.
	cfg.Email.SMTPPort = 0

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("dealflow.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// HistoryPath returns the scan history database location.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.DataDir, "history.db")
}

// LockPath returns the daemon lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "dealflow.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// EmailTransport names the delivery path the current settings select:
// "resend", "smtp", or "" when none is configured.
func (c *Config) EmailTransport() string {
	switch {
	case c.Email.ResendAPIKey != "":
		return "resend"
	case c.Email.SMTPServer != "" && c.Email.SMTPUsername != "" && c.Email.SMTPPassword != "":
		return "smtp"
	default:
		return ""
	}
}

// SampleHubSpotKey is the placeholder written by CreateSample.
const SampleHubSpotKey = "your_hubspot_api_key"

// UsesSampleCredentials reports whether the HubSpot key is still the sample
// placeholder.
func (c *Config) UsesSampleCredentials() bool {
	return c.HubSpot.APIKey == SampleHubSpotKey
}

// RequireHubSpot reports a descriptive error when HubSpot credentials are
// missing. Commands that cannot run without the CRM call it up front.
func (c *Config) RequireHubSpot() error {
	if c.HubSpot.APIKey != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return fmt.Errorf("hubspot.api_key is required. Set HUBSPOT_API_KEY, store it with 'dealflow secrets set hubspot_api_key', or edit %s (create with 'dealflow config init')", defaultPath)
}
