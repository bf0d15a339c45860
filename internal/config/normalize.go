package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeHubSpot()
	c.normalizeNotion()
	c.normalizeLLM()
	c.normalizeSerper()
	if err := c.normalizeEmail(); err != nil {
		return err
	}
	c.normalizeReminders()
	c.normalizeLogging()
	return nil
}

// envFallback fills *target from the named variable when the file left it blank.
func envFallback(target *string, name string) {
	if strings.TrimSpace(*target) != "" {
		*target = strings.TrimSpace(*target)
		return
	}
	if value, ok := os.LookupEnv(name); ok {
		*target = strings.TrimSpace(value)
	}
}

func defaultString(target *string, fallback string) {
	*target = strings.TrimSpace(*target)
	if *target == "" {
		*target = fallback
	}
}

func (c *Config) normalizePaths() error {
	var err error
	defaultString(&c.Paths.DataDir, defaultDataDir)
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	defaultString(&c.Paths.LogDir, defaultLogDir)
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	defaultString(&c.Paths.APIBind, defaultAPIBind)
	envFallback(&c.Paths.APIToken, "DEALFLOW_API_TOKEN")
	return nil
}

func (c *Config) normalizeHubSpot() {
	envFallback(&c.HubSpot.APIKey, "HUBSPOT_API_KEY")
	envFallback(&c.HubSpot.PortalID, "HUBSPOT_PORTAL_ID")
	defaultString(&c.HubSpot.BaseURL, defaultHubSpotBaseURL)
	c.HubSpot.BaseURL = strings.TrimRight(c.HubSpot.BaseURL, "/")
	if c.HubSpot.TimeoutSeconds == 0 {
		c.HubSpot.TimeoutSeconds = defaultTimeoutSeconds
	}
}

func (c *Config) normalizeNotion() {
	envFallback(&c.Notion.APIKey, "NOTION_API_KEY")
	envFallback(&c.Notion.InvestorPrefsDB, "NOTION_INVESTOR_PREFS_DB_ID")
	envFallback(&c.Notion.TodosDB, "NOTION_TODOS_DB_ID")
	defaultString(&c.Notion.BaseURL, defaultNotionBaseURL)
	c.Notion.BaseURL = strings.TrimRight(c.Notion.BaseURL, "/")
	c.Notion.TodosURL = strings.TrimSpace(c.Notion.TodosURL)
	if c.Notion.TimeoutSeconds == 0 {
		c.Notion.TimeoutSeconds = defaultTimeoutSeconds
	}
}

func (c *Config) normalizeLLM() {
	envFallback(&c.LLM.APIKey, "ANTHROPIC_API_KEY")
	defaultString(&c.LLM.BaseURL, defaultLLMBaseURL)
	defaultString(&c.LLM.NotesModel, defaultNotesModel)
	defaultString(&c.LLM.BriefModel, defaultBriefModel)
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeout
	}
}

func (c *Config) normalizeSerper() {
	envFallback(&c.Serper.APIKey, "SERPER_API_KEY")
	defaultString(&c.Serper.BaseURL, defaultSerperBaseURL)
	c.Serper.BaseURL = strings.TrimRight(c.Serper.BaseURL, "/")
}

func (c *Config) normalizeEmail() error {
	envFallback(&c.Email.To, "REMINDER_EMAIL_TO")
	envFallback(&c.Email.From, "REMINDER_EMAIL_FROM")
	envFallback(&c.Email.ResendAPIKey, "RESEND_API_KEY")
	envFallback(&c.Email.SMTPServer, "SMTP_SERVER")
	envFallback(&c.Email.SMTPUsername, "SMTP_USERNAME")
	// Passwords keep surrounding whitespace.
	if c.Email.SMTPPassword == "" {
		if value, ok := os.LookupEnv("SMTP_PASSWORD"); ok {
			c.Email.SMTPPassword = value
		}
	}
	defaultString(&c.Email.ResendBaseURL, defaultResendBaseURL)
	if c.Email.SMTPPort == 0 {
		if value, ok := os.LookupEnv("SMTP_PORT"); ok && strings.TrimSpace(value) != "" {
			port, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return fmt.Errorf("SMTP_PORT: %w", err)
			}
			c.Email.SMTPPort = port
		} else {
			c.Email.SMTPPort = defaultSMTPPort
		}
	}
	return nil
}

func (c *Config) normalizeReminders() {
	defaultString(&c.Reminders.RunAt, defaultRunAt)
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
		c.Logging.Format = "json"
	default:
		c.Logging.Format = format
	}
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
	if c.Logging.RetentionDays == 0 {
		c.Logging.RetentionDays = defaultLogRetentionDays
	}
}

// FillSecrets sets blank credentials from lookup, keyed by the names
// 'dealflow secrets set' accepts. Keyring values never override file or
// environment values.
func (c *Config) FillSecrets(lookup func(name string) (string, bool)) {
	if lookup == nil {
		return
	}
	for name, target := range c.secretTargets() {
		if *target != "" {
			continue
		}
		if value, ok := lookup(name); ok {
			*target = value
		}
	}
}

// SecretNames lists the credential names the keyring may hold.
func SecretNames() []string {
	return []string{
		"anthropic_api_key",
		"dealflow_api_token",
		"hubspot_api_key",
		"notion_api_key",
		"resend_api_key",
		"serper_api_key",
		"smtp_password",
	}
}

func (c *Config) secretTargets() map[string]*string {
	return map[string]*string{
		"anthropic_api_key":  &c.LLM.APIKey,
		"dealflow_api_token": &c.Paths.APIToken,
		"hubspot_api_key":    &c.HubSpot.APIKey,
		"notion_api_key":     &c.Notion.APIKey,
		"resend_api_key":     &c.Email.ResendAPIKey,
		"serper_api_key":     &c.Serper.APIKey,
		"smtp_password":      &c.Email.SMTPPassword,
	}
}

// redactedMarker replaces secret values in Redacted output.
const redactedMarker = "********"

// Redacted returns a copy with every set credential masked.
func (c Config) Redacted() Config {
	out := c
	for _, target := range out.secretTargets() {
		if *target != "" {
			*target = redactedMarker
		}
	}
	return out
}
