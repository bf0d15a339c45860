package config

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// Validate ensures the configuration is usable.
//
// Vendor credentials are not required here; commands that need a service
// check for it when they build the client, so 'dealflow config validate'
// works on a partially filled file.
func (c *Config) Validate() error {
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	if err := c.validateRates(); err != nil {
		return err
	}
	if err := c.validateEmail(); err != nil {
		return err
	}
	if err := c.validateReminders(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	return ensurePositiveMap(map[string]int{
		"hubspot.timeout_seconds": c.HubSpot.TimeoutSeconds,
		"notion.timeout_seconds":  c.Notion.TimeoutSeconds,
		"llm.timeout_seconds":     c.LLM.TimeoutSeconds,
	})
}

func (c *Config) validateRates() error {
	if c.HubSpot.RequestsPerSecond < 0 {
		return errors.New("hubspot.requests_per_second must be >= 0")
	}
	if c.Notion.RequestsPerSecond < 0 {
		return errors.New("notion.requests_per_second must be >= 0")
	}
	return nil
}

func (c *Config) validateEmail() error {
	if c.Email.SMTPPort <= 0 || c.Email.SMTPPort > 65535 {
		return errors.New("email.smtp_port must be between 1 and 65535")
	}
	for key, value := range map[string]string{
		"email.to":   c.Email.To,
		"email.from": c.Email.From,
	} {
		if value == "" {
			continue
		}
		if _, err := mail.ParseAddress(value); err != nil {
			return fmt.Errorf("%s is not a valid address: %w", key, err)
		}
	}
	return nil
}

func (c *Config) validateReminders() error {
	if _, err := time.Parse("15:04", c.Reminders.RunAt); err != nil {
		return fmt.Errorf("reminders.run_at must be HH:MM (got %q)", c.Reminders.RunAt)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	return nil
}

// RunAtClock returns the configured scan hour and minute.
func (c *Config) RunAtClock() (int, int) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(c.Reminders.RunAt))
	if err != nil {
		return 8, 0
	}
	return parsed.Hour(), parsed.Minute()
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
