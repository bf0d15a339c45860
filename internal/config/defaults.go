package config

const (
	defaultConfigPath       = "~/.config/dealflow/config.toml"
	defaultDataDir          = "~/.local/share/dealflow"
	defaultLogDir           = "~/.local/share/dealflow/logs"
	defaultLogRetentionDays = 30
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultAPIBind          = "127.0.0.1:5050"
	defaultHubSpotBaseURL   = "https://api.hubapi.com"
	defaultNotionBaseURL    = "https://api.notion.com/v1"
	defaultLLMBaseURL       = "https://api.anthropic.com/v1/messages"
	defaultNotesModel       = "claude-sonnet-4-5-20250929"
	defaultBriefModel       = "claude-sonnet-4-20250514"
	defaultSerperBaseURL    = "https://google.serper.dev"
	defaultResendBaseURL    = "https://api.resend.com"
	defaultSMTPPort         = 587
	defaultRunAt            = "08:00"
	defaultTimeoutSeconds   = 30
	defaultLLMTimeout       = 60
	// HubSpot allows 10 requests per second on private apps; Notion averages 3.
	defaultHubSpotRate = 9
	defaultNotionRate  = 3
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		HubSpot: HubSpot{
			BaseURL:           defaultHubSpotBaseURL,
			TimeoutSeconds:    defaultTimeoutSeconds,
			RequestsPerSecond: defaultHubSpotRate,
		},
		Notion: Notion{
			BaseURL:           defaultNotionBaseURL,
			TimeoutSeconds:    defaultTimeoutSeconds,
			RequestsPerSecond: defaultNotionRate,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			NotesModel:     defaultNotesModel,
			BriefModel:     defaultBriefModel,
			TimeoutSeconds: defaultLLMTimeout,
		},
		Serper: Serper{
			BaseURL: defaultSerperBaseURL,
		},
		Email: Email{
			ResendBaseURL: defaultResendBaseURL,
			SMTPPort:      defaultSMTPPort,
		},
		Reminders: Reminders{
			Enabled: true,
			RunAt:   defaultRunAt,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
