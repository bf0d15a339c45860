package daemonrun

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"dealflow/internal/api"
	"dealflow/internal/callprep"
	"dealflow/internal/config"
	"dealflow/internal/history"
	"dealflow/internal/mcpserver"
	"dealflow/internal/notifications"
	"dealflow/internal/preferences"
	"dealflow/internal/reminders"
	"dealflow/internal/services"
	"dealflow/internal/services/apiclient"
	"dealflow/internal/services/hubspot"
	"dealflow/internal/services/llm"
	"dealflow/internal/services/notion"
	"dealflow/internal/services/serper"
	"dealflow/internal/workflow"
)

// Components holds every collaborator built from one configuration. Vendor
// clients are nil when their credentials are absent.
type Components struct {
	Config *config.Config
	Logger *slog.Logger

	HubSpot *hubspot.Client
	Notion  *notion.Client
	LLM     *llm.Client
	Serper  *serper.Client
	Sender  notifications.Sender
	History *history.Store

	Scanner  *reminders.Scanner
	Workflow *workflow.Service
	CallPrep *callprep.Preparer
}

// BuildOptions selects optional parts of the graph.
type BuildOptions struct {
	// History opens the scan history database and records every scan.
	History bool
}

// Build constructs the clients and services the configuration enables.
func Build(cfg *config.Config, logger *slog.Logger, opts BuildOptions) (*Components, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	c := &Components{Config: cfg, Logger: logger}
	merger := preferences.NewMerger(nil, logger)

	if strings.TrimSpace(cfg.HubSpot.APIKey) != "" {
		limiter := services.NewHostLimiter(cfg.HubSpot.RequestsPerSecond, 1)
		c.HubSpot = hubspot.NewClient(hubspot.Config{
			APIKey:         cfg.HubSpot.APIKey,
			BaseURL:        cfg.HubSpot.BaseURL,
			PortalID:       cfg.HubSpot.PortalID,
			TimeoutSeconds: cfg.HubSpot.TimeoutSeconds,
		}, logger, apiclient.WithLimiter(limiter))
	}
	if strings.TrimSpace(cfg.Notion.APIKey) != "" {
		limiter := services.NewHostLimiter(cfg.Notion.RequestsPerSecond, 1)
		c.Notion = notion.NewClient(notion.Config{
			APIKey:         cfg.Notion.APIKey,
			BaseURL:        cfg.Notion.BaseURL,
			InvestorDBID:   cfg.Notion.InvestorPrefsDB,
			TodosDBID:      cfg.Notion.TodosDB,
			HubSpotPortal:  cfg.HubSpot.PortalID,
			TimeoutSeconds: cfg.Notion.TimeoutSeconds,
		}, merger, logger, apiclient.WithLimiter(limiter))
	}
	if strings.TrimSpace(cfg.LLM.APIKey) != "" {
		c.LLM = llm.NewClient(llm.Config{
			APIKey:         cfg.LLM.APIKey,
			BaseURL:        cfg.LLM.BaseURL,
			Model:          cfg.LLM.NotesModel,
			TimeoutSeconds: cfg.LLM.TimeoutSeconds,
		}, llm.WithLogger(logger))
	}
	if strings.TrimSpace(cfg.Serper.APIKey) != "" {
		c.Serper = serper.NewClient(serper.Config{
			APIKey:  cfg.Serper.APIKey,
			BaseURL: cfg.Serper.BaseURL,
		}, logger)
	}
	c.Sender = notifications.NewSender(cfg, logger)

	if opts.History {
		store, err := history.Open(cfg)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		c.History = store
	}

	c.Scanner = c.newScanner()
	c.Workflow = c.newWorkflow(merger)
	if c.HubSpot != nil {
		var web callprep.WebSearcher
		if c.Serper != nil {
			web = c.Serper
		}
		var model callprep.Synthesizer
		if c.LLM != nil {
			model = c.LLM
		}
		c.CallPrep = callprep.NewPreparer(c.HubSpot, web, model, callprep.Options{Model: cfg.LLM.BriefModel}, logger)
	}
	return c, nil
}

func (c *Components) newScanner() *reminders.Scanner {
	deps := reminders.Dependencies{Sender: c.Sender}
	if c.HubSpot != nil {
		deps.Deals = c.HubSpot
		deps.Tasks = c.HubSpot
		deps.Enricher = c.HubSpot
	}
	if c.Notion != nil {
		deps.Todos = c.Notion
	}
	if c.History != nil {
		deps.Recorder = c.History
	}
	cfg := c.Config
	return reminders.NewScanner(deps, reminders.Options{
		To:   cfg.Email.To,
		From: cfg.Email.From,
		Links: reminders.Links{
			PortalID:  cfg.HubSpot.PortalID,
			TodosURL:  cfg.Notion.TodosURL,
			TodosDBID: cfg.Notion.TodosDB,
		},
	}, c.Logger)
}

func (c *Components) newWorkflow(merger *preferences.Merger) *workflow.Service {
	deps := workflow.Dependencies{Merger: merger}
	if c.LLM != nil {
		deps.Extractor = c.LLM
	}
	if c.HubSpot != nil {
		deps.CRM = c.HubSpot
	}
	if c.Notion != nil {
		deps.KnowledgeBase = c.Notion
	}
	return workflow.NewService(deps, c.Logger)
}

// APIDependencies maps the components onto the HTTP routes.
func (c *Components) APIDependencies() api.Dependencies {
	deps := api.Dependencies{Notes: c.Workflow, Reminders: c.Scanner}
	if c.CallPrep != nil {
		deps.CallPrep = c.CallPrep
	}
	return deps
}

// MCPDependencies maps the components onto the MCP tools.
func (c *Components) MCPDependencies() mcpserver.Dependencies {
	deps := mcpserver.Dependencies{Notes: c.Workflow, Reminders: c.Scanner}
	if c.CallPrep != nil {
		deps.CallPrep = c.CallPrep
	}
	if c.HubSpot != nil {
		deps.Deals = c.HubSpot
	}
	if c.Notion != nil {
		deps.Investors = c.Notion
	}
	return deps
}

// Close releases the history database.
func (c *Components) Close() error {
	if c == nil || c.History == nil {
		return nil
	}
	return c.History.Close()
}
