package mcpserver

import (
	"context"
	"log/slog"
	"slices"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"dealflow/internal/callprep"
	"dealflow/internal/logging"
	"dealflow/internal/reminders"
	"dealflow/internal/services/hubspot"
	"dealflow/internal/services/notion"
	"dealflow/internal/workflow"
)

// ServerName is advertised to MCP clients during initialization.
const ServerName = "dealflow"

// NotesWorkflow is the part of the notes pipeline exposed as tools.
type NotesWorkflow interface {
	ProcessNotes(ctx context.Context, notes string) (workflow.Preview, error)
	SearchContacts(ctx context.Context, query string) ([]hubspot.Contact, error)
	SearchInvestors(ctx context.Context, company string) ([]notion.Investor, error)
	ConfirmAndExecute(ctx context.Context, req workflow.ExecuteRequest) (workflow.ExecuteResult, error)
}

// ReminderRunner runs the daily scan on demand.
type ReminderRunner interface {
	RunDailyScan(ctx context.Context) reminders.Result
}

// CallPreparer builds call briefs.
type CallPreparer interface {
	Prepare(ctx context.Context, req callprep.Request) (callprep.Brief, error)
}

// DealDesk is the HubSpot deal and task surface.
type DealDesk interface {
	ContactDeals(ctx context.Context, contactID string) ([]hubspot.Deal, error)
	GetDeal(ctx context.Context, dealID string) (hubspot.Deal, error)
	SearchDeals(ctx context.Context, name string) ([]hubspot.Deal, error)
	UpdateDeal(ctx context.Context, dealID string, update hubspot.DealUpdate) error
	CreateDeal(ctx context.Context, deal hubspot.NewDeal) (string, error)
	CreateFollowUpTask(ctx context.Context, contactID, subject string, dueInDays int) (string, error)
}

// InvestorReader loads investor records by page id.
type InvestorReader interface {
	GetInvestor(ctx context.Context, pageID string) (notion.Investor, error)
}

// Dependencies back the tools. A nil member leaves its tools unregistered.
type Dependencies struct {
	Notes     NotesWorkflow
	Reminders ReminderRunner
	CallPrep  CallPreparer
	Deals     DealDesk
	Investors InvestorReader
}

// toolEntry pairs a tool definition with a handler factory and the
// dependency it needs.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
	enabled func(Dependencies) bool
}

func needsNotes(d Dependencies) bool     { return d.Notes != nil }
func needsReminders(d Dependencies) bool { return d.Reminders != nil }
func needsCallPrep(d Dependencies) bool  { return d.CallPrep != nil }
func needsDeals(d Dependencies) bool     { return d.Deals != nil }
func needsInvestors(d Dependencies) bool { return d.Investors != nil }

var toolRegistry = map[string]toolEntry{
	"process_notes": {
		def:     processNotesToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleProcessNotes },
		enabled: needsNotes,
	},
	"search_contact": {
		def:     searchContactToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSearchContact },
		enabled: needsNotes,
	},
	"search_investor": {
		def:     searchInvestorToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSearchInvestor },
		enabled: needsNotes,
	},
	"confirm_and_execute": {
		def:     confirmAndExecuteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleConfirmAndExecute },
		enabled: needsNotes,
	},
	"send_reminders": {
		def:     sendRemindersToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSendReminders },
		enabled: needsReminders,
	},
	"prepare_call": {
		def:     prepareCallToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePrepareCall },
		enabled: needsCallPrep,
	},
	"contact_deals": {
		def:     contactDealsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleContactDeals },
		enabled: needsDeals,
	},
	"get_deal": {
		def:     getDealToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGetDeal },
		enabled: needsDeals,
	},
	"search_deals": {
		def:     searchDealsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSearchDeals },
		enabled: needsDeals,
	},
	"update_deal": {
		def:     updateDealToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleUpdateDeal },
		enabled: needsDeals,
	},
	"create_deal": {
		def:     createDealToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCreateDeal },
		enabled: needsDeals,
	},
	"create_follow_up_task": {
		def:     createFollowUpTaskToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCreateFollowUpTask },
		enabled: needsDeals,
	},
	"get_investor": {
		def:     getInvestorToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGetInvestor },
		enabled: needsInvestors,
	},
}

// AllToolNames returns every tool name in sorted order.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// EnabledToolNames returns the tools deps would register, sorted.
func EnabledToolNames(deps Dependencies) []string {
	var names []string
	for _, name := range AllToolNames() {
		if toolRegistry[name].enabled(deps) {
			names = append(names, name)
		}
	}
	return names
}

// NewServer creates an MCP server with the tools deps can serve.
func NewServer(deps Dependencies, version string, logger *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)
	h := NewHandlers(deps, logger)
	for _, name := range EnabledToolNames(deps) {
		entry := toolRegistry[name]
		s.AddTool(entry.def, entry.handler(h))
	}
	h.logger.Debug("mcp tools registered", logging.Int("count", len(EnabledToolNames(deps))))
	return s
}

// Run serves deps over stdio until stdin closes or the process is signalled.
// The logger must not write to stdout.
func Run(deps Dependencies, version string, logger *slog.Logger) error {
	s := NewServer(deps, version, logger)
	if logger == nil {
		logger = logging.NewNop()
	}
	errLog := slog.NewLogLogger(logger.Handler(), slog.LevelError)
	return server.ServeStdio(s, server.WithErrorLogger(errLog))
}
