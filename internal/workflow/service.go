package workflow

import (
	"context"
	"log/slog"

	"dealflow/internal/logging"
	"dealflow/internal/preferences"
	"dealflow/internal/services/hubspot"
	"dealflow/internal/services/llm"
	"dealflow/internal/services/notion"
)

// Extractor turns free-text notes into structured fields.
type Extractor interface {
	ParseNotes(ctx context.Context, notes string, opts llm.ParseOptions, merger *preferences.Merger) (llm.ParsedNotes, error)
}

// CRM is the contact and timeline store.
type CRM interface {
	SearchContacts(ctx context.Context, query string) ([]hubspot.Contact, error)
	CreateContact(ctx context.Context, contact hubspot.NewContact) (string, error)
	CreateNote(ctx context.Context, input hubspot.NoteInput) (string, error)
	ContactURL(contactID string) string
}

// KnowledgeBase stores investor preference pages and to-dos.
type KnowledgeBase interface {
	SearchInvestors(ctx context.Context, name string) ([]notion.Investor, error)
	UpdateInvestor(ctx context.Context, pageID string, update notion.InvestorUpdate) (preferences.Record, error)
	CreateInvestor(ctx context.Context, name string, update notion.InvestorUpdate) (string, error)
	CreateTodo(ctx context.Context, input notion.TodoInput) (string, error)
}

// Dependencies wires the service's collaborators.
type Dependencies struct {
	Extractor     Extractor
	CRM           CRM
	KnowledgeBase KnowledgeBase
	Merger        *preferences.Merger
}

// Service runs the notes workflow.
type Service struct {
	extractor Extractor
	crm       CRM
	kb        KnowledgeBase
	merger    *preferences.Merger
	logger    *slog.Logger
}

// NewService builds a workflow service. A nil merger selects the embedded
// vocabulary.
func NewService(deps Dependencies, logger *slog.Logger) *Service {
	merger := deps.Merger
	if merger == nil {
		merger = preferences.NewMerger(nil, logger)
	}
	return &Service{
		extractor: deps.Extractor,
		crm:       deps.CRM,
		kb:        deps.KnowledgeBase,
		merger:    merger,
		logger:    logging.NewComponentLogger(logger, "workflow"),
	}
}
