package workflow

import (
	"context"
	"strings"

	"dealflow/internal/logging"
	"dealflow/internal/preferences"
	"dealflow/internal/services"
	"dealflow/internal/services/hubspot"
	"dealflow/internal/services/llm"
)

// ContactStatus records how the notes' contact was matched in the CRM.
type ContactStatus string

const (
	FoundByEmail      ContactStatus = "found_by_email"
	FoundByPersonName ContactStatus = "found_by_person_name"
	PersonNotFound    ContactStatus = "person_not_found"
	FoundByCompany    ContactStatus = "found_by_company"
	NotFound          ContactStatus = "not_found"
)

// Preview is the extracted data shown for confirmation before any write.
type Preview struct {
	RawNotes             string             `json:"raw_notes"`
	ParsedContact        llm.ParsedContact  `json:"parsed_contact"`
	Deal                 llm.ParsedDeal     `json:"deal"`
	HubSpotContacts      []hubspot.Contact  `json:"hubspot_contacts"`
	ContactStatus        ContactStatus      `json:"contact_status"`
	Summary              []string           `json:"summary"`
	Preferences          preferences.Record `json:"preferences"`
	Todos                []llm.ParsedTodo   `json:"todos"`
	NeedsContactCreation bool               `json:"needs_contact_creation"`
	HasMultipleContacts  bool               `json:"has_multiple_contacts"`
}

// ProcessNotes extracts structured data from notes and looks the contact up
// in the CRM. Nothing is written.
func (s *Service) ProcessNotes(ctx context.Context, notes string) (Preview, error) {
	ctx = services.WithOperation(ctx, "process_notes")
	logger := logging.WithContext(ctx, s.logger)

	notes = strings.TrimSpace(notes)
	if notes == "" {
		return Preview{}, services.Invalid("Notes cannot be empty")
	}
	if s.extractor == nil {
		return Preview{}, services.Wrap(services.ErrConfiguration, "workflow", "process notes", "notes extractor not configured", nil)
	}
	logger.Info("processing notes", logging.Int("length", len(notes)))

	parsed, err := s.extractor.ParseNotes(ctx, notes, llm.ParseOptions{Preferences: true, Todos: true}, s.merger)
	if err != nil {
		return Preview{}, services.Wrap(services.ErrExternalTool, "workflow", "process notes", "Failed to parse notes", err)
	}
	logger.Info("notes parsed",
		logging.String("company", parsed.Contact.CompanyName),
		logging.Int("summary_bullets", len(parsed.Summary)),
		logging.Int("todo_count", len(parsed.Todos)),
	)

	contacts, status := s.findContact(ctx, parsed.Contact)
	if contacts == nil {
		contacts = []hubspot.Contact{}
	}
	return Preview{
		RawNotes:             notes,
		ParsedContact:        parsed.Contact,
		Deal:                 parsed.Deal,
		HubSpotContacts:      contacts,
		ContactStatus:        status,
		Summary:              parsed.Summary,
		Preferences:          parsed.Preferences,
		Todos:                parsed.Todos,
		NeedsContactCreation: status == NotFound,
		HasMultipleContacts:  len(contacts) > 1,
	}, nil
}

// findContact tries email, then person name, then company. A named person
// that is not found never falls back to a company match.
func (s *Service) findContact(ctx context.Context, parsed llm.ParsedContact) ([]hubspot.Contact, ContactStatus) {
	if s.crm == nil {
		return nil, NotFound
	}
	email := strings.TrimSpace(parsed.Email)
	person := strings.TrimSpace(parsed.PersonName)
	company := strings.TrimSpace(parsed.CompanyName)

	if email != "" {
		if found := s.searchQuietly(ctx, email); len(found) > 0 {
			return found, FoundByEmail
		}
	}
	if person != "" {
		if found := s.searchQuietly(ctx, person); len(found) > 0 {
			return found, FoundByPersonName
		}
		s.logger.Info("named person not in crm; contact creation needed", logging.String("person", person))
		return nil, PersonNotFound
	}
	if company != "" {
		if found := s.searchQuietly(ctx, company); len(found) > 0 {
			return found, FoundByCompany
		}
	}
	return nil, NotFound
}

// searchQuietly treats a failed search as no match.
func (s *Service) searchQuietly(ctx context.Context, query string) []hubspot.Contact {
	found, err := s.crm.SearchContacts(ctx, query)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "contact search failed", "contact_search_failed",
			logging.String("query", query),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check hubspot.api_key"),
			logging.String(logging.FieldImpact, "contact treated as not found"),
		)
		return nil
	}
	return found
}
