package workflow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"dealflow/internal/logging"
	"dealflow/internal/preferences"
	"dealflow/internal/services"
	"dealflow/internal/services/hubspot"
	"dealflow/internal/services/llm"
	"dealflow/internal/services/notion"
	"dealflow/internal/workflow"
)

type stubExtractor struct {
	parsed llm.ParsedNotes
	err    error
	calls  int
}

func (s *stubExtractor) ParseNotes(context.Context, string, llm.ParseOptions, *preferences.Merger) (llm.ParsedNotes, error) {
	s.calls++
	return s.parsed, s.err
}

type stubCRM struct {
	contacts  map[string][]hubspot.Contact
	searchErr error
	queries   []string

	createID  string
	createErr error

	notes   []hubspot.NoteInput
	noteErr error
	portal  string
}

func (s *stubCRM) SearchContacts(_ context.Context, query string) ([]hubspot.Contact, error) {
	s.queries = append(s.queries, query)
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return s.contacts[query], nil
}

func (s *stubCRM) CreateContact(context.Context, hubspot.NewContact) (string, error) {
	return s.createID, s.createErr
}

func (s *stubCRM) CreateNote(_ context.Context, input hubspot.NoteInput) (string, error) {
	s.notes = append(s.notes, input)
	if s.noteErr != nil {
		return "", s.noteErr
	}
	return "note-1", nil
}

func (s *stubCRM) ContactURL(contactID string) string {
	return hubspot.ContactURL(s.portal, contactID)
}

type stubKB struct {
	investors []notion.Investor
	updated   []notion.InvestorUpdate
	created   []string
	todos     []notion.TodoInput
	todoErr   map[string]error
}

func (s *stubKB) SearchInvestors(context.Context, string) ([]notion.Investor, error) {
	return s.investors, nil
}

func (s *stubKB) UpdateInvestor(_ context.Context, _ string, update notion.InvestorUpdate) (preferences.Record, error) {
	s.updated = append(s.updated, update)
	return update.Preferences, nil
}

func (s *stubKB) CreateInvestor(_ context.Context, name string, _ notion.InvestorUpdate) (string, error) {
	s.created = append(s.created, name)
	return "page-new", nil
}

func (s *stubKB) CreateTodo(_ context.Context, input notion.TodoInput) (string, error) {
	if err := s.todoErr[input.TaskName]; err != nil {
		return "", err
	}
	s.todos = append(s.todos, input)
	return "todo-" + input.TaskName, nil
}

func newService(ex workflow.Extractor, crm workflow.CRM, kb workflow.KnowledgeBase) *workflow.Service {
	return workflow.NewService(workflow.Dependencies{Extractor: ex, CRM: crm, KnowledgeBase: kb}, logging.NewNop())
}

func TestProcessNotesRejectsBlankNotes(t *testing.T) {
	ex := &stubExtractor{}
	_, err := newService(ex, &stubCRM{}, nil).ProcessNotes(context.Background(), "   ")
	if !errors.Is(err, services.ErrValidation) || err.Error() != "Notes cannot be empty" {
		t.Fatalf("expected validation error, got %v", err)
	}
	if ex.calls != 0 {
		t.Fatalf("extractor should not be called")
	}
}

func TestProcessNotesContactLookupOrder(t *testing.T) {
	ada := hubspot.Contact{ID: "1", FirstName: "Ada", LastName: "Lovelace"}
	cases := []struct {
		name        string
		contact     llm.ParsedContact
		crmContacts map[string][]hubspot.Contact
		status      workflow.ContactStatus
		queries     []string
	}{
		{
			name:        "email wins",
			contact:     llm.ParsedContact{Email: "ada@acme.com", PersonName: "Ada Lovelace", CompanyName: "Acme"},
			crmContacts: map[string][]hubspot.Contact{"ada@acme.com": {ada}},
			status:      workflow.FoundByEmail,
			queries:     []string{"ada@acme.com"},
		},
		{
			name:        "person after email miss",
			contact:     llm.ParsedContact{Email: "new@acme.com", PersonName: "Ada Lovelace"},
			crmContacts: map[string][]hubspot.Contact{"Ada Lovelace": {ada}},
			status:      workflow.FoundByPersonName,
			queries:     []string{"new@acme.com", "Ada Lovelace"},
		},
		{
			name:        "named person missing skips company",
			contact:     llm.ParsedContact{PersonName: "Grace Hopper", CompanyName: "Acme"},
			crmContacts: map[string][]hubspot.Contact{"Acme": {ada}},
			status:      workflow.PersonNotFound,
			queries:     []string{"Grace Hopper"},
		},
		{
			name:        "company only",
			contact:     llm.ParsedContact{CompanyName: "Acme"},
			crmContacts: map[string][]hubspot.Contact{"Acme": {ada, {ID: "2"}}},
			status:      workflow.FoundByCompany,
			queries:     []string{"Acme"},
		},
		{
			name:    "nothing",
			contact: llm.ParsedContact{CompanyName: "Nobody"},
			status:  workflow.NotFound,
			queries: []string{"Nobody"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			crm := &stubCRM{contacts: tc.crmContacts}
			ex := &stubExtractor{parsed: llm.ParsedNotes{Contact: tc.contact, Preferences: preferences.NewRecord()}}
			preview, err := newService(ex, crm, nil).ProcessNotes(context.Background(), "met with acme")
			if err != nil {
				t.Fatalf("ProcessNotes: %v", err)
			}
			if preview.ContactStatus != tc.status {
				t.Fatalf("status = %q, want %q", preview.ContactStatus, tc.status)
			}
			if diff := cmp.Diff(tc.queries, crm.queries); diff != "" {
				t.Fatalf("unexpected queries (-want +got):\n%s", diff)
			}
			if preview.NeedsContactCreation != (tc.status == workflow.NotFound) {
				t.Fatalf("needs_contact_creation = %v for %q", preview.NeedsContactCreation, tc.status)
			}
			if preview.HasMultipleContacts != (len(preview.HubSpotContacts) > 1) {
				t.Fatalf("has_multiple_contacts inconsistent")
			}
		})
	}
}

func TestProcessNotesExtractorFailure(t *testing.T) {
	ex := &stubExtractor{err: errors.New("overloaded")}
	_, err := newService(ex, &stubCRM{}, nil).ProcessNotes(context.Background(), "notes")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external error, got %v", err)
	}
}

func TestCreateContactRequiresFields(t *testing.T) {
	_, err := newService(nil, &stubCRM{}, nil).CreateContact(context.Background(), workflow.CreateContactRequest{Email: "a@b.com", FirstName: "A"})
	if err == nil || err.Error() != "Missing required fields: email, firstname, lastname" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestCreateContactUsesExistingOnConflict(t *testing.T) {
	crm := &stubCRM{
		createErr: &hubspot.AlreadyExistsError{ExistingID: "77"},
		contacts:  map[string][]hubspot.Contact{"ada@acme.com": {{ID: "77", FirstName: "Ada", LastName: "Lovelace"}}},
	}
	got, err := newService(nil, crm, nil).CreateContact(context.Background(), workflow.CreateContactRequest{
		Email: "ada@acme.com", FirstName: "Ada", LastName: "Lovelace",
	})
	if err != nil {
		t.Fatalf("CreateContact: %v", err)
	}
	if !got.AlreadyExists || got.ContactID != "77" {
		t.Fatalf("unexpected result %+v", got)
	}
	if got.Message != "Contact already exists. Using existing contact: Ada Lovelace" {
		t.Fatalf("unexpected message %q", got.Message)
	}
}

func TestCreateContactConflictWithoutLookup(t *testing.T) {
	crm := &stubCRM{createErr: &hubspot.AlreadyExistsError{ExistingID: "77"}}
	got, err := newService(nil, crm, nil).CreateContact(context.Background(), workflow.CreateContactRequest{
		Email: "ada@acme.com", FirstName: "Ada", LastName: "Lovelace",
	})
	if err != nil {
		t.Fatalf("CreateContact: %v", err)
	}
	if got.ContactID != "77" || got.Message != "Contact already exists. Using existing contact." {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestSelectContact(t *testing.T) {
	got, err := newService(nil, nil, nil).SelectContact(context.Background(), "42")
	if err != nil || got.ContactID != "42" || got.Message != "Contact selection confirmed" {
		t.Fatalf("unexpected result %+v, %v", got, err)
	}
}

func TestConfirmAndExecuteRequiresContactUnlessSkipped(t *testing.T) {
	svc := newService(nil, &stubCRM{}, &stubKB{})
	if _, err := svc.ConfirmAndExecute(context.Background(), workflow.ExecuteRequest{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	got, err := svc.ConfirmAndExecute(context.Background(), workflow.ExecuteRequest{SkipHubSpot: true, SkipInvestorPrefs: true})
	if err != nil {
		t.Fatalf("ConfirmAndExecute: %v", err)
	}
	if got.Message != "⊘ HubSpot note skipped | ⊘ Investor preferences skipped" || !got.Success {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestConfirmAndExecuteAllSteps(t *testing.T) {
	crm := &stubCRM{portal: "999"}
	kb := &stubKB{investors: []notion.Investor{{ID: "page-1"}}}
	req := workflow.ExecuteRequest{
		ContactID:   "42",
		ContactName: "Ada Lovelace",
		CompanyName: "Acme Capital",
		RawNotes:    "full notes",
		Summary:     []string{"Wants software", "Leads rounds"},
		Preferences: preferences.Validate(preferences.Industry, "Software"),
		Todos:       []llm.ParsedTodo{{TaskName: "Send deck", DueDate: "2024-03-15"}, {TaskName: ""}},
	}
	got, err := newService(nil, crm, kb).ConfirmAndExecute(context.Background(), req)
	if err != nil {
		t.Fatalf("ConfirmAndExecute: %v", err)
	}
	if !got.Success || got.PartialSuccess {
		t.Fatalf("unexpected flags %+v", got)
	}
	if got.Message != "✓ HubSpot note created | ✓ Investor preferences updated | ✓ 1 todo(s) created" {
		t.Fatalf("unexpected message %q", got.Message)
	}
	if len(crm.notes) != 1 || crm.notes[0].Summary != "• Wants software\n• Leads rounds" || crm.notes[0].ContactID != "42" {
		t.Fatalf("unexpected note %+v", crm.notes)
	}
	if len(kb.updated) != 1 || kb.updated[0].PrimaryContact != "Ada Lovelace" || kb.updated[0].HubSpotContactID != "42" {
		t.Fatalf("unexpected investor update %+v", kb.updated)
	}
	if diff := cmp.Diff([]notion.TodoInput{{TaskName: "Send deck", DueDate: "2024-03-15"}}, kb.todos); diff != "" {
		t.Fatalf("unexpected todos (-want +got):\n%s", diff)
	}
}

func TestConfirmAndExecuteCollectsErrors(t *testing.T) {
	crm := &stubCRM{noteErr: errors.New("hubspot down")}
	kb := &stubKB{todoErr: map[string]error{"Broken": errors.New("bad date")}}
	req := workflow.ExecuteRequest{
		ContactID:   "42",
		CompanyName: "Acme Capital",
		Preferences: preferences.Validate(preferences.Industry, "Software"),
		Todos:       []llm.ParsedTodo{{TaskName: "Broken"}, {TaskName: "Fine"}},
	}
	got, err := newService(nil, crm, kb).ConfirmAndExecute(context.Background(), req)
	if err != nil {
		t.Fatalf("ConfirmAndExecute: %v", err)
	}
	if got.Success || !got.PartialSuccess {
		t.Fatalf("expected partial success, got %+v", got)
	}
	want := []string{
		"HubSpot note failed: hubspot down",
		"Todo creation failed for 'Broken': bad date",
	}
	if diff := cmp.Diff(want, got.Results.Errors); diff != "" {
		t.Fatalf("unexpected errors (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Acme Capital"}, kb.created); diff != "" {
		t.Fatalf("expected investor created (-want +got):\n%s", diff)
	}
	if got.Message != "✓ Investor preferences created | ✓ 1 todo(s) created | ⚠ 2 error(s) occurred" {
		t.Fatalf("unexpected message %q", got.Message)
	}
}

func TestConfirmAndExecuteSkipsInvestorWithoutPreferences(t *testing.T) {
	kb := &stubKB{}
	got, err := newService(nil, &stubCRM{}, kb).ConfirmAndExecute(context.Background(), workflow.ExecuteRequest{
		ContactID:   "42",
		CompanyName: "Acme",
		Preferences: preferences.NewRecord(),
	})
	if err != nil {
		t.Fatalf("ConfirmAndExecute: %v", err)
	}
	if len(kb.created)+len(kb.updated) != 0 || got.Results.NotionInvestor != nil {
		t.Fatalf("investor page should not be touched: %+v", got)
	}
}

func TestConfirmAndExecuteUpsertsInvestorForProvidedEmptyPreferences(t *testing.T) {
	crm := &stubCRM{portal: "999"}
	kb := &stubKB{}
	req, err := workflow.NormalizeExecuteRequest([]byte(`{
		"contact_id": "42",
		"contact_name": "Ada Lovelace",
		"company_name": "Acme",
		"preferences": {"Preference Notes": ""}
	}`))
	if err != nil {
		t.Fatalf("NormalizeExecuteRequest: %v", err)
	}
	got, err := newService(nil, crm, kb).ConfirmAndExecute(context.Background(), req)
	if err != nil {
		t.Fatalf("ConfirmAndExecute: %v", err)
	}
	if diff := cmp.Diff([]string{"Acme"}, kb.created); diff != "" {
		t.Fatalf("expected investor page created (-want +got):\n%s", diff)
	}
	if got.Results.NotionInvestor == nil || got.Results.NotionInvestor.Action != "created" {
		t.Fatalf("unexpected investor result %+v", got.Results.NotionInvestor)
	}
}

func TestBuildSuccessMessageEmpty(t *testing.T) {
	if got := workflow.BuildSuccessMessage(workflow.ExecuteResults{}); got != "No actions completed" {
		t.Fatalf("unexpected message %q", got)
	}
}
