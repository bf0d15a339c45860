package callprep

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"dealflow/internal/logging"
	"dealflow/internal/services"
	"dealflow/internal/services/hubspot"
	"dealflow/internal/services/llm"
	"dealflow/internal/services/serper"
)

type fakeCRM struct {
	contact    hubspot.Contact
	contactErr error
	records    []hubspot.EngagementRecord
	deals      []hubspot.Deal
	dealsErr   error
}

func (f fakeCRM) GetContact(context.Context, string) (hubspot.Contact, error) {
	return f.contact, f.contactErr
}

func (f fakeCRM) RecentEngagements(context.Context, string, int) ([]hubspot.EngagementRecord, error) {
	return f.records, nil
}

func (f fakeCRM) ContactDeals(context.Context, string) ([]hubspot.Deal, error) {
	return f.deals, f.dealsErr
}

type fakeWeb struct {
	calls []string
}

func (f *fakeWeb) ResearchContact(_ context.Context, name, company string) serper.Findings {
	f.calls = append(f.calls, name+"@"+company)
	return serper.Findings{
		LinkedIn:       serper.LinkedIn{ProfileURL: "https://linkedin.com/in/ada", CurrentPosition: "Partner at Acme"},
		RecentActivity: []string{"Post: Raising fund II"},
	}
}

type fakeModel struct {
	reply  string
	err    error
	prompt string
	model  string
	tokens int
}

func (f *fakeModel) Complete(_ context.Context, req llm.Request) (string, error) {
	f.prompt, f.model, f.tokens = req.Prompt, req.Model, req.MaxTokens
	return f.reply, f.err
}

func sampleCRM() fakeCRM {
	return fakeCRM{
		contact: hubspot.Contact{ID: "42", FirstName: "Ada", LastName: "Lovelace", Company: "Acme", JobTitle: "Partner"},
		records: []hubspot.EngagementRecord{
			{ID: 1, Type: "NOTE", CreatedAt: 1710000000000, Metadata: hubspot.EngagementMetadata{Body: "Happy with terms"}},
			{ID: 2, Type: "EMAIL", CreatedAt: 1705000000000, Metadata: hubspot.EngagementMetadata{Subject: "Deck"}},
		},
		deals: []hubspot.Deal{
			{ID: "d1", Name: "Fund II", Stage: "qualifiedtobuy", StageLabel: "Qualified", Amount: "500000", NextStep: "Send DDQ", NextStepsDate: "1710460800000"},
			{ID: "d2", Name: "Closed", Stage: "closedwon"},
			{ID: "d3", Name: "Lost", Stage: "closedlost"},
		},
	}
}

func TestPrepareRequiresContactID(t *testing.T) {
	p := NewPreparer(sampleCRM(), nil, nil, Options{}, logging.NewNop())
	if _, err := p.Prepare(context.Background(), Request{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPrepareUsesModelBrief(t *testing.T) {
	web := &fakeWeb{}
	model := &fakeModel{reply: "## Engagement Summary\n\nAll good."}
	p := NewPreparer(sampleCRM(), web, model, Options{}, logging.NewNop())

	brief, err := p.Prepare(context.Background(), Request{ContactID: "42"})
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if brief.Error != "" {
		t.Fatalf("unexpected fallback: %s", brief.Error)
	}
	if model.model != "claude-sonnet-4-20250514" || model.tokens != 3000 {
		t.Fatalf("unexpected model settings %q/%d", model.model, model.tokens)
	}
	if len(brief.LiveDeals) != 1 || brief.LiveDeals[0].ID != "d1" {
		t.Fatalf("closed deals should be filtered: %+v", brief.LiveDeals)
	}
	if len(brief.RecentActivities) != 2 || brief.RecentActivities[0].Type != "Note" {
		t.Fatalf("unexpected activities %+v", brief.RecentActivities)
	}
	if len(web.calls) != 1 || web.calls[0] != "Ada Lovelace@Acme" {
		t.Fatalf("unexpected web calls %v", web.calls)
	}
	for _, want := range []string{
		"- Name: Ada Lovelace",
		"[2024-03-09] Note:\nHappy with terms",
		"- Fund II | Stage: Qualified | Amount: $500000 | Next: Send DDQ by 2024-03-15",
		"- Current Position: Partner at Acme",
		"  - Post: Raising fund II",
	} {
		if !strings.Contains(model.prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, model.prompt)
		}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(brief.BriefHTML)))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	if got := doc.Find("h2").First().Text(); got != "Engagement Summary" {
		t.Fatalf("unexpected heading %q", got)
	}
}

func TestPrepareFallsBackWhenModelFails(t *testing.T) {
	model := &fakeModel{err: errors.New("overloaded")}
	p := NewPreparer(sampleCRM(), nil, model, Options{}, logging.NewNop())
	brief, err := p.Prepare(context.Background(), Request{ContactID: "42"})
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if brief.Error != "Claude API unavailable, generated fallback brief: overloaded" {
		t.Fatalf("unexpected error %q", brief.Error)
	}
	for _, want := range []string{
		"## Engagement Summary",
		"Found 2 recent interactions including Note, Email.",
		"## Active Deals Summary",
		"- Fund II | Qualified | $500000 | Next: Send DDQ by 2024-03-15",
		"## Professional Updates",
		"No recent web activity found.",
	} {
		if !strings.Contains(brief.BriefText, want) {
			t.Fatalf("fallback missing %q:\n%s", want, brief.BriefText)
		}
	}
}

func TestPrepareSkipsWebSearchWithoutCompany(t *testing.T) {
	crm := sampleCRM()
	crm.contact.Company = ""
	web := &fakeWeb{}
	p := NewPreparer(crm, web, &fakeModel{reply: "ok"}, Options{}, logging.NewNop())
	if _, err := p.Prepare(context.Background(), Request{ContactID: "42"}); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if len(web.calls) != 0 {
		t.Fatalf("web search should be skipped, got %v", web.calls)
	}
	if _, err := p.Prepare(context.Background(), Request{ContactID: "42", Company: "Acme"}); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if len(web.calls) != 1 {
		t.Fatalf("request company should enable web search")
	}
}

func TestFallbackBriefWithNoData(t *testing.T) {
	got := FallbackBrief(Brief{})
	for _, want := range []string{"No recent activity recorded.", "No active deals.", "No recent web activity found."} {
		if !strings.Contains(got, want) {
			t.Fatalf("fallback missing %q:\n%s", want, got)
		}
	}
}

func TestPrepareToleratesSourceFailures(t *testing.T) {
	crm := sampleCRM()
	crm.contactErr = errors.New("404")
	crm.dealsErr = errors.New("timeout")
	p := NewPreparer(crm, nil, nil, Options{}, logging.NewNop())
	brief, err := p.Prepare(context.Background(), Request{ContactID: "42", Name: "Ada"})
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if brief.Contact.Name != "Ada" || len(brief.LiveDeals) != 0 {
		t.Fatalf("unexpected brief %+v", brief)
	}
	if !strings.HasPrefix(brief.Error, "Claude API unavailable") {
		t.Fatalf("expected fallback without model, got %q", brief.Error)
	}
}
