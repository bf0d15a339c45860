package callprep

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"golang.org/x/sync/errgroup"

	"dealflow/internal/logging"
	"dealflow/internal/reminders"
	"dealflow/internal/services"
	"dealflow/internal/services/hubspot"
	"dealflow/internal/services/llm"
	"dealflow/internal/services/serper"
)

const (
	// EngagementLimit caps the interactions included in a brief.
	EngagementLimit = 10

	defaultBriefModel     = "claude-sonnet-4-20250514"
	defaultBriefMaxTokens = 3000
)

// closedStages are excluded from the live deals list.
var closedStages = map[string]bool{"closedwon": true, "closedlost": true}

// CRM supplies the contact, timeline and deals.
type CRM interface {
	GetContact(ctx context.Context, contactID string) (hubspot.Contact, error)
	RecentEngagements(ctx context.Context, contactID string, limit int) ([]hubspot.EngagementRecord, error)
	ContactDeals(ctx context.Context, contactID string) ([]hubspot.Deal, error)
}

// WebSearcher researches a person's public profile.
type WebSearcher interface {
	ResearchContact(ctx context.Context, name, company string) serper.Findings
}

// Synthesizer writes the brief text.
type Synthesizer interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

// Options tunes the synthesis call.
type Options struct {
	Model     string
	MaxTokens int
}

// Request names the contact to brief. Name and Company override what the
// CRM record says.
type Request struct {
	ContactID string `json:"contact_id"`
	Name      string `json:"name,omitempty"`
	Company   string `json:"company,omitempty"`
}

// ContactInfo is the contact as presented in the brief.
type ContactInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Company  string `json:"company"`
	JobTitle string `json:"jobtitle"`
	Email    string `json:"email"`
}

// Activity is an engagement flattened for output.
type Activity struct {
	Date     string `json:"date"`
	Type     string `json:"type"`
	Summary  string `json:"summary"`
	FullBody string `json:"full_body"`
}

// Brief is a prepared call brief and the data it was built from.
type Brief struct {
	Contact          ContactInfo     `json:"contact"`
	RecentActivities []Activity      `json:"recent_activities"`
	LiveDeals        []hubspot.Deal  `json:"live_deals"`
	WebFindings      serper.Findings `json:"web_findings"`
	BriefText        string          `json:"brief_text"`
	BriefHTML        template.HTML   `json:"brief_html"`
	// Error is set when the fallback brief was used.
	Error string `json:"error,omitempty"`
}

// Preparer builds call briefs.
type Preparer struct {
	crm    CRM
	web    WebSearcher
	model  Synthesizer
	opts   Options
	logger *slog.Logger
}

// NewPreparer builds a preparer. web and model may be nil.
func NewPreparer(crm CRM, web WebSearcher, model Synthesizer, opts Options, logger *slog.Logger) *Preparer {
	if opts.Model == "" {
		opts.Model = defaultBriefModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultBriefMaxTokens
	}
	return &Preparer{
		crm:    crm,
		web:    web,
		model:  model,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "callprep"),
	}
}

// Prepare gathers the contact's history and writes a brief. Source failures
// leave that part of the brief empty.
func (p *Preparer) Prepare(ctx context.Context, req Request) (Brief, error) {
	ctx = services.WithOperation(ctx, "prepare_call")
	logger := logging.WithContext(ctx, p.logger)

	req.ContactID = strings.TrimSpace(req.ContactID)
	if req.ContactID == "" {
		return Brief{}, services.Invalid("No contact_id provided")
	}
	if p.crm == nil {
		return Brief{}, services.Wrap(services.ErrConfiguration, "callprep", "prepare", "crm not configured", nil)
	}
	logger.Info("preparing call brief", logging.String("contact_id", req.ContactID))

	brief := Brief{
		Contact:          p.contactInfo(ctx, req),
		RecentActivities: []Activity{},
		LiveDeals:        []hubspot.Deal{},
		WebFindings:      serper.Findings{RecentActivity: []string{}},
	}

	var (
		g  errgroup.Group
		mu sync.Mutex
	)
	g.Go(func() error {
		records, err := p.crm.RecentEngagements(ctx, req.ContactID, EngagementLimit)
		if err != nil {
			p.warnSource(logger, "engagements", err)
			return nil
		}
		activities := make([]Activity, 0, EngagementLimit)
		for _, e := range Recent(records, EngagementLimit) {
			activities = append(activities, Activity{Date: DateLabel(e), Type: e.Kind(), Summary: e.Summary(), FullBody: e.Detail()})
		}
		mu.Lock()
		brief.RecentActivities = activities
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		deals, err := p.crm.ContactDeals(ctx, req.ContactID)
		if err != nil {
			p.warnSource(logger, "deals", err)
			return nil
		}
		live := make([]hubspot.Deal, 0, len(deals))
		for _, d := range deals {
			if !closedStages[d.Stage] {
				live = append(live, d)
			}
		}
		mu.Lock()
		brief.LiveDeals = live
		mu.Unlock()
		return nil
	})
	if p.web != nil && brief.Contact.Name != "" && brief.Contact.Company != "" {
		g.Go(func() error {
			findings := p.web.ResearchContact(ctx, brief.Contact.Name, brief.Contact.Company)
			mu.Lock()
			brief.WebFindings = findings
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	brief.BriefText, brief.Error = p.synthesize(ctx, brief)
	brief.BriefHTML = RenderMarkdown(brief.BriefText)
	logger.Info("call brief prepared",
		logging.Int("activity_count", len(brief.RecentActivities)),
		logging.Int("live_deal_count", len(brief.LiveDeals)),
		logging.Bool("fallback", brief.Error != ""),
	)
	return brief, nil
}

func (p *Preparer) contactInfo(ctx context.Context, req Request) ContactInfo {
	info := ContactInfo{ID: req.ContactID}
	contact, err := p.crm.GetContact(ctx, req.ContactID)
	if err != nil {
		p.warnSource(logging.WithContext(ctx, p.logger), "contact", err)
	} else {
		info.Name = contact.FullName()
		info.Company = contact.Company
		info.JobTitle = contact.JobTitle
		info.Email = contact.Email
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		info.Name = name
	}
	if company := strings.TrimSpace(req.Company); company != "" {
		info.Company = company
	}
	return info
}

func (p *Preparer) warnSource(logger *slog.Logger, source string, err error) {
	logging.WarnWithContext(logger, "call brief source failed", "callprep_source_failed",
		logging.String("source", source),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check hubspot.api_key and the contact id"),
		logging.String(logging.FieldImpact, "brief omits "+source),
	)
}

func (p *Preparer) synthesize(ctx context.Context, brief Brief) (string, string) {
	if p.model == nil {
		return FallbackBrief(brief), "Claude API unavailable, generated fallback brief: model not configured"
	}
	text, err := p.model.Complete(ctx, llm.Request{
		Model:     p.opts.Model,
		MaxTokens: p.opts.MaxTokens,
		Prompt:    BriefPrompt(brief),
	})
	if err == nil && strings.TrimSpace(text) != "" {
		return text, ""
	}
	if err == nil {
		err = fmt.Errorf("empty reply")
	}
	logging.WarnWithContext(logging.WithContext(ctx, p.logger), "brief synthesis failed; using fallback", "brief_fallback",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check llm.api_key"),
		logging.String(logging.FieldImpact, "brief generated without model summary"),
	)
	return FallbackBrief(brief), "Claude API unavailable, generated fallback brief: " + err.Error()
}

// RenderMarkdown converts a brief to HTML.
func RenderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

func dealLine(d hubspot.Deal, labelled bool) string {
	name := valueOr(d.Name, "Unnamed Deal")
	stage := valueOr(valueOr(d.StageLabel, d.Stage), "Unknown stage")
	var b strings.Builder
	if labelled {
		fmt.Fprintf(&b, "- %s | Stage: %s", name, stage)
	} else {
		fmt.Fprintf(&b, "- %s | %s", name, stage)
	}
	if amount := strings.TrimSpace(d.Amount); amount != "" {
		if labelled {
			b.WriteString(" | Amount: $" + amount)
		} else {
			b.WriteString(" | $" + amount)
		}
	}
	if next := strings.TrimSpace(d.NextStep); next != "" {
		b.WriteString(" | Next: " + next)
	}
	if due := nextStepDate(d.NextStepsDate); due != "" {
		b.WriteString(" by " + due)
	}
	return b.String()
}

func nextStepDate(raw string) string {
	if day, ok := reminders.ParseDueDate(raw); ok {
		return reminders.DateKey(day)
	}
	return strings.TrimSpace(raw)
}

func valueOr(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
