package workflow

import (
	"context"
	"fmt"
	"strings"

	"dealflow/internal/logging"
	"dealflow/internal/services"
	"dealflow/internal/services/hubspot"
	"dealflow/internal/services/notion"
)

// InvestorAction reports what happened to the investor page.
type InvestorAction struct {
	ID     string `json:"id"`
	Action string `json:"action"`
}

// CreatedTodo is one to-do page written.
type CreatedTodo struct {
	ID       string `json:"id"`
	TaskName string `json:"task_name"`
}

// Skipped echoes the steps the caller opted out of.
type Skipped struct {
	HubSpot       bool `json:"hubspot"`
	InvestorPrefs bool `json:"investor_prefs"`
}

// ExecuteResults collects per-step outcomes.
type ExecuteResults struct {
	HubSpotNote    string          `json:"hubspot_note,omitempty"`
	NotionInvestor *InvestorAction `json:"notion_investor"`
	NotionTodos    []CreatedTodo   `json:"notion_todos"`
	Errors         []string        `json:"errors"`
	Skipped        Skipped         `json:"skipped"`
}

func (r ExecuteResults) anyWrite() bool {
	return r.HubSpotNote != "" || r.NotionInvestor != nil || len(r.NotionTodos) > 0
}

// ExecuteResult is the response of ConfirmAndExecute.
type ExecuteResult struct {
	Success        bool           `json:"success"`
	PartialSuccess bool           `json:"partial_success"`
	Results        ExecuteResults `json:"results"`
	Message        string         `json:"message"`
}

// ConfirmAndExecute writes the confirmed note, investor preferences and
// to-dos. Step failures are collected in Results.Errors; only a missing
// contact id is returned as an error.
func (s *Service) ConfirmAndExecute(ctx context.Context, req ExecuteRequest) (ExecuteResult, error) {
	ctx = services.WithOperation(ctx, "confirm_and_execute")
	logger := logging.WithContext(ctx, s.logger)

	if !req.SkipHubSpot && req.ContactID == "" {
		return ExecuteResult{}, services.Invalid("No contact_id provided")
	}
	logger.Info("executing confirmed updates",
		logging.Bool("hubspot", !req.SkipHubSpot),
		logging.Bool("investor_prefs", !req.SkipInvestorPrefs),
		logging.Int("todo_count", len(req.Todos)),
	)

	results := ExecuteResults{
		NotionTodos: []CreatedTodo{},
		Errors:      []string{},
		Skipped:     Skipped{HubSpot: req.SkipHubSpot, InvestorPrefs: req.SkipInvestorPrefs},
	}

	if req.SkipHubSpot {
		logger.Info("skipping hubspot note")
	} else {
		s.logNote(ctx, req, &results)
	}
	if !req.SkipInvestorPrefs && req.CompanyName != "" && (req.PreferencesProvided || !req.Preferences.IsEmpty()) {
		s.upsertInvestor(ctx, req, &results)
	}
	s.createTodos(ctx, req, &results)

	result := ExecuteResult{
		Success:        len(results.Errors) == 0,
		PartialSuccess: results.anyWrite() && len(results.Errors) > 0,
		Results:        results,
		Message:        BuildSuccessMessage(results),
	}
	logger.Info("confirmed updates finished",
		logging.Bool("success", result.Success),
		logging.Int("error_count", len(results.Errors)),
		logging.String("message", result.Message),
	)
	return result, nil
}

func (s *Service) logNote(ctx context.Context, req ExecuteRequest, results *ExecuteResults) {
	if s.crm == nil {
		results.Errors = append(results.Errors, "HubSpot note error: crm not configured")
		return
	}
	bullets := make([]string, 0, len(req.Summary))
	for _, bullet := range req.Summary {
		bullets = append(bullets, "• "+bullet)
	}
	id, err := s.crm.CreateNote(ctx, hubspot.NoteInput{
		Summary:   strings.Join(bullets, "\n"),
		Notes:     req.RawNotes,
		ContactID: req.ContactID,
	})
	if err != nil {
		logging.ErrorWithContext(logging.WithContext(ctx, s.logger), "hubspot note failed", "hubspot_note_failed", logging.Error(err))
		results.Errors = append(results.Errors, fmt.Sprintf("HubSpot note failed: %v", err))
		return
	}
	results.HubSpotNote = id
}

func (s *Service) upsertInvestor(ctx context.Context, req ExecuteRequest, results *ExecuteResults) {
	logger := logging.WithContext(ctx, s.logger)
	if s.kb == nil {
		results.Errors = append(results.Errors, "Notion investor error: knowledge base not configured")
		return
	}
	if s.crm != nil && s.crm.ContactURL(req.ContactID) == "" {
		logging.WarnWithContext(logger, "hubspot link unavailable for investor page", "hubspot_link_unavailable",
			logging.String("contact_id", req.ContactID),
			logging.String(logging.FieldErrorHint, "set hubspot.portal_id"),
			logging.String(logging.FieldImpact, "investor page has no Hubspot Link"),
		)
	}
	update := notion.InvestorUpdate{
		Preferences:      req.Preferences,
		PrimaryContact:   req.ContactName,
		HubSpotContactID: req.ContactID,
	}

	found, err := s.kb.SearchInvestors(ctx, req.CompanyName)
	if err != nil {
		results.Errors = append(results.Errors, fmt.Sprintf("Notion investor error: %v", err))
		return
	}
	if len(found) > 0 {
		pageID := found[0].ID
		logger.Info("updating existing investor page", logging.String("page_id", pageID))
		if _, err := s.kb.UpdateInvestor(ctx, pageID, update); err != nil {
			results.Errors = append(results.Errors, fmt.Sprintf("Notion update failed: %v", err))
			return
		}
		results.NotionInvestor = &InvestorAction{ID: pageID, Action: "updated"}
		return
	}

	logger.Info("creating investor page", logging.String("company", req.CompanyName))
	id, err := s.kb.CreateInvestor(ctx, req.CompanyName, update)
	if err != nil {
		results.Errors = append(results.Errors, fmt.Sprintf("Notion create failed: %v", err))
		return
	}
	results.NotionInvestor = &InvestorAction{ID: id, Action: "created"}
}

func (s *Service) createTodos(ctx context.Context, req ExecuteRequest, results *ExecuteResults) {
	for _, todo := range req.Todos {
		name := strings.TrimSpace(todo.TaskName)
		if name == "" {
			continue
		}
		if s.kb == nil {
			results.Errors = append(results.Errors, fmt.Sprintf("Todo creation failed for '%s': knowledge base not configured", name))
			continue
		}
		id, err := s.kb.CreateTodo(ctx, notion.TodoInput{TaskName: name, DueDate: todo.DueDate, NextStep: todo.NextStep})
		if err != nil {
			results.Errors = append(results.Errors, fmt.Sprintf("Todo creation failed for '%s': %v", name, err))
			continue
		}
		results.NotionTodos = append(results.NotionTodos, CreatedTodo{ID: id, TaskName: name})
	}
}

// BuildSuccessMessage summarizes results as " | "-joined parts, or
// "No actions completed".
func BuildSuccessMessage(results ExecuteResults) string {
	var parts []string
	switch {
	case results.Skipped.HubSpot:
		parts = append(parts, "⊘ HubSpot note skipped")
	case results.HubSpotNote != "":
		parts = append(parts, "✓ HubSpot note created")
	}
	switch {
	case results.Skipped.InvestorPrefs:
		parts = append(parts, "⊘ Investor preferences skipped")
	case results.NotionInvestor != nil:
		parts = append(parts, "✓ Investor preferences "+results.NotionInvestor.Action)
	}
	if n := len(results.NotionTodos); n > 0 {
		parts = append(parts, fmt.Sprintf("✓ %d todo(s) created", n))
	}
	if n := len(results.Errors); n > 0 {
		parts = append(parts, fmt.Sprintf("⚠ %d error(s) occurred", n))
	}
	if len(parts) == 0 {
		return "No actions completed"
	}
	return strings.Join(parts, " | ")
}
