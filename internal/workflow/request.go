package workflow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"dealflow/internal/preferences"
	"dealflow/internal/services"
	"dealflow/internal/services/llm"
)

// ExecuteRequest is the confirmed data ConfirmAndExecute writes.
type ExecuteRequest struct {
	ContactID   string
	ContactName string
	CompanyName string
	RawNotes    string
	Summary     []string
	Preferences preferences.Record
	// PreferencesProvided is set when the payload carried a non-empty
	// preferences object, even if no value in it survived validation.
	PreferencesProvided bool
	Todos               []llm.ParsedTodo
	SkipHubSpot         bool
	SkipInvestorPrefs   bool
}

// flatRequest is the original single-level payload.
type flatRequest struct {
	ContactID           string             `json:"contact_id"`
	ContactName         string             `json:"contact_name"`
	CompanyName         string             `json:"company_name"`
	RawNotes            string             `json:"raw_notes"`
	Summary             []string           `json:"summary"`
	Preferences         preferences.Record `json:"preferences"`
	PreferencesProvided bool               `json:"-"`
	Todos               []llm.ParsedTodo   `json:"todos"`
	SkipHubSpot         bool               `json:"skip_hubspot"`
	SkipInvestorPrefs   bool               `json:"skip_investor_prefs"`
}

// nestedRequest groups the same fields by destination.
type nestedRequest struct {
	Contact struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		CompanyName string `json:"company_name"`
	} `json:"contact"`
	Notes struct {
		Raw     string   `json:"raw"`
		Summary []string `json:"summary"`
	} `json:"notes"`
	Preferences preferences.Record `json:"preferences"`
	Todos       []llm.ParsedTodo   `json:"todos"`
	Options     struct {
		SkipHubSpot       bool `json:"skip_hubspot"`
		SkipInvestorPrefs bool `json:"skip_investor_prefs"`
	} `json:"options"`
}

// NormalizeExecuteRequest decodes either payload shape. A body whose
// "contact" or "notes" member is an object is read as the nested shape;
// anything else is read as the flat shape.
func NormalizeExecuteRequest(data []byte) (ExecuteRequest, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return ExecuteRequest{}, services.Invalid("No data provided")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return ExecuteRequest{}, services.Invalid(fmt.Sprintf("Invalid JSON body: %v", err))
	}
	if len(fields) == 0 {
		return ExecuteRequest{}, services.Invalid("No data provided")
	}

	var req ExecuteRequest
	if isObject(fields["contact"]) || isObject(fields["notes"]) {
		var nested nestedRequest
		if err := json.Unmarshal(data, &nested); err != nil {
			return ExecuteRequest{}, services.Invalid(fmt.Sprintf("Invalid request: %v", err))
		}
		req = ExecuteRequest{
			ContactID:         nested.Contact.ID,
			ContactName:       nested.Contact.Name,
			CompanyName:       nested.Contact.CompanyName,
			RawNotes:          nested.Notes.Raw,
			Summary:           nested.Notes.Summary,
			Preferences:       nested.Preferences,
			Todos:             nested.Todos,
			SkipHubSpot:       nested.Options.SkipHubSpot,
			SkipInvestorPrefs: nested.Options.SkipInvestorPrefs,
		}
	} else {
		var flat flatRequest
		if err := json.Unmarshal(data, &flat); err != nil {
			return ExecuteRequest{}, services.Invalid(fmt.Sprintf("Invalid request: %v", err))
		}
		req = ExecuteRequest(flat)
	}
	req.ContactID = strings.TrimSpace(req.ContactID)
	req.ContactName = strings.TrimSpace(req.ContactName)
	req.CompanyName = strings.TrimSpace(req.CompanyName)
	req.PreferencesProvided = hasMembers(fields["preferences"])
	if req.Preferences.Multi == nil {
		req.Preferences = preferences.NewRecord()
	}
	return req, nil
}

func hasMembers(raw json.RawMessage) bool {
	if !isObject(raw) {
		return false
	}
	var members map[string]json.RawMessage
	return json.Unmarshal(raw, &members) == nil && len(members) > 0
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
