package api

import (
	"dealflow/internal/services/hubspot"
	"dealflow/internal/services/notion"
	"dealflow/internal/workflow"
)

// Pointer fields distinguish an absent member from an empty one; the two get
// different error messages.

// ProcessNotesRequest is the body of /api/process-notes.
type ProcessNotesRequest struct {
	Notes *string `json:"notes"`
}

// SelectContactRequest is the body of /api/select-contact.
type SelectContactRequest struct {
	ContactID *string `json:"contact_id"`
}

// SearchContactRequest is the body of /api/search-contact.
type SearchContactRequest struct {
	Query *string `json:"query"`
}

// SearchInvestorRequest is the body of /api/search-investor.
type SearchInvestorRequest struct {
	CompanyName *string `json:"company_name"`
}

// ProcessNotesResponse wraps the notes preview.
type ProcessNotesResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Preview workflow.Preview `json:"preview"`
}

// SearchContactResponse lists CRM matches.
type SearchContactResponse struct {
	Success  bool              `json:"success"`
	Contacts []hubspot.Contact `json:"contacts"`
	Count    int               `json:"count"`
}

// SearchInvestorResponse lists investor preference pages.
type SearchInvestorResponse struct {
	Success   bool              `json:"success"`
	Investors []notion.Investor `json:"investors"`
	Count     int               `json:"count"`
}

// HealthResponse reports liveness and integration readiness.
type HealthResponse struct {
	Status       string                       `json:"status"`
	Integrations []workflow.IntegrationHealth `json:"integrations,omitempty"`
}

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
