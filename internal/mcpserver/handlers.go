package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"dealflow/internal/callprep"
	"dealflow/internal/logging"
	"dealflow/internal/services"
	"dealflow/internal/services/hubspot"
	"dealflow/internal/workflow"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	deps   Dependencies
	logger *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps Dependencies, logger *slog.Logger) *Handlers {
	return &Handlers{deps: deps, logger: logging.NewComponentLogger(logger, "mcp")}
}

// ProcessNotesRequest represents the arguments for process_notes.
type ProcessNotesRequest struct {
	Notes *string `json:"notes"`
}

// SearchContactRequest represents the arguments for search_contact.
type SearchContactRequest struct {
	Query *string `json:"query"`
}

// SearchInvestorRequest represents the arguments for search_investor.
type SearchInvestorRequest struct {
	CompanyName *string `json:"company_name"`
}

// DealRequest names one deal.
type DealRequest struct {
	DealID string `json:"deal_id"`
}

// ContactRequest names one contact.
type ContactRequest struct {
	ContactID string `json:"contact_id"`
}

// SearchDealsRequest represents the arguments for search_deals.
type SearchDealsRequest struct {
	Name string `json:"name"`
}

// UpdateDealRequest represents the arguments for update_deal.
type UpdateDealRequest struct {
	DealID        string `json:"deal_id"`
	Stage         string `json:"stage,omitempty"`
	NextStep      string `json:"next_step,omitempty"`
	NextStepsDate string `json:"next_steps_date,omitempty"`
	Amount        string `json:"amount,omitempty"`
}

// CreateDealRequest represents the arguments for create_deal.
type CreateDealRequest struct {
	Name          string `json:"name"`
	Stage         string `json:"stage,omitempty"`
	NextStep      string `json:"next_step,omitempty"`
	NextStepsDate string `json:"next_steps_date,omitempty"`
	ContactID     string `json:"contact_id,omitempty"`
}

// CreateFollowUpTaskRequest represents the arguments for create_follow_up_task.
type CreateFollowUpTaskRequest struct {
	Subject   string `json:"subject"`
	DueInDays *int   `json:"due_in_days"`
	ContactID string `json:"contact_id,omitempty"`
}

// InvestorRequest names one investor page.
type InvestorRequest struct {
	PageID string `json:"page_id"`
}

// CreatedResult reports the id of a created record.
type CreatedResult struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

// UpdatedResult reports a completed patch.
type UpdatedResult struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

// ListResult wraps a list with its length.
type ListResult[T any] struct {
	Success bool `json:"success"`
	Items   []T  `json:"items"`
	Count   int  `json:"count"`
}

func newListResult[T any](items []T) ListResult[T] {
	if items == nil {
		items = []T{}
	}
	return ListResult[T]{Success: true, Items: items, Count: len(items)}
}

// maxDueInDays bounds follow-up task offsets to roughly ten years.
const maxDueInDays = 3650

// HandleProcessNotes handles the process_notes tool call.
func (h *Handlers) HandleProcessNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ProcessNotesRequest](req)
	if err != nil {
		return h.errorResult(ctx, services.Invalid(err.Error())), nil
	}
	if input.Notes == nil {
		return h.errorResult(ctx, services.Invalid("No notes provided")), nil
	}
	preview, err := h.deps.Notes.ProcessNotes(ctx, *input.Notes)
	if err != nil {
		return h.errorResult(ctx, err), nil
	}
	return successResult(preview)
}

// HandleSearchContact handles the search_contact tool call.
func (h *Handlers) HandleSearchContact(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchContactRequest](req)
	if err != nil {
		return h.errorResult(ctx, services.Invalid(err.Error())), nil
	}
	if input.Query == nil {
		return h.errorResult(ctx, services.Invalid("No query provided")), nil
	}
	contacts, err := h.deps.Notes.SearchContacts(ctx, *input.Query)
	if err != nil {
		return h.errorResult(ctx, err), nil
	}
	return successResult(newListResult(contacts))
}

// HandleSearchInvestor handles the search_investor tool call.
func (h *Handlers) HandleSearchInvestor(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchInvestorRequest](req)
	if err != nil {
		return h.errorResult(ctx, services.Invalid(err.Error())), nil
	}
	if input.CompanyName == nil {
		return h.errorResult(ctx, services.Invalid("No company_name provided")), nil
	}
	investors, err := h.deps.Notes.SearchInvestors(ctx, *input.CompanyName)
	if err != nil {
		return h.errorResult(ctx, err), nil
	}
	return successResult(newListResult(investors))
}

// HandleConfirmAndExecute handles the confirm_and_execute tool call. The
// arguments take either payload shape the HTTP route accepts.
func (h *Handlers) HandleConfirmAndExecute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := rawArguments(req)
	if err != nil {
		return h.errorResult(ctx, services.Invalid(err.Error())), nil
	}
	input, err := workflow.NormalizeExecuteRequest(raw)
	if err != nil {
		return h.errorResult(ctx, err), nil
	}
	result, err := h.deps.Notes.ConfirmAndExecute(ctx, input)
	if err != nil {
		return h.errorResult(ctx, err), nil
	}
	return successResult(result)
}

// HandleSendReminders handles the send_reminders tool call. A failed scan is
// returned as its result body with IsError set.
func (h *Handlers) HandleSendReminders(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result := h.deps.Reminders.RunDailyScan(context.WithoutCancel(ctx))
	out, err := successResult(result)
	if err != nil {
		return nil, err
	}
	out.IsError = !result.Success
	return out, nil
}

// HandlePrepareCall handles the prepare_call tool call.
func (h *Handlers) HandlePrepareCall(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[callprep.Request](req)
	if err != nil {
		return h.errorResult(ctx, services.Invalid(err.Error())), nil
	}
	brief, err := h.deps.CallPrep.Prepare(ctx, input)
	if err != nil {
		return h.errorResult(ctx, err), nil
	}
	return successResult(brief)
}

// HandleContactDeals handles the contact_deals tool call.
func (h *Handlers) HandleContactDeals(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ContactRequest](req)
	if err != nil {
		return h.errorResult(ctx, services.Invalid(err.Error())), nil
	}
	contactID, err := required("contact_id", input.ContactID)
	if err != nil {
		return h.errorResult(ctx, err), nil
	}
	deals, err := h.deps.Deals.ContactDeals(ctx, contactID)
	if err != nil {
		return h.errorResult(ctx, err), nil
	}
	return successResult(newListResult(deals))
}

// HandleGetDeal handles the get_deal tool call.
func (h *Handlers) HandleGetDeal(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DealRequest](req)
	if err != nil {
		return h.errorResult(ctx, services.Invalid(err.Error())), nil
	}
	dealID, err := required("deal_id", input.DealID)
	if err != nil {
		return h.errorResult(ctx, err), nil
	}
	deal, err := h.deps.Deals.GetDeal(ctx, dealID)
	if err != nil {
		return h.errorResult(ctx, err), nil
	}
	return successResult(deal)
}

// HandleSearchDeals handles the search_deals tool call.
func (h *Handlers) HandleSearchDeals(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchDealsRequest](req)
	if err != nil {
		return h.errorResult(ctx, services.Invalid(err.Error())), nil
	}
	name, err := required("name", input.Name)
	if err != nil {
		return h.errorResult(ctx, err), nil
	}
	deals, err := h.deps.Deals.SearchDeals(ctx, name)
	if err != nil {
		return h.errorResult(ctx, err), nil
	}
	return successResult(newListResult(deals))
}

// HandleUpdateDeal handles the update_deal tool call.
func (h *Handlers) HandleUpdateDeal(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpdateDealRequest](req)
	if err != nil {
		return h.errorResult(ctx, services.Invalid(err.Error())), nil
	}
	dealID, err := required("deal_id", input.DealID)
	if err != nil {
		return h.errorResult(ctx, err), nil
	}
	date, err := parseDate("next_steps_date", input.NextStepsDate)
	if err != nil {
		return h.errorResult(ctx, err), nil
	}
	update := hubspot.DealUpdate{
		Stage:         strings.TrimSpace(input.Stage),
		NextStep:      strings.TrimSpace(input.NextStep),
		NextStepsDate: date,
		Amount:        strings.TrimSpace(input.Amount),
	}
	if update.Stage == "" && update.NextStep == "" && update.Amount == "" && update.NextStepsDate.IsZero() {
		return h.errorResult(ctx, services.Invalid("No deal fields provided")), nil
	}
	if err := h.deps.Deals.UpdateDeal(ctx, dealID, update); err != nil {
		return h.errorResult(ctx, err), nil
	}
	return successResult(UpdatedResult{Success: true, ID: dealID})
}

// HandleCreateDeal handles the create_deal tool call.
func (h *Handlers) HandleCreateDeal(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CreateDealRequest](req)
	if err != nil {
		return h.errorResult(ctx, services.Invalid(err.Error())), nil
	}
	name, err := required("name", input.Name)
	if err != nil {
		return h.errorResult(ctx, err), nil
	}
	date, err := parseDate("next_steps_date", input.NextStepsDate)
	if err != nil {
		return h.errorResult(ctx, err), nil
	}
	id, err := h.deps.Deals.CreateDeal(ctx, hubspot.NewDeal{
		Name:          name,
		Stage:         strings.TrimSpace(input.Stage),
		NextStep:      strings.TrimSpace(input.NextStep),
		NextStepsDate: date,
		ContactID:     strings.TrimSpace(input.ContactID),
	})
	if err != nil {
		return h.errorResult(ctx, err), nil
	}
	return successResult(CreatedResult{Success: true, ID: id})
}

// HandleCreateFollowUpTask handles the create_follow_up_task tool call.
func (h *Handlers) HandleCreateFollowUpTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CreateFollowUpTaskRequest](req)
	if err != nil {
		return h.errorResult(ctx, services.Invalid(err.Error())), nil
	}
	subject, err := required("subject", input.Subject)
	if err != nil {
		return h.errorResult(ctx, err), nil
	}
	if input.DueInDays == nil {
		return h.errorResult(ctx, services.Invalid("No due_in_days provided")), nil
	}
	days := *input.DueInDays
	if days < 0 || days > maxDueInDays {
		return h.errorResult(ctx, services.Invalid("due_in_days must be between 0 and 3650")), nil
	}
	id, err := h.deps.Deals.CreateFollowUpTask(ctx, strings.TrimSpace(input.ContactID), subject, days)
	if err != nil {
		return h.errorResult(ctx, err), nil
	}
	return successResult(CreatedResult{Success: true, ID: id})
}

// HandleGetInvestor handles the get_investor tool call.
func (h *Handlers) HandleGetInvestor(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[InvestorRequest](req)
	if err != nil {
		return h.errorResult(ctx, services.Invalid(err.Error())), nil
	}
	pageID, err := required("page_id", input.PageID)
	if err != nil {
		return h.errorResult(ctx, err), nil
	}
	investor, err := h.deps.Investors.GetInvestor(ctx, pageID)
	if err != nil {
		return h.errorResult(ctx, err), nil
	}
	return successResult(investor)
}

func required(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", services.Invalid("No " + field + " provided")
	}
	return value, nil
}

func parseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	day, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, services.Invalid(field + " must be YYYY-MM-DD")
	}
	return day, nil
}

// errorCode names the failure class of an HTTP-equivalent status.
func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "INVALID_REQUEST"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusGatewayTimeout:
		return "TIMEOUT"
	case http.StatusBadGateway:
		return "UPSTREAM_ERROR"
	default:
		return "INTERNAL"
	}
}

// errorResult creates an MCP error result with IsError set. Internal
// failures get a generic message; the detail goes to the log.
func (h *Handlers) errorResult(ctx context.Context, err error) *mcp.CallToolResult {
	status := services.HTTPStatus(err)
	logger := logging.WithContext(ctx, h.logger)
	message := err.Error()
	var reqErr *services.RequestError
	if errors.As(err, &reqErr) {
		message = reqErr.Message
	}
	if status >= http.StatusInternalServerError {
		logging.ErrorWithContext(logger, "tool call failed", "mcp_tool_failed",
			logging.Error(err),
			logging.Int("status", status),
			logging.String(logging.FieldErrorHint, "check integration credentials and vendor status"),
		)
	} else {
		logger.Info("tool call rejected", logging.Int("status", status), logging.Error(err))
	}
	if status == http.StatusInternalServerError {
		message = "an internal error occurred"
	}
	payload := map[string]any{
		"error": map[string]any{
			"code":    errorCode(status),
			"message": message,
			"status":  status,
		},
	}
	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
