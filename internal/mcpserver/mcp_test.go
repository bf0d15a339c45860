package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealflow/internal/callprep"
	"dealflow/internal/logging"
	"dealflow/internal/reminders"
	"dealflow/internal/services"
	"dealflow/internal/services/hubspot"
	"dealflow/internal/services/notion"
	"dealflow/internal/workflow"
)

type stubNotes struct {
	lastNotes   string
	lastQuery   string
	lastExecute workflow.ExecuteRequest
	err         error
}

func (s *stubNotes) ProcessNotes(_ context.Context, notes string) (workflow.Preview, error) {
	s.lastNotes = notes
	return workflow.Preview{RawNotes: notes, Summary: []string{"Discussed terms"}}, s.err
}

func (s *stubNotes) SearchContacts(_ context.Context, query string) ([]hubspot.Contact, error) {
	s.lastQuery = query
	if s.err != nil {
		return nil, s.err
	}
	return []hubspot.Contact{{ID: "1", FirstName: "Ada"}, {ID: "2", FirstName: "Grace"}}, nil
}

func (s *stubNotes) SearchInvestors(context.Context, string) ([]notion.Investor, error) {
	return nil, s.err
}

func (s *stubNotes) ConfirmAndExecute(_ context.Context, req workflow.ExecuteRequest) (workflow.ExecuteResult, error) {
	s.lastExecute = req
	return workflow.ExecuteResult{Success: true, Message: "done"}, s.err
}

type stubReminders struct{ result reminders.Result }

func (s stubReminders) RunDailyScan(context.Context) reminders.Result { return s.result }

type stubCallPrep struct{ last callprep.Request }

func (s *stubCallPrep) Prepare(_ context.Context, req callprep.Request) (callprep.Brief, error) {
	s.last = req
	if req.ContactID == "" {
		return callprep.Brief{}, services.Invalid("contact_id is required")
	}
	return callprep.Brief{BriefText: "brief for " + req.ContactID}, nil
}

type stubDeals struct {
	updatedID string
	update    hubspot.DealUpdate
	created   hubspot.NewDeal
	task      struct {
		contactID string
		subject   string
		days      int
	}
	err error
}

func (s *stubDeals) ContactDeals(_ context.Context, contactID string) ([]hubspot.Deal, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []hubspot.Deal{{ID: "d1", Name: contactID + " fund"}}, nil
}

func (s *stubDeals) GetDeal(_ context.Context, dealID string) (hubspot.Deal, error) {
	if s.err != nil {
		return hubspot.Deal{}, s.err
	}
	return hubspot.Deal{ID: dealID, Name: "Series A"}, nil
}

func (s *stubDeals) SearchDeals(context.Context, string) ([]hubspot.Deal, error) {
	return nil, s.err
}

func (s *stubDeals) UpdateDeal(_ context.Context, dealID string, update hubspot.DealUpdate) error {
	s.updatedID = dealID
	s.update = update
	return s.err
}

func (s *stubDeals) CreateDeal(_ context.Context, deal hubspot.NewDeal) (string, error) {
	s.created = deal
	return "d9", s.err
}

func (s *stubDeals) CreateFollowUpTask(_ context.Context, contactID, subject string, dueInDays int) (string, error) {
	s.task.contactID = contactID
	s.task.subject = subject
	s.task.days = dueInDays
	return "t1", s.err
}

type stubInvestors struct{}

func (stubInvestors) GetInvestor(_ context.Context, pageID string) (notion.Investor, error) {
	if pageID == "missing" {
		return notion.Investor{}, services.Wrap(services.ErrNotFound, "notion", "get page", "page not found", nil)
	}
	return notion.Investor{ID: pageID, Name: "Acme Capital"}, nil
}

func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return text.Text
}

func decodeResult[T any](t *testing.T, result *mcp.CallToolResult) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &out))
	return out
}

type errorPayload struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Status  int    `json:"status"`
	} `json:"error"`
}

func newTestHandlers(deps Dependencies) *Handlers {
	return NewHandlers(deps, logging.NewNop())
}

func TestHandleProcessNotes(t *testing.T) {
	notes := &stubNotes{}
	h := newTestHandlers(Dependencies{Notes: notes})

	result, err := h.HandleProcessNotes(context.Background(), makeRequest(map[string]any{"notes": "Met Ada at Acme"}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	preview := decodeResult[workflow.Preview](t, result)
	assert.Equal(t, "Met Ada at Acme", preview.RawNotes)
	assert.Equal(t, "Met Ada at Acme", notes.lastNotes)

	result, err = h.HandleProcessNotes(context.Background(), makeRequest(map[string]any{}))
	require.NoError(t, err)
	require.True(t, result.IsError)
	payload := decodeResult[errorPayload](t, result)
	assert.Equal(t, "INVALID_REQUEST", payload.Error.Code)
	assert.Equal(t, "No notes provided", payload.Error.Message)
	assert.Equal(t, 400, payload.Error.Status)
}

func TestHandleSearchContact(t *testing.T) {
	notes := &stubNotes{}
	h := newTestHandlers(Dependencies{Notes: notes})

	result, err := h.HandleSearchContact(context.Background(), makeRequest(map[string]any{"query": "ada@acme.com"}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	list := decodeResult[ListResult[hubspot.Contact]](t, result)
	assert.Equal(t, 2, list.Count)
	assert.Len(t, list.Items, 2)
	assert.Equal(t, "ada@acme.com", notes.lastQuery)

	notes.err = services.Wrap(services.ErrExternalTool, "hubspot", "search contacts", "request failed", nil)
	result, err = h.HandleSearchContact(context.Background(), makeRequest(map[string]any{"query": "ada"}))
	require.NoError(t, err)
	require.True(t, result.IsError)
	payload := decodeResult[errorPayload](t, result)
	assert.Equal(t, "UPSTREAM_ERROR", payload.Error.Code)
	assert.Equal(t, 502, payload.Error.Status)
}

func TestHandleSearchInvestorEmptyListIsNotNull(t *testing.T) {
	h := newTestHandlers(Dependencies{Notes: &stubNotes{}})

	result, err := h.HandleSearchInvestor(context.Background(), makeRequest(map[string]any{"company_name": "Acme"}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), `"items":[]`)

	result, err = h.HandleSearchInvestor(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	require.True(t, result.IsError)
	assert.Equal(t, "No company_name provided", decodeResult[errorPayload](t, result).Error.Message)
}

func TestHandleConfirmAndExecuteAcceptsNestedShape(t *testing.T) {
	notes := &stubNotes{}
	h := newTestHandlers(Dependencies{Notes: notes})

	args := map[string]any{
		"contact": map[string]any{"id": " 42 ", "name": "Ada Lovelace", "company_name": "Acme"},
		"notes":   map[string]any{"raw": "raw text", "summary": []any{"one"}},
		"preferences": map[string]any{
			"Industry": []any{"Technology"},
		},
		"options": map[string]any{"skip_hubspot": true},
	}
	result, err := h.HandleConfirmAndExecute(context.Background(), makeRequest(args))
	require.NoError(t, err)
	require.False(t, result.IsError)

	got := notes.lastExecute
	assert.Equal(t, "42", got.ContactID)
	assert.Equal(t, "Acme", got.CompanyName)
	assert.Equal(t, "raw text", got.RawNotes)
	assert.True(t, got.SkipHubSpot)
	assert.False(t, got.SkipInvestorPrefs)
}

func TestHandleConfirmAndExecuteRejectsEmptyArguments(t *testing.T) {
	h := newTestHandlers(Dependencies{Notes: &stubNotes{}})

	result, err := h.HandleConfirmAndExecute(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	require.True(t, result.IsError)
	assert.Equal(t, "No data provided", decodeResult[errorPayload](t, result).Error.Message)
}

func TestHandleSendReminders(t *testing.T) {
	ok := newTestHandlers(Dependencies{Reminders: stubReminders{result: reminders.Result{RunID: "r1", Success: true, EmailSent: true}}})
	result, err := ok.HandleSendReminders(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "r1", decodeResult[reminders.Result](t, result).RunID)

	failed := newTestHandlers(Dependencies{Reminders: stubReminders{result: reminders.Result{RunID: "r2", Error: "smtp down"}}})
	result, err = failed.HandleSendReminders(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, "smtp down", decodeResult[reminders.Result](t, result).Error)
}

func TestHandlePrepareCall(t *testing.T) {
	prep := &stubCallPrep{}
	h := newTestHandlers(Dependencies{CallPrep: prep})

	result, err := h.HandlePrepareCall(context.Background(), makeRequest(map[string]any{"contact_id": "7", "company": "Acme"}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Equal(t, "brief for 7", decodeResult[callprep.Brief](t, result).BriefText)
	assert.Equal(t, "Acme", prep.last.Company)

	result, err = h.HandlePrepareCall(context.Background(), makeRequest(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestDealDeskTools(t *testing.T) {
	deals := &stubDeals{}
	h := newTestHandlers(Dependencies{Deals: deals})
	ctx := context.Background()

	result, err := h.HandleContactDeals(ctx, makeRequest(map[string]any{"contact_id": "5"}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Equal(t, 1, decodeResult[ListResult[hubspot.Deal]](t, result).Count)

	result, err = h.HandleGetDeal(ctx, makeRequest(map[string]any{"deal_id": "d1"}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Equal(t, "Series A", decodeResult[hubspot.Deal](t, result).Name)

	result, err = h.HandleSearchDeals(ctx, makeRequest(map[string]any{"name": "  "}))
	require.NoError(t, err)
	require.True(t, result.IsError)
	assert.Equal(t, "No name provided", decodeResult[errorPayload](t, result).Error.Message)

	result, err = h.HandleUpdateDeal(ctx, makeRequest(map[string]any{
		"deal_id":         "d1",
		"next_step":       "Send DDQ",
		"next_steps_date": "2024-03-15",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Equal(t, "d1", deals.updatedID)
	assert.Equal(t, "Send DDQ", deals.update.NextStep)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), deals.update.NextStepsDate)

	result, err = h.HandleCreateDeal(ctx, makeRequest(map[string]any{"name": "Fund II", "contact_id": "5"}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	created := decodeResult[CreatedResult](t, result)
	assert.Equal(t, "d9", created.ID)
	assert.Equal(t, "5", deals.created.ContactID)

	result, err = h.HandleCreateFollowUpTask(ctx, makeRequest(map[string]any{"subject": "Check in", "due_in_days": 30, "contact_id": "5"}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Equal(t, 30, deals.task.days)
	assert.Equal(t, "Check in", deals.task.subject)
}

func TestDealDeskValidation(t *testing.T) {
	h := newTestHandlers(Dependencies{Deals: &stubDeals{}})
	ctx := context.Background()

	cases := []struct {
		name    string
		call    func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args    map[string]any
		message string
	}{
		{"update without fields", h.HandleUpdateDeal, map[string]any{"deal_id": "d1"}, "No deal fields provided"},
		{"update bad date", h.HandleUpdateDeal, map[string]any{"deal_id": "d1", "next_steps_date": "03/15/2024"}, "next_steps_date must be YYYY-MM-DD"},
		{"update without id", h.HandleUpdateDeal, map[string]any{"stage": "closedwon"}, "No deal_id provided"},
		{"create without name", h.HandleCreateDeal, map[string]any{"stage": "qualified"}, "No name provided"},
		{"task without days", h.HandleCreateFollowUpTask, map[string]any{"subject": "x"}, "No due_in_days provided"},
		{"task negative days", h.HandleCreateFollowUpTask, map[string]any{"subject": "x", "due_in_days": -1}, "due_in_days must be between 0 and 3650"},
		{"task without subject", h.HandleCreateFollowUpTask, map[string]any{"due_in_days": 3}, "No subject provided"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := tc.call(ctx, makeRequest(tc.args))
			require.NoError(t, err)
			require.True(t, result.IsError)
			payload := decodeResult[errorPayload](t, result)
			assert.Equal(t, tc.message, payload.Error.Message)
			assert.Equal(t, 400, payload.Error.Status)
		})
	}
}

func TestHandleGetInvestor(t *testing.T) {
	h := newTestHandlers(Dependencies{Investors: stubInvestors{}})

	result, err := h.HandleGetInvestor(context.Background(), makeRequest(map[string]any{"page_id": "p1"}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Equal(t, "Acme Capital", decodeResult[notion.Investor](t, result).Name)

	result, err = h.HandleGetInvestor(context.Background(), makeRequest(map[string]any{"page_id": "missing"}))
	require.NoError(t, err)
	require.True(t, result.IsError)
	assert.Equal(t, "NOT_FOUND", decodeResult[errorPayload](t, result).Error.Code)
}

func TestErrorResultHidesInternalDetails(t *testing.T) {
	h := newTestHandlers(Dependencies{})
	r := h.errorResult(context.Background(), fmt.Errorf("open /tmp/secret.db: %w", errors.New("permission denied")))
	require.True(t, r.IsError)

	payload := decodeResult[errorPayload](t, r)
	assert.Equal(t, "INTERNAL", payload.Error.Code)
	assert.Equal(t, "an internal error occurred", payload.Error.Message)
	assert.NotContains(t, resultText(t, r), "secret.db")
}

func TestErrorResultKeepsTimeoutMessage(t *testing.T) {
	h := newTestHandlers(Dependencies{})
	err := services.Wrap(services.ErrTimeout, "notion", "query", "request timed out", nil)
	payload := decodeResult[errorPayload](t, h.errorResult(context.Background(), err))
	assert.Equal(t, "TIMEOUT", payload.Error.Code)
	assert.Equal(t, 504, payload.Error.Status)
	assert.Contains(t, payload.Error.Message, "request timed out")
}

func TestServerRegistration(t *testing.T) {
	deps := Dependencies{
		Notes:     &stubNotes{},
		Reminders: stubReminders{},
		CallPrep:  &stubCallPrep{},
		Deals:     &stubDeals{},
		Investors: stubInvestors{},
	}
	s := NewServer(deps, "test", logging.NewNop())
	tools := s.ListTools()
	require.Len(t, tools, len(AllToolNames()))
	for _, name := range AllToolNames() {
		assert.Contains(t, tools, name)
	}
}

func TestServerRegistrationSkipsUnconfiguredTools(t *testing.T) {
	s := NewServer(Dependencies{Notes: &stubNotes{}}, "test", logging.NewNop())
	tools := s.ListTools()

	assert.Len(t, tools, 4)
	for _, name := range []string{"process_notes", "search_contact", "search_investor", "confirm_and_execute"} {
		assert.Contains(t, tools, name)
	}
	for _, name := range []string{"send_reminders", "prepare_call", "update_deal", "get_investor"} {
		assert.NotContains(t, tools, name)
	}
	assert.Empty(t, EnabledToolNames(Dependencies{}))
}

func TestAllToolNamesSorted(t *testing.T) {
	names := AllToolNames()
	require.Len(t, names, len(toolRegistry))
	assert.IsIncreasing(t, names)
	for _, name := range names {
		assert.Equal(t, name, toolRegistry[name].def.Name)
	}
}
