package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"dealflow/internal/callprep"
	"dealflow/internal/logging"
	"dealflow/internal/reminders"
	"dealflow/internal/services"
	"dealflow/internal/services/hubspot"
	"dealflow/internal/services/notion"
	"dealflow/internal/workflow"
)

// maxBodyBytes bounds request bodies; pasted notes are the largest input.
const maxBodyBytes = 1 << 20

// NotesWorkflow is the notes-to-CRM pipeline.
type NotesWorkflow interface {
	ProcessNotes(ctx context.Context, notes string) (workflow.Preview, error)
	CreateContact(ctx context.Context, req workflow.CreateContactRequest) (workflow.CreateContactResult, error)
	SelectContact(ctx context.Context, contactID string) (workflow.SelectContactResult, error)
	SearchContacts(ctx context.Context, query string) ([]hubspot.Contact, error)
	SearchInvestors(ctx context.Context, company string) ([]notion.Investor, error)
	ConfirmAndExecute(ctx context.Context, req workflow.ExecuteRequest) (workflow.ExecuteResult, error)
	Health() []workflow.IntegrationHealth
}

// ReminderRunner runs the daily scan on demand.
type ReminderRunner interface {
	RunDailyScan(ctx context.Context) reminders.Result
}

// CallPreparer builds call briefs.
type CallPreparer interface {
	Prepare(ctx context.Context, req callprep.Request) (callprep.Brief, error)
}

// Dependencies are the operations the routes dispatch to. Nil members make
// their routes answer 503.
type Dependencies struct {
	Notes     NotesWorkflow
	Reminders ReminderRunner
	CallPrep  CallPreparer
}

// Options configures the middleware chain.
type Options struct {
	// Token enables bearer authentication when non-empty.
	Token string
}

// Server routes HTTP requests to the workflows.
type Server struct {
	deps    Dependencies
	opts    Options
	logger  *slog.Logger
	handler http.Handler
}

// NewServer builds the route table and middleware chain.
func NewServer(deps Dependencies, opts Options, logger *slog.Logger) *Server {
	s := &Server{
		deps:   deps,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "api"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/process-notes", s.protected(s.handleProcessNotes))
	mux.HandleFunc("/api/create-contact", s.protected(s.handleCreateContact))
	mux.HandleFunc("/api/select-contact", s.protected(s.handleSelectContact))
	mux.HandleFunc("/api/search-contact", s.protected(s.handleSearchContact))
	mux.HandleFunc("/api/search-investor", s.protected(s.handleSearchInvestor))
	mux.HandleFunc("/api/confirm-and-execute", s.protected(s.handleConfirmAndExecute))
	mux.HandleFunc("/api/send-reminders", s.protected(s.handleSendReminders))
	mux.HandleFunc("/api/prepare-call", s.protected(s.handlePrepareCall))

	s.handler = requestIDMiddleware(recoverMiddleware(s.logger, accessLogMiddleware(s.logger, mux)))
	return s
}

// Handler returns the root handler including middleware.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) protected(next http.HandlerFunc) http.HandlerFunc {
	return authMiddleware(s.opts.Token, postOnly(s, next))
}

func postOnly(s *Server, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	resp := HealthResponse{Status: "ok"}
	if s.deps.Notes != nil {
		resp.Integrations = s.deps.Notes.Health()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProcessNotes(w http.ResponseWriter, r *http.Request) {
	if !s.requireNotes(w) {
		return
	}
	var req ProcessNotesRequest
	if err := decodeBody(r, &req); err != nil {
		s.fail(r.Context(), w, err)
		return
	}
	if req.Notes == nil {
		s.fail(r.Context(), w, services.Invalid("No notes provided"))
		return
	}
	preview, err := s.deps.Notes.ProcessNotes(r.Context(), *req.Notes)
	if err != nil {
		s.fail(r.Context(), w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ProcessNotesResponse{
		Success: true,
		Message: "Notes processed successfully",
		Preview: preview,
	})
}

func (s *Server) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	if !s.requireNotes(w) {
		return
	}
	var req workflow.CreateContactRequest
	if err := decodeBody(r, &req); err != nil {
		s.fail(r.Context(), w, err)
		return
	}
	result, err := s.deps.Notes.CreateContact(r.Context(), req)
	if err != nil {
		s.fail(r.Context(), w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSelectContact(w http.ResponseWriter, r *http.Request) {
	if !s.requireNotes(w) {
		return
	}
	var req SelectContactRequest
	if err := decodeBody(r, &req); err != nil {
		s.fail(r.Context(), w, err)
		return
	}
	if req.ContactID == nil {
		s.fail(r.Context(), w, services.Invalid("No contact_id provided"))
		return
	}
	result, err := s.deps.Notes.SelectContact(r.Context(), *req.ContactID)
	if err != nil {
		s.fail(r.Context(), w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSearchContact(w http.ResponseWriter, r *http.Request) {
	if !s.requireNotes(w) {
		return
	}
	var req SearchContactRequest
	if err := decodeBody(r, &req); err != nil {
		s.fail(r.Context(), w, err)
		return
	}
	if req.Query == nil {
		s.fail(r.Context(), w, services.Invalid("No query provided"))
		return
	}
	contacts, err := s.deps.Notes.SearchContacts(r.Context(), *req.Query)
	if err != nil {
		s.fail(r.Context(), w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, SearchContactResponse{Success: true, Contacts: contacts, Count: len(contacts)})
}

func (s *Server) handleSearchInvestor(w http.ResponseWriter, r *http.Request) {
	if !s.requireNotes(w) {
		return
	}
	var req SearchInvestorRequest
	if err := decodeBody(r, &req); err != nil {
		s.fail(r.Context(), w, err)
		return
	}
	if req.CompanyName == nil {
		s.fail(r.Context(), w, services.Invalid("No company_name provided"))
		return
	}
	investors, err := s.deps.Notes.SearchInvestors(r.Context(), *req.CompanyName)
	if err != nil {
		s.fail(r.Context(), w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, SearchInvestorResponse{Success: true, Investors: investors, Count: len(investors)})
}

func (s *Server) handleConfirmAndExecute(w http.ResponseWriter, r *http.Request) {
	if !s.requireNotes(w) {
		return
	}
	body, err := readBody(r)
	if err != nil {
		s.fail(r.Context(), w, err)
		return
	}
	req, err := workflow.NormalizeExecuteRequest(body)
	if err != nil {
		s.fail(r.Context(), w, err)
		return
	}
	result, err := s.deps.Notes.ConfirmAndExecute(r.Context(), req)
	if err != nil {
		s.fail(r.Context(), w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSendReminders(w http.ResponseWriter, r *http.Request) {
	if s.deps.Reminders == nil {
		s.writeError(w, http.StatusServiceUnavailable, "reminders not configured")
		return
	}
	// The scan outlives a dropped connection so the digest is not half sent.
	ctx := context.WithoutCancel(r.Context())
	result := s.deps.Reminders.RunDailyScan(ctx)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusInternalServerError
	}
	s.writeJSON(w, status, result)
}

func (s *Server) handlePrepareCall(w http.ResponseWriter, r *http.Request) {
	if s.deps.CallPrep == nil {
		s.writeError(w, http.StatusServiceUnavailable, "call preparation not configured")
		return
	}
	var req callprep.Request
	if err := decodeBody(r, &req); err != nil {
		s.fail(r.Context(), w, err)
		return
	}
	brief, err := s.deps.CallPrep.Prepare(r.Context(), req)
	if err != nil {
		s.fail(r.Context(), w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, brief)
}

func (s *Server) requireNotes(w http.ResponseWriter) bool {
	if s.deps.Notes == nil {
		s.writeError(w, http.StatusServiceUnavailable, "notes workflow not configured")
		return false
	}
	return true
}

func readBody(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, services.Invalid("Could not read request body")
	}
	return data, nil
}

// decodeBody unmarshals a JSON object body. An empty body or "null" is
// rejected as "No data provided".
func decodeBody(r *http.Request, dst any) error {
	data, err := readBody(r)
	if err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		if len(data) == 0 {
			return services.Invalid("No data provided")
		}
		return services.Invalid("Invalid JSON body")
	}
	if fields == nil {
		return services.Invalid("No data provided")
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return services.Invalid("Invalid request: " + err.Error())
	}
	return nil
}

func (s *Server) fail(ctx context.Context, w http.ResponseWriter, err error) {
	status := services.HTTPStatus(err)
	logger := logging.WithContext(ctx, s.logger)
	if status >= http.StatusInternalServerError {
		logging.ErrorWithContext(logger, "request failed", "api_request_failed",
			logging.Error(err),
			logging.Int("status", status),
			logging.String(logging.FieldErrorHint, "check integration credentials and vendor status"),
		)
	} else {
		logger.Info("request rejected", logging.Int("status", status), logging.Error(err))
	}
	var reqErr *services.RequestError
	message := err.Error()
	if errors.As(err, &reqErr) {
		message = reqErr.Message
	}
	s.writeError(w, status, message)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: message})
}
