package reminders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"dealflow/internal/logging"
	"dealflow/internal/notifications"
	"dealflow/internal/services"
	"dealflow/internal/services/hubspot"
	"dealflow/internal/services/notion"
)

const (
	msgNothingDue   = "No deals, tasks, or to-dos due tomorrow or overdue"
	msgNoTransport  = "No email service configured"
	msgSendFailed   = "Failed to send email"
	enrichmentLimit = 4
	dayLength       = 24 * time.Hour
	scanOperation   = "daily_scan"
)

// DealSource lists deals that carry a next-step date.
type DealSource interface {
	DealsWithNextStep(ctx context.Context) ([]hubspot.Deal, error)
}

// TaskSource lists open CRM tasks.
type TaskSource interface {
	TasksDueBetween(ctx context.Context, start, end time.Time) ([]hubspot.Task, error)
	OverdueTasks(ctx context.Context, now time.Time) ([]hubspot.Task, error)
}

// TodoSource lists open knowledge-base to-dos. It is optional.
type TodoSource interface {
	TodosConfigured() bool
	TodosDueOn(ctx context.Context, day time.Time) ([]notion.Todo, error)
	OverdueTodos(ctx context.Context, today time.Time) ([]notion.Todo, error)
}

// Enricher resolves the per-deal context shown in the digest.
type Enricher interface {
	DealContacts(ctx context.Context, dealID string) ([]hubspot.Contact, error)
	StageLabel(ctx context.Context, stageID, pipeline string) string
}

// Recorder persists scan results.
type Recorder interface {
	RecordScan(ctx context.Context, result Result) error
}

// Dependencies wires the scanner's collaborators. Todos and Recorder may be nil.
type Dependencies struct {
	Deals    DealSource
	Tasks    TaskSource
	Todos    TodoSource
	Enricher Enricher
	Sender   notifications.Sender
	Recorder Recorder
}

// Options holds the digest addressing and link settings.
type Options struct {
	To    string
	From  string
	Links Links
}

// Result is the outcome of one RunDailyScan.
type Result struct {
	RunID             string    `json:"run_id"`
	RanAt             time.Time `json:"ran_at"`
	Success           bool      `json:"success"`
	EmailSent         bool      `json:"email_sent"`
	Message           string    `json:"message"`
	Error             string    `json:"error,omitempty"`
	Transport         string    `json:"transport,omitempty"`
	DealsFound        int       `json:"deals_found"`
	TasksFound        int       `json:"tasks_found"`
	TodosFound        int       `json:"todos_found"`
	OverdueDealsFound int       `json:"overdue_deals_found"`
	OverdueTasksFound int       `json:"overdue_tasks_found"`
	OverdueTodosFound int       `json:"overdue_todos_found"`
	Errors            []string  `json:"errors,omitempty"`
}

// Scanner classifies due and overdue obligations and delivers the digest.
type Scanner struct {
	deps   Dependencies
	opts   Options
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// NewScanner builds a scanner.
func NewScanner(deps Dependencies, opts Options, logger *slog.Logger) *Scanner {
	return &Scanner{
		deps:   deps,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "reminders"),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// SetClock overrides the scanner's time source.
func (s *Scanner) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Scan fetches every source, classifies the items, and enriches the deals.
// Source failures degrade that source to empty and are listed in
// Report.Errors; Scan itself never fails.
func (s *Scanner) Scan(ctx context.Context) Report {
	now := s.now().UTC()
	report := Report{Now: now, Tomorrow: now.Add(dayLength)}
	logger := logging.WithContext(ctx, s.logger)

	start := StartOfDay(report.Tomorrow)
	var (
		deals                       []hubspot.Deal
		tasksTomorrow, tasksOverdue []hubspot.Task
		todosTomorrow, todosOverdue []notion.Todo
	)
	// One slot per source keeps Errors in a stable order.
	failures := make([]error, 5)

	var g errgroup.Group
	g.Go(func() error {
		if s.deps.Deals == nil {
			return nil
		}
		deals, failures[0] = s.deps.Deals.DealsWithNextStep(ctx)
		return nil
	})
	g.Go(func() error {
		if s.deps.Tasks == nil {
			return nil
		}
		tasksTomorrow, failures[1] = s.deps.Tasks.TasksDueBetween(ctx, start, start.Add(dayLength))
		return nil
	})
	g.Go(func() error {
		if s.deps.Tasks == nil {
			return nil
		}
		tasksOverdue, failures[2] = s.deps.Tasks.OverdueTasks(ctx, now)
		return nil
	})
	todosEnabled := s.deps.Todos != nil && s.deps.Todos.TodosConfigured()
	if todosEnabled {
		g.Go(func() error {
			todosTomorrow, failures[3] = s.deps.Todos.TodosDueOn(ctx, report.Tomorrow)
			return nil
		})
		g.Go(func() error {
			todosOverdue, failures[4] = s.deps.Todos.OverdueTodos(ctx, now)
			return nil
		})
	} else {
		logger.Info("skipping notion to-dos", logging.String("reason", "not configured"))
	}
	_ = g.Wait()

	sources := []string{"deals", "tasks due tomorrow", "overdue tasks", "to-dos due tomorrow", "overdue to-dos"}
	for idx, err := range failures {
		if err == nil {
			continue
		}
		logging.WarnWithContext(logger, "source fetch failed; continuing without it", "scan_source_failed",
			logging.String("source", sources[idx]),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the vendor credentials and network access"),
			logging.String(logging.FieldImpact, "items from this source are missing from the digest"),
		)
		report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", sources[idx], err))
	}

	s.logUndated(logger, "deals", len(Undated(deals)))
	s.logUndated(logger, "tasks", len(Undated(tasksTomorrow))+len(Undated(tasksOverdue)))
	s.logUndated(logger, "to-dos", len(Undated(todosTomorrow))+len(Undated(todosOverdue)))

	dueDeals := DueOn(deals, report.Tomorrow)
	overdueDeals := Overdue(deals, now)
	report.TasksTomorrow = DueOn(tasksTomorrow, report.Tomorrow)
	report.OverdueTasks = Overdue(tasksOverdue, now)
	report.TodosTomorrow = DueOn(todosTomorrow, report.Tomorrow)
	report.OverdueTodos = Overdue(todosOverdue, now)

	if len(dueDeals)+len(overdueDeals) > 0 {
		labels := s.stageLabels(ctx, dueDeals, overdueDeals)
		report.DealsTomorrow = s.enrich(ctx, logger, dueDeals, labels)
		report.OverdueDeals = s.enrich(ctx, logger, overdueDeals, labels)
	}

	logger.Info("scan classified",
		logging.Int("deals_tomorrow", len(report.DealsTomorrow)),
		logging.Int("tasks_tomorrow", len(report.TasksTomorrow)),
		logging.Int("todos_tomorrow", len(report.TodosTomorrow)),
		logging.Int("deals_overdue", len(report.OverdueDeals)),
		logging.Int("tasks_overdue", len(report.OverdueTasks)),
		logging.Int("todos_overdue", len(report.OverdueTodos)),
	)
	return report
}

func (s *Scanner) logUndated(logger *slog.Logger, source string, count int) {
	if count == 0 {
		return
	}
	logger.Debug("items without a due date skipped",
		logging.String("source", source),
		logging.Int("count", count),
		logging.String(logging.FieldEventType, "undated_items_skipped"),
	)
}

type stageKey struct {
	pipeline string
	stage    string
}

// stageLabels resolves each distinct stage once for the current scan.
func (s *Scanner) stageLabels(ctx context.Context, lists ...[]hubspot.Deal) map[stageKey]string {
	labels := map[stageKey]string{}
	if s.deps.Enricher == nil {
		return labels
	}
	for _, deals := range lists {
		for _, deal := range deals {
			key := stageKey{pipeline: deal.Pipeline, stage: deal.Stage}
			if _, ok := labels[key]; ok {
				continue
			}
			labels[key] = s.deps.Enricher.StageLabel(ctx, deal.Stage, deal.Pipeline)
		}
	}
	return labels
}

// enrich attaches contacts and stage labels. Failures leave the deal with
// no contacts and its raw stage id.
func (s *Scanner) enrich(ctx context.Context, logger *slog.Logger, deals []hubspot.Deal, labels map[stageKey]string) []DealEntry {
	entries := make([]DealEntry, len(deals))
	for idx, deal := range deals {
		entries[idx] = DealEntry{Deal: deal}
		if label, ok := labels[stageKey{pipeline: deal.Pipeline, stage: deal.Stage}]; ok {
			entries[idx].Deal.StageLabel = label
		}
	}
	if s.deps.Enricher == nil {
		return entries
	}
	var g errgroup.Group
	g.SetLimit(enrichmentLimit)
	for idx := range entries {
		g.Go(func() error {
			entry := &entries[idx]
			contacts, err := s.deps.Enricher.DealContacts(ctx, entry.Deal.ID)
			if err != nil {
				logger.Debug("deal contacts unavailable",
					logging.String("deal_id", entry.Deal.ID),
					logging.Error(err),
				)
				return nil
			}
			for _, contact := range contacts {
				entry.Contacts = append(entry.Contacts, contactLine(contact))
			}
			return nil
		})
	}
	_ = g.Wait()
	return entries
}

// Preview scans and renders the digest without sending it.
func (s *Scanner) Preview(ctx context.Context) (Report, string, string, error) {
	report := s.Scan(ctx)
	if report.Total() == 0 {
		return report, "", "", nil
	}
	html, err := RenderDigest(report, s.opts.Links)
	if err != nil {
		return report, "", "", err
	}
	return report, Subject(report), html, nil
}

// RunDailyScan scans, then emails the digest when anything is due tomorrow
// or overdue. Only delivery problems set Success to false.
func (s *Scanner) RunDailyScan(ctx context.Context) Result {
	runID := s.newID()
	ctx = services.WithOperation(services.WithRunID(ctx, runID), scanOperation)
	logger := logging.WithContext(ctx, s.logger)
	started := s.now()
	logger.Info("daily reminder scan started")

	report := s.Scan(ctx)
	result := Result{
		RunID:  runID,
		RanAt:  started.UTC(),
		Errors: report.Errors,
	}

	if report.Total() == 0 {
		result.Success = true
		result.Message = msgNothingDue
		s.finish(ctx, logger, result, started)
		return result
	}

	result.DealsFound = len(report.DealsTomorrow)
	result.TasksFound = len(report.TasksTomorrow)
	result.TodosFound = len(report.TodosTomorrow)
	result.OverdueDealsFound = len(report.OverdueDeals)
	result.OverdueTasksFound = len(report.OverdueTasks)
	result.OverdueTodosFound = len(report.OverdueTodos)

	html, err := RenderDigest(report, s.opts.Links)
	if err != nil {
		result.Message = msgSendFailed
		result.Error = err.Error()
		s.finish(ctx, logger, result, started)
		return result
	}

	sender := s.deps.Sender
	if !notifications.Configured(sender) {
		logging.ErrorWithContext(logger, "no email service configured", "email_not_configured",
			logging.String(logging.FieldErrorHint, "set email.resend_api_key or the email.smtp_* settings"),
		)
		result.Message = msgNoTransport
		result.Error = msgNoTransport
		s.finish(ctx, logger, result, started)
		return result
	}
	result.Transport = sender.Name()

	msg := notifications.Message{
		To:      s.opts.To,
		From:    s.opts.From,
		Subject: Subject(report),
		HTML:    html,
	}
	if err := sender.Send(ctx, msg); err != nil {
		logging.ErrorWithContext(logger, "digest delivery failed", "email_send_failed",
			logging.String("transport", sender.Name()),
			logging.Error(err),
		)
		result.Message = msgSendFailed
		result.Error = err.Error()
		if errors.Is(err, notifications.ErrNotConfigured) {
			result.Message = msgNoTransport
		}
		s.finish(ctx, logger, result, started)
		return result
	}

	result.Success = true
	result.EmailSent = true
	result.Message = fmt.Sprintf("Reminder sent: %d item(s) (%d tomorrow, %d overdue)",
		report.Total(), report.TotalTomorrow(), report.TotalOverdue())
	s.finish(ctx, logger, result, started)
	return result
}

func (s *Scanner) finish(ctx context.Context, logger *slog.Logger, result Result, started time.Time) {
	logger.Info("daily reminder scan finished",
		logging.Bool("success", result.Success),
		logging.Bool("email_sent", result.EmailSent),
		logging.String("message", result.Message),
		logging.Duration("elapsed", s.now().Sub(started)),
	)
	if s.deps.Recorder == nil {
		return
	}
	if err := s.deps.Recorder.RecordScan(ctx, result); err != nil {
		logging.WarnWithContext(logger, "scan history write failed", "scan_history_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the data_dir permissions"),
			logging.String(logging.FieldImpact, "this run is missing from 'dealflow history'"),
		)
	}
}
