package reminders

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"dealflow/internal/logging"
	"dealflow/internal/notifications"
	"dealflow/internal/services/hubspot"
	"dealflow/internal/services/notion"
)

var scanNow = time.Date(2024, 3, 14, 8, 0, 0, 0, time.UTC)

type fakeDeals struct {
	deals []hubspot.Deal
	err   error
}

func (f fakeDeals) DealsWithNextStep(context.Context) ([]hubspot.Deal, error) {
	return f.deals, f.err
}

type fakeTasks struct {
	tomorrow []hubspot.Task
	overdue  []hubspot.Task
	err      error

	mu    sync.Mutex
	start time.Time
	end   time.Time
}

func (f *fakeTasks) TasksDueBetween(_ context.Context, start, end time.Time) ([]hubspot.Task, error) {
	f.mu.Lock()
	f.start, f.end = start, end
	f.mu.Unlock()
	return f.tomorrow, f.err
}

func (f *fakeTasks) OverdueTasks(context.Context, time.Time) ([]hubspot.Task, error) {
	return f.overdue, f.err
}

type fakeTodos struct {
	configured bool
	tomorrow   []notion.Todo
	overdue    []notion.Todo
}

func (f fakeTodos) TodosConfigured() bool { return f.configured }

func (f fakeTodos) TodosDueOn(context.Context, time.Time) ([]notion.Todo, error) {
	return f.tomorrow, nil
}

func (f fakeTodos) OverdueTodos(context.Context, time.Time) ([]notion.Todo, error) {
	return f.overdue, nil
}

type fakeEnricher struct {
	contacts map[string][]hubspot.Contact
}

func (f fakeEnricher) DealContacts(_ context.Context, dealID string) ([]hubspot.Contact, error) {
	contacts, ok := f.contacts[dealID]
	if !ok {
		return nil, errors.New("association lookup failed")
	}
	return contacts, nil
}

func (fakeEnricher) StageLabel(_ context.Context, stageID, _ string) string {
	if stageID == "appointmentscheduled" {
		return "Appointment Scheduled"
	}
	return stageID
}

type fakeSender struct {
	name string
	err  error

	mu   sync.Mutex
	sent []notifications.Message
}

func (f *fakeSender) Send(_ context.Context, msg notifications.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.err
}

func (f *fakeSender) Name() string { return f.name }

type fakeRecorder struct {
	results []Result
}

func (f *fakeRecorder) RecordScan(_ context.Context, result Result) error {
	f.results = append(f.results, result)
	return nil
}

func newTestScanner(deps Dependencies) *Scanner {
	s := NewScanner(deps, Options{To: "me@example.com", From: "crm@example.com"}, logging.NewNop())
	s.SetClock(func() time.Time { return scanNow })
	s.newID = func() string { return "run-1" }
	return s
}

func TestRunDailyScanWithNothingDueSkipsSend(t *testing.T) {
	sender := &fakeSender{name: "resend"}
	recorder := &fakeRecorder{}
	s := newTestScanner(Dependencies{
		Deals:    fakeDeals{deals: []hubspot.Deal{{ID: "1", NextStepsDate: "2024-03-14"}}},
		Tasks:    &fakeTasks{},
		Sender:   sender,
		Recorder: recorder,
	})

	result := s.RunDailyScan(context.Background())
	want := Result{
		RunID:   "run-1",
		RanAt:   scanNow,
		Success: true,
		Message: "No deals, tasks, or to-dos due tomorrow or overdue",
	}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Fatalf("unexpected result (-want +got):\n%s", diff)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected no email, got %d", len(sender.sent))
	}
	if len(recorder.results) != 1 {
		t.Fatalf("expected result recorded once, got %d", len(recorder.results))
	}
}

func TestRunDailyScanSendsOneEmail(t *testing.T) {
	sender := &fakeSender{name: "resend"}
	tasks := &fakeTasks{
		overdue: []hubspot.Task{
			{ID: "t1", Subject: "Send deck", Timestamp: "2024-03-10T15:00:00Z"},
			{ID: "t2", Subject: "Due later today", Timestamp: "2024-03-14T17:00:00Z"},
		},
	}
	s := newTestScanner(Dependencies{
		Deals: fakeDeals{deals: []hubspot.Deal{
			{ID: "d1", Name: "Acme Series A", Stage: "appointmentscheduled", NextStepsDate: "1710460800000"},
			{ID: "d2", Name: "No date"},
		}},
		Tasks:    tasks,
		Todos:    fakeTodos{configured: true, tomorrow: []notion.Todo{{ID: "n1", TaskName: "Intro", DueDate: "2024-03-15"}}},
		Enricher: fakeEnricher{contacts: map[string][]hubspot.Contact{"d1": {{FirstName: "Ada", LastName: "Lovelace", Company: "Acme"}}}},
		Sender:   sender,
	})

	result := s.RunDailyScan(context.Background())
	if !result.Success || !result.EmailSent {
		t.Fatalf("expected a sent digest, got %+v", result)
	}
	if result.Message != "Reminder sent: 3 item(s) (2 tomorrow, 1 overdue)" {
		t.Fatalf("unexpected message %q", result.Message)
	}
	if result.DealsFound != 1 || result.TodosFound != 1 || result.OverdueTasksFound != 1 {
		t.Fatalf("unexpected counts %+v", result)
	}
	if result.Transport != "resend" {
		t.Fatalf("expected transport resend, got %q", result.Transport)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected exactly one email, got %d", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.To != "me@example.com" || msg.From != "crm@example.com" {
		t.Fatalf("unexpected addressing %+v", msg)
	}
	wantSubject := "📅 Daily Reminder for March 15, 2024 - ⚠️ 1 OVERDUE (1 Task(s)) | 2 Tomorrow (1 Deal(s), 1 To-Do(s))"
	if msg.Subject != wantSubject {
		t.Fatalf("subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.HTML, "Ada Lovelace at Acme") || !strings.Contains(msg.HTML, "Appointment Scheduled") {
		t.Fatalf("digest missing enrichment:\n%s", msg.HTML)
	}
	wantStart := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !tasks.start.Equal(wantStart) || !tasks.end.Equal(wantStart.Add(24*time.Hour)) {
		t.Fatalf("unexpected task window %v - %v", tasks.start, tasks.end)
	}
}

func TestRunDailyScanSourceFailureDegrades(t *testing.T) {
	sender := &fakeSender{name: "smtp"}
	s := newTestScanner(Dependencies{
		Deals:  fakeDeals{err: errors.New("hubspot down")},
		Tasks:  &fakeTasks{},
		Todos:  fakeTodos{configured: true, overdue: []notion.Todo{{ID: "n1", TaskName: "Follow up", DueDate: "2024-03-01"}}},
		Sender: sender,
	})

	result := s.RunDailyScan(context.Background())
	if !result.Success || !result.EmailSent {
		t.Fatalf("expected success despite source failure, got %+v", result)
	}
	if diff := cmp.Diff([]string{"deals: hubspot down"}, result.Errors); diff != "" {
		t.Fatalf("unexpected errors (-want +got):\n%s", diff)
	}
	if result.OverdueTodosFound != 1 {
		t.Fatalf("expected overdue to-do counted, got %+v", result)
	}
}

func TestRunDailyScanWithoutTransport(t *testing.T) {
	s := newTestScanner(Dependencies{
		Deals:  fakeDeals{deals: []hubspot.Deal{{ID: "d1", NextStepsDate: "2024-03-15"}}},
		Sender: notifications.NewSender(nil, nil),
	})
	result := s.RunDailyScan(context.Background())
	if result.Success || result.EmailSent {
		t.Fatalf("expected failure, got %+v", result)
	}
	if result.Message != "No email service configured" || result.Error != "No email service configured" {
		t.Fatalf("unexpected message %q / %q", result.Message, result.Error)
	}
	if result.DealsFound != 1 {
		t.Fatalf("counts should be reported, got %+v", result)
	}
}

func TestRunDailyScanSendFailure(t *testing.T) {
	sender := &fakeSender{name: "resend", err: errors.New("resend: status 422")}
	s := newTestScanner(Dependencies{
		Tasks:  &fakeTasks{tomorrow: []hubspot.Task{{ID: "t1", Timestamp: "2024-03-15T09:00:00Z"}}},
		Sender: sender,
	})
	result := s.RunDailyScan(context.Background())
	if result.Success || result.EmailSent {
		t.Fatalf("expected failure, got %+v", result)
	}
	if result.Message != "Failed to send email" || result.Error != "resend: status 422" {
		t.Fatalf("unexpected message %q / %q", result.Message, result.Error)
	}
}

func TestScanSkipsUnconfiguredTodos(t *testing.T) {
	s := newTestScanner(Dependencies{
		Todos: fakeTodos{configured: false, tomorrow: []notion.Todo{{ID: "n1", DueDate: "2024-03-15"}}},
	})
	report := s.Scan(context.Background())
	if report.Total() != 0 {
		t.Fatalf("expected unconfigured to-dos ignored, got %d items", report.Total())
	}
}

func TestEnrichmentFailureKeepsDeal(t *testing.T) {
	s := newTestScanner(Dependencies{
		Deals:    fakeDeals{deals: []hubspot.Deal{{ID: "d9", Stage: "custom", NextStepsDate: "2024-03-01"}}},
		Enricher: fakeEnricher{},
	})
	report := s.Scan(context.Background())
	if len(report.OverdueDeals) != 1 {
		t.Fatalf("expected overdue deal, got %+v", report.OverdueDeals)
	}
	entry := report.OverdueDeals[0]
	if len(entry.Contacts) != 0 || entry.Deal.StageLabel != "custom" {
		t.Fatalf("unexpected enrichment %+v", entry)
	}
}

type countingEnricher struct {
	fakeEnricher
	mu     sync.Mutex
	stages map[string]int
}

func (c *countingEnricher) StageLabel(ctx context.Context, stageID, pipeline string) string {
	c.mu.Lock()
	c.stages[pipeline+"/"+stageID]++
	c.mu.Unlock()
	return c.fakeEnricher.StageLabel(ctx, stageID, pipeline)
}

func TestStageLabelsResolvedOncePerScan(t *testing.T) {
	enricher := &countingEnricher{stages: map[string]int{}}
	s := newTestScanner(Dependencies{
		Deals: fakeDeals{deals: []hubspot.Deal{
			{ID: "d1", Stage: "appointmentscheduled", Pipeline: "default", NextStepsDate: "2024-03-15"},
			{ID: "d2", Stage: "appointmentscheduled", Pipeline: "default", NextStepsDate: "2024-03-01"},
			{ID: "d3", Stage: "appointmentscheduled", Pipeline: "fund", NextStepsDate: "2024-03-02"},
		}},
		Enricher: enricher,
	})

	report := s.Scan(context.Background())
	if len(report.DealsTomorrow) != 1 || len(report.OverdueDeals) != 2 {
		t.Fatalf("unexpected classification %+v", report)
	}
	for _, entry := range append(report.DealsTomorrow, report.OverdueDeals...) {
		if entry.Deal.StageLabel != "Appointment Scheduled" {
			t.Fatalf("deal %s label %q", entry.Deal.ID, entry.Deal.StageLabel)
		}
	}
	want := map[string]int{"default/appointmentscheduled": 1, "fund/appointmentscheduled": 1}
	if diff := cmp.Diff(want, enricher.stages); diff != "" {
		t.Fatalf("unexpected stage lookups (-want +got):\n%s", diff)
	}

	s.Scan(context.Background())
	if enricher.stages["default/appointmentscheduled"] != 2 {
		t.Fatalf("labels must be looked up again on the next scan, got %v", enricher.stages)
	}
}
