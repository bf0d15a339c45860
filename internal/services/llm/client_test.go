package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dealflow/internal/preferences"
	"dealflow/internal/services"
)

func writeText(t *testing.T, w http.ResponseWriter, text string) {
	t.Helper()
	payload := map[string]any{
		"content":     []any{map[string]any{"type": "text", "text": text}},
		"stop_reason": "end_turn",
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func TestClientHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test" {
			t.Errorf("missing api key header")
		}
		if r.Header.Get("anthropic-version") != "2023-06-01" {
			t.Errorf("unexpected anthropic-version %q", r.Header.Get("anthropic-version"))
		}
		var body messagesRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body.Model != "demo-model" || body.MaxTokens != 32 {
			t.Errorf("unexpected request %+v", body)
		}
		writeText(t, w, `{"ok":true}`)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckCodeFence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeText(t, w, "```json\n{\"ok\":true}\n```")
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"type": "error", "error": map[string]string{"message": "invalid x-api-key"}})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL})
	err := client.HealthCheck(context.Background())
	if err == nil {
		t.Fatal("expected health check to fail")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Anthropic API error: 401") {
		t.Fatalf("unexpected error text %q", err.Error())
	}
}

func TestClientCompleteRequiresKey(t *testing.T) {
	client := NewClient(Config{})
	if client.Configured() {
		t.Fatal("expected unconfigured client")
	}
	_, err := client.Complete(context.Background(), Request{Prompt: "hi"})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestClientCompleteJoinsTextBlocks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []any{
				map[string]any{"type": "text", "text": "## Engagement"},
				map[string]any{"type": "tool_use", "text": "ignored"},
				map[string]any{"type": "text", "text": " Summary"},
			},
		})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
	got, err := client.Complete(context.Background(), Request{Prompt: "brief", Model: "other", MaxTokens: 3000})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if got != "## Engagement Summary" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestClientRetriesOnHTTP429(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limited"})
			return
		}
		writeText(t, w, `{"ok":true}`)
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
		WithRetryBackoff(0, 10*time.Second),
		WithRetryMaxAttempts(5),
	)
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("expected single sleep of 1s, got %v", slept)
	}
}

func TestClientRetriesOnEmptyContentThenSucceeds(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		text := ""
		if calls >= 3 {
			text = `{"ok":true}`
		}
		writeText(t, w, text)
	}))
	defer server.Close()

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL},
		WithRetryBackoff(0, 0),
		WithSleeper(func(time.Duration) {}),
		WithRetryMaxAttempts(5),
	)
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestClientEmptyContentHasSnippet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeText(t, w, "")
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL}, WithRetryMaxAttempts(1))
	_, err := client.Complete(context.Background(), Request{Prompt: "x"})
	var empty *emptyContentError
	if !errors.As(err, &empty) {
		t.Fatalf("expected empty content error, got %v", err)
	}
	if empty.StopReason != "end_turn" || !strings.Contains(empty.Snippet, "content") {
		t.Fatalf("unexpected empty content details %+v", empty)
	}
}

func TestParseNotesValidatesAndDefaults(t *testing.T) {
	now := time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body messagesRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		prompt := body.Messages[0].Content
		if !strings.Contains(prompt, "Due Date: 2024-03-15") {
			t.Errorf("expected tomorrow in prompt")
		}
		if !strings.Contains(prompt, "Check Size: $50M+") {
			t.Errorf("expected vocabulary in prompt")
		}
		if body.Model != notesModel {
			t.Errorf("unexpected model %q", body.Model)
		}
		writeText(t, w, "```json\n"+`{
			"contact": {"company_name": "Waypoint Capital Partners", "person_name": "Jane Doe", "email": ""},
			"deal": {"deal_name": "Acme", "suggested_stage": "qualifiedtobuy"},
			"summary": ["Discussed fund", " "],
			"preferences": {"Check Size": ["$25M-$50M", "$999M"], "When to Call": "Any time", "Preference Notes": "Prefers founders"},
			"todos": [{"task_name": "Send deck", "next_step": "Email PDF"}, {"task_name": "", "due_date": "2024-04-01"}]
		}`+"\n```")
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
	parsed, err := client.ParseNotes(context.Background(), "call notes", ParseOptions{Preferences: true, Todos: true, Now: now}, nil)
	if err != nil {
		t.Fatalf("ParseNotes returned error: %v", err)
	}
	if parsed.Contact.CompanyName != "Waypoint Capital Partners" {
		t.Fatalf("unexpected contact %+v", parsed.Contact)
	}
	if len(parsed.Summary) != 1 {
		t.Fatalf("expected blank bullets dropped, got %v", parsed.Summary)
	}
	if got := parsed.Preferences.Values(preferences.CheckSize); len(got) != 1 || got[0] != "$25M - $50M" {
		t.Fatalf("unexpected check size %v", got)
	}
	if parsed.Preferences.Single[preferences.WhenToCall] != "Any time" {
		t.Fatalf("unexpected when to call %v", parsed.Preferences.Single)
	}
	if len(parsed.Todos) != 1 || parsed.Todos[0].DueDate != "2024-03-15" {
		t.Fatalf("unexpected todos %+v", parsed.Todos)
	}
}

func TestNotesPromptOmitsDisabledSections(t *testing.T) {
	prompt := NotesPrompt("notes", ParseOptions{}, nil)
	if strings.Contains(prompt, "INVESTOR PREFERENCES") || strings.Contains(prompt, "TO-DO ITEMS") {
		t.Fatalf("expected optional sections omitted:\n%s", prompt)
	}
	if !strings.HasSuffix(prompt, "MEETING NOTES:\nnotes") {
		t.Fatalf("expected notes at the end of the prompt")
	}
}

func TestDecodeLLMJSONExtractsEmbeddedObject(t *testing.T) {
	var out struct {
		OK bool `json:"ok"`
	}
	if err := DecodeLLMJSON("Here you go: {\"ok\":true} thanks", &out); err != nil {
		t.Fatalf("DecodeLLMJSON returned error: %v", err)
	}
	if !out.OK {
		t.Fatal("expected ok")
	}
	if err := DecodeLLMJSON("   ", &out); err == nil {
		t.Fatal("expected error for empty payload")
	}
}
