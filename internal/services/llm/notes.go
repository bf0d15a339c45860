package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"dealflow/internal/preferences"
)

const notesModel = "claude-sonnet-4-5-20250929"

// dealStages are the pipeline stage ids the model may suggest.
var dealStages = []string{
	"appointmentscheduled", "qualifiedtobuy", "presentationscheduled",
	"decisionmakerboughtin", "contractsent", "1110891580",
	"closedwon", "closedlost", "1173780286",
}

// ParseOptions toggles the optional extraction sections.
type ParseOptions struct {
	Preferences bool
	Todos       bool
	// Now anchors the default due date; zero means time.Now.
	Now time.Time
}

// ParsedContact is the contact named in the notes.
type ParsedContact struct {
	CompanyName string `json:"company_name"`
	PersonName  string `json:"person_name"`
	Email       string `json:"email"`
}

// ParsedDeal is the deal context suggested from the notes.
type ParsedDeal struct {
	DealName          string `json:"deal_name"`
	SearchKeywords    string `json:"search_keywords"`
	SuggestedNextStep string `json:"suggested_next_step"`
	SuggestedStage    string `json:"suggested_stage"`
}

// ParsedTodo is one action item.
type ParsedTodo struct {
	TaskName string `json:"task_name"`
	DueDate  string `json:"due_date"`
	NextStep string `json:"next_step"`
}

// ParsedNotes is the structured form of free-text call notes.
type ParsedNotes struct {
	Contact     ParsedContact      `json:"contact"`
	Deal        ParsedDeal         `json:"deal"`
	Summary     []string           `json:"summary"`
	Preferences preferences.Record `json:"preferences"`
	Todos       []ParsedTodo       `json:"todos"`
}

// NotesPrompt renders the extraction prompt for notes.
func NotesPrompt(notes string, opts ParseOptions, vocab *preferences.Vocabulary) string {
	if vocab == nil {
		vocab = preferences.DefaultVocabulary()
	}
	tomorrow := anchor(opts.Now).AddDate(0, 0, 1).Format(time.DateOnly)

	var b strings.Builder
	b.WriteString(`You are a structured CRM assistant. Parse these investor call notes and extract:

1. CONTACT INFORMATION:
   - Investor/Company name (use the FULL company name as mentioned - e.g., "Waypoint Capital Partners" not just "Waypoint")
   - Contact person name
   - Email (if mentioned)

2. DEAL INFORMATION (if mentioned):
   - Deal name or company name (e.g., "Acme Corp Acquisition", "TechCo Series A")
   - Any keywords that would help identify the deal in a search
   - Suggest a next step based on the call notes context (e.g., "Send pitch deck", "Schedule follow-up call")
   - Suggest an appropriate deal stage (use one of: `)
	b.WriteString(strings.Join(dealStages, ", "))
	b.WriteString(`)

3. CALL SUMMARY:
   - Create bullet points (3-7 bullets) summarizing key discussion points
   - Mark any action items inline with [TO-DO] prefix`)

	structure := map[string]any{
		"contact": ParsedContact{},
		"deal":    ParsedDeal{},
		"summary": []string{"bullet 1", "bullet 2"},
	}

	if opts.Preferences {
		b.WriteString("\n\n4. INVESTOR PREFERENCES (only extract if explicitly mentioned):\n   Extract ONLY from these allowed values:\n")
		example := map[string]any{}
		for _, category := range vocab.Categories() {
			fmt.Fprintf(&b, "   - %s: %s\n", category, strings.Join(vocab.Allowed(category), ", "))
			if kind, _ := vocab.Kind(category); kind == preferences.KindSingle {
				example[string(category)] = ""
			} else {
				example[string(category)] = []string{}
			}
		}
		b.WriteString("\n   Also extract free-form preference notes for any preferences that don't fit the dropdowns.")
		example[string(preferences.Notes)] = ""
		structure["preferences"] = example
	}

	if opts.Todos {
		fmt.Fprintf(&b, `

5. TO-DO ITEMS:
   For each action item, create:
   - Task Name: 25 words or fewer, clear and specific
   - Due Date: %s (YYYY-MM-DD format)
   - Next Step: detailed description of what needs to be done`, tomorrow)
		structure["todos"] = []ParsedTodo{{DueDate: "YYYY-MM-DD"}}
	}

	shape, _ := json.MarshalIndent(structure, "", "  ")
	fmt.Fprintf(&b, "\n\nReturn ONLY valid JSON with this structure:\n%s\n\nMEETING NOTES:\n%s", shape, notes)
	return b.String()
}

// ParseNotes extracts contact, deal, summary, preferences, and to-dos from
// free-text notes. Preferences are validated against the merger's
// vocabulary; to-dos without a task name are dropped and missing due dates
// default to tomorrow.
func (c *Client) ParseNotes(ctx context.Context, notes string, opts ParseOptions, merger *preferences.Merger) (ParsedNotes, error) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return ParsedNotes{}, fmt.Errorf("llm parse notes: notes required")
	}
	if merger == nil {
		merger = preferences.NewMerger(nil, c.logger)
	}
	content, err := c.Complete(ctx, Request{
		Model:     notesModel,
		MaxTokens: defaultMaxTokens,
		Prompt:    NotesPrompt(notes, opts, merger.Vocabulary()),
	})
	if err != nil {
		return ParsedNotes{}, err
	}
	return DecodeParsedNotes(content, opts.Now, merger)
}

// DecodeParsedNotes parses a model reply into ParsedNotes.
func DecodeParsedNotes(content string, now time.Time, merger *preferences.Merger) (ParsedNotes, error) {
	var raw struct {
		Contact     ParsedContact  `json:"contact"`
		Deal        ParsedDeal     `json:"deal"`
		Summary     []string       `json:"summary"`
		Preferences map[string]any `json:"preferences"`
		Todos       []ParsedTodo   `json:"todos"`
	}
	if err := DecodeLLMJSON(content, &raw); err != nil {
		return ParsedNotes{}, fmt.Errorf("llm parse notes: parse payload: %w", err)
	}
	if merger == nil {
		merger = preferences.NewMerger(nil, nil)
	}
	tomorrow := anchor(now).AddDate(0, 0, 1).Format(time.DateOnly)
	out := ParsedNotes{
		Contact:     raw.Contact,
		Deal:        raw.Deal,
		Summary:     make([]string, 0, len(raw.Summary)),
		Preferences: merger.ValidateRecord(raw.Preferences),
		Todos:       make([]ParsedTodo, 0, len(raw.Todos)),
	}
	for _, bullet := range raw.Summary {
		if bullet = strings.TrimSpace(bullet); bullet != "" {
			out.Summary = append(out.Summary, bullet)
		}
	}
	for _, todo := range raw.Todos {
		todo.TaskName = strings.TrimSpace(todo.TaskName)
		if todo.TaskName == "" {
			continue
		}
		if strings.TrimSpace(todo.DueDate) == "" {
			todo.DueDate = tomorrow
		}
		out.Todos = append(out.Todos, todo)
	}
	return out, nil
}

func anchor(now time.Time) time.Time {
	if now.IsZero() {
		return time.Now()
	}
	return now
}
