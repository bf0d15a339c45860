package notion

import (
	"strings"
	"unicode/utf8"

	"dealflow/internal/preferences"
)

// Property names on the investor database.
const (
	propInvestorName   = "Investor Name"
	propPrimaryContact = "Primary Contact"
	propHubSpotLink    = "Hubspot Link"
)

// Property names on the to-do database.
const (
	propTaskName  = "Task Name"
	propManualDue = "Manual Due"
	propNextStep  = "Next Step"
	propStatus    = "Status"
)

// richTextLimit is the per-element content cap Notion enforces.
const richTextLimit = 2000

type textContent struct {
	Content string `json:"content"`
}

type richText struct {
	Type      string       `json:"type,omitempty"`
	Text      *textContent `json:"text,omitempty"`
	PlainText string       `json:"plain_text,omitempty"`
}

type selectOption struct {
	Name string `json:"name"`
}

type dateValue struct {
	Start string `json:"start"`
}

type property struct {
	Type        string         `json:"type,omitempty"`
	Title       []richText     `json:"title,omitempty"`
	RichText    []richText     `json:"rich_text,omitempty"`
	MultiSelect []selectOption `json:"multi_select,omitempty"`
	Select      *selectOption  `json:"select,omitempty"`
	URL         *string        `json:"url,omitempty"`
	Date        *dateValue     `json:"date,omitempty"`
}

type page struct {
	ID         string              `json:"id"`
	URL        string              `json:"url"`
	Properties map[string]property `json:"properties"`
}

type queryResponse struct {
	Results []page `json:"results"`
}

// textBlocks splits content into rich text elements within the size cap.
func textBlocks(content string) []richText {
	if content == "" {
		return nil
	}
	var out []richText
	for len(content) > 0 {
		cut := len(content)
		if utf8.RuneCountInString(content) > richTextLimit {
			cut = 0
			for i := 0; i < richTextLimit; i++ {
				_, size := utf8.DecodeRuneInString(content[cut:])
				cut += size
			}
		}
		out = append(out, richText{Type: "text", Text: &textContent{Content: content[:cut]}})
		content = content[cut:]
	}
	return out
}

func titleProperty(content string) property {
	return property{Title: textBlocks(content)}
}

func richTextProperty(content string) property {
	return property{RichText: textBlocks(content)}
}

func plainText(items []richText) string {
	var b strings.Builder
	for _, item := range items {
		switch {
		case item.PlainText != "":
			b.WriteString(item.PlainText)
		case item.Text != nil:
			b.WriteString(item.Text.Content)
		}
	}
	return b.String()
}

// firstPlainText mirrors how Notion UIs preview a property: the first run.
func firstPlainText(items []richText, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	if items[0].PlainText != "" {
		return items[0].PlainText
	}
	if items[0].Text != nil && items[0].Text.Content != "" {
		return items[0].Text.Content
	}
	return fallback
}

// preferenceProperties converts a validated record to Notion property
// payloads. Notes are only written when non-empty.
func preferenceProperties(record preferences.Record) map[string]property {
	props := make(map[string]property, record.Len()+1)
	for category, values := range record.Multi {
		options := make([]selectOption, 0, len(values))
		for _, value := range values {
			options = append(options, selectOption{Name: value})
		}
		props[string(category)] = property{MultiSelect: options}
	}
	for category, value := range record.Single {
		props[string(category)] = property{Select: &selectOption{Name: value}}
	}
	if strings.TrimSpace(record.Notes) != "" {
		props[string(preferences.Notes)] = richTextProperty(record.Notes)
	}
	return props
}

// preferenceMap flattens the vocabulary-backed page properties into the wire
// preference shape so they can be validated like any other input.
func preferenceMap(vocab *preferences.Vocabulary, props map[string]property) map[string]any {
	raw := make(map[string]any, len(props))
	for name, prop := range props {
		if _, known := vocab.Kind(preferences.Category(name)); !known && name != string(preferences.Notes) {
			continue
		}
		switch {
		case name == string(preferences.Notes):
			raw[name] = plainText(prop.RichText)
		case prop.Type == "multi_select" || len(prop.MultiSelect) > 0:
			values := make([]any, 0, len(prop.MultiSelect))
			for _, option := range prop.MultiSelect {
				values = append(values, option.Name)
			}
			if len(values) > 0 {
				raw[name] = values
			}
		case prop.Select != nil:
			raw[name] = prop.Select.Name
		}
	}
	return raw
}
