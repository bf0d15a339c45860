package callprep

import (
	"cmp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"dealflow/internal/services/hubspot"
)

const (
	summaryLimit     = 200
	unknownDateLabel = "Unknown date"
)

// Engagement is one CRM timeline entry.
type Engagement interface {
	// Kind is the display name of the engagement type.
	Kind() string
	// OccurredAt is the creation time; zero when the CRM did not say.
	OccurredAt() time.Time
	// Detail is the full display text.
	Detail() string
	// Summary is Detail reduced to plain text and truncated.
	Summary() string
}

// Meta holds the fields every engagement shares.
type Meta struct {
	ID        int64
	CreatedAt time.Time
}

func (m Meta) OccurredAt() time.Time { return m.CreatedAt }

// NoteEngagement is a logged note.
type NoteEngagement struct {
	Meta
	Body string
}

func (NoteEngagement) Kind() string      { return "Note" }
func (e NoteEngagement) Detail() string  { return orNoDetails(e.Kind(), e.Body) }
func (e NoteEngagement) Summary() string { return summarize(e.Detail()) }

// CallEngagement is a logged call with its outcome.
type CallEngagement struct {
	Meta
	Body        string
	Disposition string
}

func (CallEngagement) Kind() string { return "Call" }

func (e CallEngagement) Detail() string {
	body := strings.TrimSpace(e.Body)
	disposition := strings.TrimSpace(e.Disposition)
	switch {
	case disposition != "" && body != "":
		return disposition + ": " + body
	case disposition != "":
		return disposition
	default:
		return orNoDetails(e.Kind(), body)
	}
}

func (e CallEngagement) Summary() string { return summarize(e.Detail()) }

// MeetingEngagement shows only the title and internal notes, never the
// invitation body.
type MeetingEngagement struct {
	Meta
	Title         string
	InternalNotes string
}

func (MeetingEngagement) Kind() string { return "Meeting" }

func (e MeetingEngagement) Detail() string {
	title := strings.TrimSpace(e.Title)
	notes := strings.TrimSpace(e.InternalNotes)
	switch {
	case notes != "" && title != "":
		return title + ": " + notes
	case notes != "":
		return notes
	case title != "":
		return title
	default:
		return "Meeting (no details)"
	}
}

func (e MeetingEngagement) Summary() string { return summarize(e.Detail()) }

// EmailEngagement shows only the subject line.
type EmailEngagement struct {
	Meta
	Subject  string
	Incoming bool
}

func (e EmailEngagement) Kind() string {
	if e.Incoming {
		return "Incoming Email"
	}
	return "Email"
}

func (e EmailEngagement) Detail() string {
	if subject := strings.TrimSpace(e.Subject); subject != "" {
		return "Subject: " + subject
	}
	return "Email (no subject)"
}

func (e EmailEngagement) Summary() string { return summarize(e.Detail()) }

// OtherEngagement covers engagement types without a dedicated decoding.
type OtherEngagement struct {
	Meta
	Type string
	Body string
}

func (e OtherEngagement) Kind() string {
	raw := strings.TrimSpace(strings.ReplaceAll(e.Type, "_", " "))
	if raw == "" {
		return "Activity"
	}
	return cases.Title(language.English).String(strings.ToLower(raw))
}

func (e OtherEngagement) Detail() string  { return orNoDetails(e.Kind(), e.Body) }
func (e OtherEngagement) Summary() string { return summarize(e.Detail()) }

// Decode maps a raw CRM record to its engagement type.
func Decode(rec hubspot.EngagementRecord) Engagement {
	meta := Meta{ID: rec.ID}
	if rec.CreatedAt > 0 {
		meta.CreatedAt = time.UnixMilli(rec.CreatedAt).UTC()
	}
	md := rec.Metadata
	switch strings.ToUpper(strings.TrimSpace(rec.Type)) {
	case "NOTE":
		return NoteEngagement{Meta: meta, Body: md.Body}
	case "CALL":
		return CallEngagement{Meta: meta, Body: md.Body, Disposition: md.Disposition}
	case "MEETING":
		return MeetingEngagement{Meta: meta, Title: md.Title, InternalNotes: md.InternalMeetingNotes}
	case "EMAIL":
		return EmailEngagement{Meta: meta, Subject: md.Subject}
	case "INCOMING_EMAIL":
		return EmailEngagement{Meta: meta, Subject: md.Subject, Incoming: true}
	default:
		return OtherEngagement{Meta: meta, Type: rec.Type, Body: firstNonEmpty(md.Body, md.Text)}
	}
}

// Recent decodes records, newest first, keeping at most limit.
func Recent(records []hubspot.EngagementRecord, limit int) []Engagement {
	out := make([]Engagement, 0, len(records))
	for _, rec := range records {
		out = append(out, Decode(rec))
	}
	slices.SortStableFunc(out, func(a, b Engagement) int {
		return cmp.Compare(b.OccurredAt().UnixMilli(), a.OccurredAt().UnixMilli())
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// DateLabel renders an engagement's date as YYYY-MM-DD.
func DateLabel(e Engagement) string {
	at := e.OccurredAt()
	if at.IsZero() {
		return unknownDateLabel
	}
	return at.UTC().Format(time.DateOnly)
}

func orNoDetails(kind, text string) string {
	if text = strings.TrimSpace(text); text != "" {
		return text
	}
	return kind + " (no details recorded)"
}

func summarize(detail string) string {
	text := htmlToText(detail)
	if utf8.RuneCountInString(text) <= summaryLimit {
		return text
	}
	runes := []rune(text)
	return string(runes[:summaryLimit]) + "..."
}

// htmlToText keeps the text nodes of an HTML fragment, one line per block
// element. Plain text passes through unchanged.
func htmlToText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.TrimSpace(fragment)
	}
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	var lines []string
	var current strings.Builder
	flush := func() {
		if line := strings.Join(strings.Fields(current.String()), " "); line != "" {
			lines = append(lines, line)
		}
		current.Reset()
	}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			current.WriteString(n.Data)
			current.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "p", "div", "br", "li", "tr", "h1", "h2", "h3", "h4", "h5", "h6":
				flush()
			}
		}
	}
	walk(doc)
	flush()
	return strings.Join(lines, "\n")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
