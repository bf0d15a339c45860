package callprep

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"dealflow/internal/services/hubspot"
)

func TestDecodeSelectsTypedVariant(t *testing.T) {
	cases := []struct {
		rec    hubspot.EngagementRecord
		kind   string
		detail string
	}{
		{hubspot.EngagementRecord{Type: "NOTE", Metadata: hubspot.EngagementMetadata{Body: "Discussed terms"}}, "Note", "Discussed terms"},
		{hubspot.EngagementRecord{Type: "CALL", Metadata: hubspot.EngagementMetadata{Body: "Left a voicemail", Disposition: "No answer"}}, "Call", "No answer: Left a voicemail"},
		{hubspot.EngagementRecord{Type: "MEETING", Metadata: hubspot.EngagementMetadata{Title: "Intro", InternalMeetingNotes: "Warm", Body: "<html>invite</html>"}}, "Meeting", "Intro: Warm"},
		{hubspot.EngagementRecord{Type: "MEETING"}, "Meeting", "Meeting (no details)"},
		{hubspot.EngagementRecord{Type: "EMAIL", Metadata: hubspot.EngagementMetadata{Subject: "Deck", Body: "long body"}}, "Email", "Subject: Deck"},
		{hubspot.EngagementRecord{Type: "INCOMING_EMAIL"}, "Incoming Email", "Email (no subject)"},
		{hubspot.EngagementRecord{Type: "LINKEDIN_MESSAGE"}, "Linkedin Message", "Linkedin Message (no details recorded)"},
		{hubspot.EngagementRecord{Type: "TASK", Metadata: hubspot.EngagementMetadata{Body: "Follow up"}}, "Task", "Follow up"},
	}
	for _, tc := range cases {
		e := Decode(tc.rec)
		if e.Kind() != tc.kind || e.Detail() != tc.detail {
			t.Fatalf("Decode(%s) = %q / %q, want %q / %q", tc.rec.Type, e.Kind(), e.Detail(), tc.kind, tc.detail)
		}
	}
}

func TestDecodeVariantTypes(t *testing.T) {
	if _, ok := Decode(hubspot.EngagementRecord{Type: "note"}).(NoteEngagement); !ok {
		t.Fatalf("expected NoteEngagement for lowercase type")
	}
	if _, ok := Decode(hubspot.EngagementRecord{Type: ""}).(OtherEngagement); !ok {
		t.Fatalf("expected OtherEngagement fallback")
	}
	if got := Decode(hubspot.EngagementRecord{}).Kind(); got != "Activity" {
		t.Fatalf("empty type kind = %q", got)
	}
}

func TestSummaryStripsHTMLAndTruncates(t *testing.T) {
	note := NoteEngagement{Body: "<p>Hello <b>there</b></p><p>Second&nbsp;line</p>"}
	if got := note.Summary(); got != "Hello there\nSecond line" {
		t.Fatalf("Summary() = %q", got)
	}
	spaced := CallEngagement{Body: "Left&nbsp;&nbsp;voicemail&nbsp;"}
	if got := spaced.Summary(); got != "Left voicemail" {
		t.Fatalf("non-breaking spaces not collapsed: %q", got)
	}
	long := NoteEngagement{Body: strings.Repeat("é", 250)}
	got := long.Summary()
	if !strings.HasSuffix(got, "...") || len([]rune(got)) != 203 {
		t.Fatalf("unexpected truncation: %d runes", len([]rune(got)))
	}
	short := NoteEngagement{Body: strings.Repeat("a", 200)}
	if strings.HasSuffix(short.Summary(), "...") {
		t.Fatalf("200 characters should not be truncated")
	}
}

func TestRecentSortsNewestFirstAndLimits(t *testing.T) {
	records := []hubspot.EngagementRecord{
		{ID: 1, Type: "NOTE", CreatedAt: 1700000000000},
		{ID: 2, Type: "NOTE", CreatedAt: 1710000000000},
		{ID: 3, Type: "NOTE"},
		{ID: 4, Type: "CALL", CreatedAt: 1705000000000},
	}
	got := Recent(records, 3)
	var ids []int64
	var dates []string
	for _, e := range got {
		ids = append(ids, metaOf(t, e).ID)
		dates = append(dates, DateLabel(e))
	}
	if diff := cmp.Diff([]int64{2, 4, 1}, ids); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"2024-03-09", "2024-01-11", "2023-11-14"}, dates); diff != "" {
		t.Fatalf("unexpected dates (-want +got):\n%s", diff)
	}
}

func metaOf(t *testing.T, e Engagement) Meta {
	t.Helper()
	switch v := e.(type) {
	case NoteEngagement:
		return v.Meta
	case CallEngagement:
		return v.Meta
	case MeetingEngagement:
		return v.Meta
	case EmailEngagement:
		return v.Meta
	case OtherEngagement:
		return v.Meta
	default:
		t.Fatalf("unexpected engagement type %T", e)
		return Meta{}
	}
}
