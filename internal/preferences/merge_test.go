package preferences_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"dealflow/internal/preferences"
)

func TestValidateDropsUnknownCategory(t *testing.T) {
	got := preferences.Validate("Not A Category", "x")
	if !got.IsEmpty() {
		t.Fatalf("expected empty record, got %+v", got)
	}
}

func TestValidateFiltersValues(t *testing.T) {
	got := preferences.Validate(preferences.Industry, "Software", "Crypto", "Energy")
	want := []string{"Software", "Energy"}
	if diff := cmp.Diff(want, got.Values(preferences.Industry)); diff != "" {
		t.Fatalf("unexpected values (-want +got):\n%s", diff)
	}
}

func TestValidateDropsCategoryWhenNothingSurvives(t *testing.T) {
	got := preferences.Validate(preferences.CheckSize, "$999M")
	if got.Len() != 0 {
		t.Fatalf("expected no categories, got %v", got.Categories())
	}
}

func TestValidateCanonicalizesSpacing(t *testing.T) {
	got := preferences.Validate(preferences.CheckSize, "$25M-$50M")
	if diff := cmp.Diff([]string{"$25M - $50M"}, got.Values(preferences.CheckSize)); diff != "" {
		t.Fatalf("unexpected values (-want +got):\n%s", diff)
	}
	got = preferences.Validate(preferences.Style, "anchor/lead")
	if diff := cmp.Diff([]string{"Anchor / Lead"}, got.Values(preferences.Style)); diff != "" {
		t.Fatalf("unexpected values (-want +got):\n%s", diff)
	}
}

func TestValidateSingleSelectKeepsFirstValid(t *testing.T) {
	got := preferences.Validate(preferences.WhenToCall, "Whenever", "Pre-IOI/Early", "Any time")
	if got.Single[preferences.WhenToCall] != "Pre-IOI / Early" {
		t.Fatalf("expected Pre-IOI / Early, got %q", got.Single[preferences.WhenToCall])
	}
}

func TestValidateSingleSelectIgnoresVocabularyOrder(t *testing.T) {
	got := preferences.Validate(preferences.WhenToCall, "Any time", "Pre-LOI OK")
	if got.Single[preferences.WhenToCall] != "Any time" {
		t.Fatalf("expected first valid input value, got %q", got.Single[preferences.WhenToCall])
	}

	var rec preferences.Record
	if err := json.Unmarshal([]byte(`{"When to Call": ["Whenever", "Any time", "Post-LOI Signed"]}`), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.Single[preferences.WhenToCall] != "Any time" {
		t.Fatalf("expected Any time from list, got %q", rec.Single[preferences.WhenToCall])
	}
}

func TestValidateNotesPassThrough(t *testing.T) {
	got := preferences.Validate(preferences.Notes, "  prefers calls on Fridays ")
	if got.Notes != "  prefers calls on Fridays " {
		t.Fatalf("notes altered: %q", got.Notes)
	}
}

func TestMergeMultiSelectIsUnion(t *testing.T) {
	existing := preferences.Validate(preferences.Industry, "Software")
	incoming := preferences.Validate(preferences.Industry, "Healthcare")
	got := preferences.Merge(existing, incoming)
	want := []string{"Software", "Healthcare"}
	if diff := cmp.Diff(want, got.Values(preferences.Industry)); diff != "" {
		t.Fatalf("unexpected union (-want +got):\n%s", diff)
	}

	reversed := preferences.Merge(incoming, existing)
	if diff := cmp.Diff(got.Values(preferences.Industry), reversed.Values(preferences.Industry)); diff != "" {
		t.Fatalf("union depends on argument order (-a +b):\n%s", diff)
	}
}

func TestMergeMultiSelectIdempotent(t *testing.T) {
	a := preferences.ValidateRecord(map[string]any{
		"Industry":     []any{"Software"},
		"Capital Type": []any{"Family Office"},
	})
	b := preferences.ValidateRecord(map[string]any{
		"Industry": []any{"Energy", "Software"},
		"Style":    []any{"Passive"},
	})
	once := preferences.Merge(a, b)
	twice := preferences.Merge(once, b)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("merge not idempotent (-once +twice):\n%s", diff)
	}
}

func TestMergeNotesAppends(t *testing.T) {
	existing := preferences.Validate(preferences.Notes, "x")
	incoming := preferences.Validate(preferences.Notes, "x")
	got := preferences.Merge(existing, incoming)
	if got.Notes != "x\n\nx" {
		t.Fatalf("expected appended notes, got %q", got.Notes)
	}
}

func TestMergeNotesEmptySide(t *testing.T) {
	cases := []struct {
		existing, incoming, want string
	}{
		{"", "new", "new"},
		{"old", "", "old"},
		{"", "", ""},
	}
	for _, tc := range cases {
		got := preferences.Merge(preferences.Record{Notes: tc.existing}, preferences.Record{Notes: tc.incoming})
		if got.Notes != tc.want {
			t.Fatalf("merge(%q, %q) = %q, want %q", tc.existing, tc.incoming, got.Notes, tc.want)
		}
	}
}

func TestMergeSingleSelect(t *testing.T) {
	existing := preferences.Validate(preferences.WhenToCall, "Pre-LOI OK")

	replaced := preferences.Merge(existing, preferences.Validate(preferences.WhenToCall, "Any time"))
	if replaced.Single[preferences.WhenToCall] != "Any time" {
		t.Fatalf("expected incoming value, got %q", replaced.Single[preferences.WhenToCall])
	}

	invalid := preferences.Record{Single: map[preferences.Category]string{preferences.WhenToCall: "Never"}}
	kept := preferences.Merge(existing, invalid)
	if kept.Single[preferences.WhenToCall] != "Pre-LOI OK" {
		t.Fatalf("expected existing value retained, got %q", kept.Single[preferences.WhenToCall])
	}
}

func TestMergeRetainsExistingOnlyCategories(t *testing.T) {
	existing := preferences.Record{
		Multi: map[preferences.Category][]string{"Legacy Field": {"anything"}},
	}
	got := preferences.Merge(existing, preferences.Validate(preferences.Industry, "Energy"))
	if diff := cmp.Diff([]string{"anything"}, got.Values("Legacy Field")); diff != "" {
		t.Fatalf("existing-only category changed (-want +got):\n%s", diff)
	}
}

func TestMergeDropsInvalidExtractionAgainstEmptyRecord(t *testing.T) {
	incoming := preferences.ValidateRecord(map[string]any{
		"Check Size": []any{"$999M"},
		"Industry":   []any{"Software"},
	})
	merged := preferences.Merge(preferences.NewRecord(), incoming)

	encoded, err := json.Marshal(merged)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(encoded, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := map[string]any{
		"Industry":         []any{"Software"},
		"Preference Notes": "",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected stored record (-want +got):\n%s", diff)
	}
}

func TestRecordUnmarshalValidates(t *testing.T) {
	var rec preferences.Record
	payload := `{"When to Call": ["Any time", "Pre-LOI OK"], "Style": "Board Seat", "Bogus": ["x"], "Preference Notes": "n"}`
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.Single[preferences.WhenToCall] != "Any time" {
		t.Fatalf("unexpected When to Call %q", rec.Single[preferences.WhenToCall])
	}
	if diff := cmp.Diff([]string{"Board Seat"}, rec.Values(preferences.Style)); diff != "" {
		t.Fatalf("unexpected style (-want +got):\n%s", diff)
	}
	if rec.Len() != 2 || rec.Notes != "n" {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestParseVocabularyRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"reserved":  "categories:\n  - name: Preference Notes\n    values: [a]\n",
		"duplicate": "categories:\n  - name: A\n    values: [x]\n  - name: A\n    values: [y]\n",
		"kind":      "categories:\n  - name: A\n    kind: triple\n    values: [x]\n",
		"empty":     "categories:\n  - name: A\n",
	}
	for name, doc := range cases {
		if _, err := preferences.ParseVocabulary([]byte(doc)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
