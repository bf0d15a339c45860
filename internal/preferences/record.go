package preferences

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Record is one investor's preference set.
//
// Multi holds multi-select categories, Single holds single-select categories,
// and Notes is the free-text "Preference Notes" field. Notes is always part of
// the serialized form, even when empty.
type Record struct {
	Multi  map[Category][]string
	Single map[Category]string
	Notes  string
}

// NewRecord returns an empty record ready for writes.
func NewRecord() Record {
	return Record{
		Multi:  map[Category][]string{},
		Single: map[Category]string{},
	}
}

// IsEmpty reports whether the record carries no categories and no notes.
func (r Record) IsEmpty() bool {
	return len(r.Multi) == 0 && len(r.Single) == 0 && strings.TrimSpace(r.Notes) == ""
}

// Len returns the number of populated vocabulary categories.
func (r Record) Len() int {
	return len(r.Multi) + len(r.Single)
}

// Categories lists populated vocabulary categories in a stable order.
func (r Record) Categories() []Category {
	out := make([]Category, 0, r.Len())
	for category := range r.Multi {
		out = append(out, category)
	}
	for category := range r.Single {
		out = append(out, category)
	}
	slices.Sort(out)
	return out
}

// Values returns the values stored for category; single-select categories
// yield a one-element slice.
func (r Record) Values(category Category) []string {
	if values, ok := r.Multi[category]; ok {
		return append([]string(nil), values...)
	}
	if value, ok := r.Single[category]; ok {
		return []string{value}
	}
	return nil
}

// Clone returns a deep copy.
func (r Record) Clone() Record {
	out := NewRecord()
	for category, values := range r.Multi {
		out.Multi[category] = append([]string(nil), values...)
	}
	for category, value := range r.Single {
		out.Single[category] = value
	}
	out.Notes = r.Notes
	return out
}

// MarshalJSON renders the flat {"Category": [...]} shape used on the wire.
func (r Record) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, r.Len()+1)
	for category, values := range r.Multi {
		flat[string(category)] = values
	}
	for category, value := range r.Single {
		flat[string(category)] = value
	}
	flat[string(Notes)] = r.Notes
	return json.Marshal(flat)
}

// UnmarshalJSON accepts the flat wire shape and validates it against the
// default vocabulary. Invalid values are dropped.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode preferences: %w", err)
	}
	*r = defaultMerger.ValidateRecord(raw)
	return nil
}

// stringsFrom flattens a decoded JSON value into candidate strings.
func stringsFrom(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
