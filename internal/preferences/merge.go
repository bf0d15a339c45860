package preferences

import (
	"log/slog"
	"strings"

	"dealflow/internal/logging"
)

// noteSeparator joins existing and incoming notes as two paragraphs.
const noteSeparator = "\n\n"

// Merger validates and merges preference records against a vocabulary.
type Merger struct {
	vocab  *Vocabulary
	logger *slog.Logger
}

// NewMerger builds a merger. A nil vocabulary selects the embedded one and a
// nil logger discards validation notices.
func NewMerger(vocab *Vocabulary, logger *slog.Logger) *Merger {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	return &Merger{
		vocab:  vocab,
		logger: logging.NewComponentLogger(logger, "preferences"),
	}
}

var defaultMerger = NewMerger(nil, nil)

// Vocabulary returns the vocabulary the merger validates against.
func (m *Merger) Vocabulary() *Vocabulary {
	return m.vocab
}

// Validate filters values for one category using the embedded vocabulary.
func Validate(category Category, values ...string) Record {
	return defaultMerger.Validate(category, values...)
}

// ValidateRecord validates a decoded flat preference map using the embedded
// vocabulary.
func ValidateRecord(raw map[string]any) Record {
	return defaultMerger.ValidateRecord(raw)
}

// Merge combines existing and incoming using the embedded vocabulary.
func Merge(existing, incoming Record) Record {
	return defaultMerger.Merge(existing, incoming)
}

// Validate returns a record holding only category with its allowed values.
// Unknown categories and categories with no surviving values produce an
// empty record. Notes are passed through untouched.
func (m *Merger) Validate(category Category, values ...string) Record {
	out := NewRecord()
	if category == Notes {
		out.Notes = strings.Join(values, noteSeparator)
		return out
	}
	kind, ok := m.vocab.Kind(category)
	if !ok {
		logging.WarnWithContext(m.logger, "unknown preference category dropped", "preference_category_dropped",
			logging.String("category", string(category)),
			logging.Int("value_count", len(values)),
			logging.String(logging.FieldErrorHint, "check the extraction prompt lists only known categories"),
			logging.String(logging.FieldImpact, "category not stored"),
		)
		return out
	}
	accepted := m.accept(category, values)
	if len(accepted) == 0 {
		return out
	}
	if kind == KindSingle {
		out.Single[category] = accepted[0]
		return out
	}
	m.vocab.sortValues(category, accepted)
	out.Multi[category] = accepted
	return out
}

// ValidateRecord validates every key of a flat preference map. Single-select
// categories accept a string or a list, in which case the first valid entry
// wins.
func (m *Merger) ValidateRecord(raw map[string]any) Record {
	out := NewRecord()
	for key, value := range raw {
		category := Category(strings.TrimSpace(key))
		if category == Notes {
			if text, ok := value.(string); ok {
				out.Notes = text
			}
			continue
		}
		part := m.Validate(category, stringsFrom(value)...)
		for c, v := range part.Multi {
			out.Multi[c] = v
		}
		for c, v := range part.Single {
			out.Single[c] = v
		}
	}
	return out
}

// Merge folds incoming into existing without discarding recorded data.
//
// Multi-select categories present on both sides become the validated union.
// Single-select categories take the incoming value when it is valid. Notes
// are appended as a new paragraph, so merging the same notes twice repeats
// them. Categories only present in existing are kept as they are.
func (m *Merger) Merge(existing, incoming Record) Record {
	out := existing.Clone()

	for category, values := range incoming.Multi {
		current, present := out.Multi[category]
		if !present {
			part := m.Validate(category, values...)
			if vals, ok := part.Multi[category]; ok {
				out.Multi[category] = vals
			}
			continue
		}
		union := make([]string, 0, len(current)+len(values))
		union = append(union, current...)
		union = append(union, values...)
		merged := m.filter(category, union)
		if len(merged) == 0 {
			// nothing valid on either side; leave the stored value alone
			continue
		}
		out.Multi[category] = merged
	}

	for category, value := range incoming.Single {
		part := m.Validate(category, value)
		if valid, ok := part.Single[category]; ok {
			out.Single[category] = valid
		}
	}

	out.Notes = joinNotes(existing.Notes, incoming.Notes)
	return out
}

// filter keeps canonical, deduplicated values in vocabulary order.
func (m *Merger) filter(category Category, values []string) []string {
	accepted := m.accept(category, values)
	m.vocab.sortValues(category, accepted)
	return accepted
}

// accept keeps canonical, deduplicated values in input order.
func (m *Merger) accept(category Category, values []string) []string {
	seen := make(map[string]struct{}, len(values))
	accepted := make([]string, 0, len(values))
	for _, value := range values {
		canonical, ok := m.vocab.Canonical(category, value)
		if !ok {
			m.logger.Warn("invalid preference value dropped",
				logging.String("category", string(category)),
				logging.String("value", value),
				logging.String(logging.FieldEventType, "preference_value_dropped"),
				logging.String(logging.FieldErrorHint, "value is not in the allowed vocabulary"),
				logging.String(logging.FieldImpact, "value not stored"),
			)
			continue
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		accepted = append(accepted, canonical)
	}
	return accepted
}

func joinNotes(existing, incoming string) string {
	switch {
	case strings.TrimSpace(existing) == "":
		return incoming
	case strings.TrimSpace(incoming) == "":
		return existing
	default:
		return existing + noteSeparator + incoming
	}
}
