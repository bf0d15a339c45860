package preferences

import (
	"cmp"
	_ "embed"
	"fmt"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yaml
var vocabularyYAML []byte

// Category names a preference field on an investor record.
type Category string

const (
	CheckSize             Category = "Check Size"
	DealStructure         Category = "Deal Structure"
	Style                 Category = "Style"
	Industry              Category = "Industry"
	CompanyStage          Category = "Company Stage"
	KeyInvestmentCriteria Category = "Key Investment Criteria"
	CapitalType           Category = "Capital Type"
	WhenToCall            Category = "When to Call"

	// Notes is free text and never validated.
	Notes Category = "Preference Notes"
)

// Kind distinguishes multi-select tags from single-select values.
type Kind string

const (
	KindMulti  Kind = "multi"
	KindSingle Kind = "single"
)

type categorySpec struct {
	Name   Category `yaml:"name"`
	Kind   Kind     `yaml:"kind"`
	Values []string `yaml:"values"`
}

// Vocabulary holds the allowed values per category.
type Vocabulary struct {
	order  []Category
	kinds  map[Category]Kind
	values map[Category][]string
	// lookup maps category -> folded key -> canonical value.
	lookup map[Category]map[string]string
	rank   map[Category]map[string]int
}

// ParseVocabulary decodes a YAML vocabulary document.
func ParseVocabulary(data []byte) (*Vocabulary, error) {
	var doc struct {
		Categories []categorySpec `yaml:"categories"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse vocabulary: %w", err)
	}
	v := &Vocabulary{
		kinds:  make(map[Category]Kind, len(doc.Categories)),
		values: make(map[Category][]string, len(doc.Categories)),
		lookup: make(map[Category]map[string]string, len(doc.Categories)),
		rank:   make(map[Category]map[string]int, len(doc.Categories)),
	}
	for _, spec := range doc.Categories {
		name := Category(strings.TrimSpace(string(spec.Name)))
		if name == "" {
			return nil, fmt.Errorf("parse vocabulary: category without name")
		}
		if name == Notes {
			return nil, fmt.Errorf("parse vocabulary: %q is reserved for free text", Notes)
		}
		if _, dup := v.kinds[name]; dup {
			return nil, fmt.Errorf("parse vocabulary: duplicate category %q", name)
		}
		switch spec.Kind {
		case KindMulti, KindSingle:
		case "":
			spec.Kind = KindMulti
		default:
			return nil, fmt.Errorf("parse vocabulary: category %q has unknown kind %q", name, spec.Kind)
		}
		if len(spec.Values) == 0 {
			return nil, fmt.Errorf("parse vocabulary: category %q has no values", name)
		}
		v.order = append(v.order, name)
		v.kinds[name] = spec.Kind
		v.lookup[name] = make(map[string]string, len(spec.Values))
		v.rank[name] = make(map[string]int, len(spec.Values))
		for idx, value := range spec.Values {
			value = strings.TrimSpace(value)
			v.values[name] = append(v.values[name], value)
			v.lookup[name][foldValue(value)] = value
			v.rank[name][value] = idx
		}
	}
	return v, nil
}

var (
	defaultVocabOnce sync.Once
	defaultVocab     *Vocabulary
)

// DefaultVocabulary returns the embedded vocabulary.
func DefaultVocabulary() *Vocabulary {
	defaultVocabOnce.Do(func() {
		vocab, err := ParseVocabulary(vocabularyYAML)
		if err != nil {
			panic(err)
		}
		defaultVocab = vocab
	})
	return defaultVocab
}

// Categories returns the validated categories in declaration order.
func (v *Vocabulary) Categories() []Category {
	return append([]Category(nil), v.order...)
}

// Kind reports the selection kind of a category.
func (v *Vocabulary) Kind(category Category) (Kind, bool) {
	kind, ok := v.kinds[category]
	return kind, ok
}

// Allowed returns the canonical values for a category.
func (v *Vocabulary) Allowed(category Category) []string {
	return append([]string(nil), v.values[category]...)
}

// Canonical resolves value to its stored form, tolerating case and the
// spacing around "/" and "-" separators.
func (v *Vocabulary) Canonical(category Category, value string) (string, bool) {
	table, ok := v.lookup[category]
	if !ok {
		return "", false
	}
	canonical, ok := table[foldValue(value)]
	return canonical, ok
}

func (v *Vocabulary) sortValues(category Category, values []string) {
	rank := v.rank[category]
	slices.SortStableFunc(values, func(a, b string) int {
		return cmp.Compare(rank[a], rank[b])
	})
}

func foldValue(value string) string {
	fields := strings.Fields(strings.ToLower(value))
	joined := strings.Join(fields, " ")
	joined = strings.ReplaceAll(joined, " / ", "/")
	joined = strings.ReplaceAll(joined, " /", "/")
	joined = strings.ReplaceAll(joined, "/ ", "/")
	joined = strings.ReplaceAll(joined, " - ", "-")
	joined = strings.ReplaceAll(joined, " -", "-")
	joined = strings.ReplaceAll(joined, "- ", "-")
	return joined
}
