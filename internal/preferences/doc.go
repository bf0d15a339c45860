// Package preferences validates and merges investor preference records.
//
// Every category except "Preference Notes" draws from a closed vocabulary
// embedded as vocabulary.yaml. Values outside that vocabulary are dropped
// with a warning and never stored. Merge is append-only: multi-select tags
// accumulate as a set, single-select values are replaced only by valid
// input, and notes gain a new paragraph on every merge.
package preferences
