// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package format

import (
	"strings"

	"github.com/pdiddy/resultlens/internal/value"
)

// The key-name heuristics below are a display nicety for records an LLM
// produced with loosely named keys. They are not a data contract; each list
// is checked in order.
var (
	subjectKeys = []string{"entity", "subject", "name", "key", "id", "type"}
	contentKeys = []string{"statement", "content", "text", "description", "value", "message"}
)

// Headline picks the one value that best previews a record: the first
// statement-like key, else the record's first value.
func Headline(rec value.Record) string {
	if len(rec) == 0 {
		return value.Placeholder
	}
	if i := findKey(rec, contentKeys); i >= 0 {
		return value.Text(rec[i].Value)
	}
	return value.Text(rec[0].Value)
}

// Pairs renders every key of a record as "key: value", comma separated.
func Pairs(rec value.Record) string {
	if len(rec) == 0 {
		return value.Placeholder
	}
	parts := make([]string, len(rec))
	for i, p := range rec {
		parts[i] = p.Key + ": " + value.Text(p.Value)
	}
	return strings.Join(parts, ", ")
}

// Summarize renders a small subject/content record as "{subject}: {content}"
// and anything else as Pairs. The pairing applies to records with 2 or 3
// keys where one key is subject-like and a different one is content-like.
func Summarize(rec value.Record) string {
	if len(rec) >= 2 && len(rec) <= 3 {
		si := findKey(rec, subjectKeys)
		ci := findKey(rec, contentKeys)
		if si >= 0 && ci >= 0 && si != ci {
			return value.Text(rec[si].Value) + ": " + value.Text(rec[ci].Value)
		}
	}
	return Pairs(rec)
}

// findKey returns the index of the record key matching the earliest name in
// names, ignoring case, or -1.
func findKey(rec value.Record, names []string) int {
	for _, name := range names {
		for i, p := range rec {
			if strings.EqualFold(p.Key, name) {
				return i
			}
		}
	}
	return -1
}
