package pipeline

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bhujal-ai/bhujal/internal/store"
)

// locationIndex maps place names from the loaded data to their
// (state, district, block) triples. It is built once at startup and
// never mutated, matching the read-only query model.
type locationIndex struct {
	entries []indexEntry
}

type indexEntry struct {
	key string // lowercased most-specific name
	loc store.Location
}

// newLocationIndex indexes each distinct triple under its most specific
// name. When two triples share a name the one first in store order
// (state, district, block ascending) wins. Entries are kept longest
// name first so "Block A North" matches before "Block A".
func newLocationIndex(locs []store.Location) *locationIndex {
	seen := make(map[string]bool, len(locs))
	entries := make([]indexEntry, 0, len(locs))
	for _, l := range locs {
		key := strings.ToLower(l.Name())
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		entries = append(entries, indexEntry{key: key, loc: l})
	}
	slices.SortStableFunc(entries, func(a, b indexEntry) int {
		if d := len(b.key) - len(a.key); d != 0 {
			return d
		}
		return strings.Compare(a.key, b.key)
	})
	return &locationIndex{entries: entries}
}

// Len returns the number of indexed names.
func (ix *locationIndex) Len() int { return len(ix.entries) }

// match returns every indexed location named in the query, most
// specific first. Single-location intents take the first hit; compare
// takes them all.
func (ix *locationIndex) match(query string) []store.Location {
	q := strings.ToLower(query)
	var out []store.Location
	for _, e := range ix.entries {
		if containsName(q, e.key) {
			out = append(out, e.loc)
		}
	}
	return out
}

// containsName reports whether name occurs in s as a whole word. The
// check is rune based because regexp's \b never fires at Devanagari
// word edges.
func containsName(s, name string) bool {
	if name == "" {
		return false
	}
	for start := 0; ; {
		i := strings.Index(s[start:], name)
		if i < 0 {
			return false
		}
		i += start
		if boundaryBefore(s, i) && boundaryAfter(s, i+len(name)) {
			return true
		}
		start = i + 1
	}
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !unicode.IsLetter(r) && !unicode.IsNumber(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !unicode.IsLetter(r) && !unicode.IsNumber(r)
}
