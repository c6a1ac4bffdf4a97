// Package corpus holds the knowledge passages behind definition answers:
// stage glossary, intervention guidance and assessment background.
//
// Retrieval is exact keyword matching, not embeddings. Every entry carries
// a keyword set; a query scores one point per distinct query token found in
// that set. Ties break by newer citation year, then by corpus order. The
// scoring is deterministic so the same question always surfaces the same
// passages.
package corpus

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	_ "embed"

	"gopkg.in/yaml.v3"
)

// DefaultTopK bounds how many passages a search returns when the caller
// does not say otherwise.
const DefaultTopK = 3

// ErrInvalidEntry indicates a corpus file entry that cannot be searched,
// such as one without text or keywords.
var ErrInvalidEntry = errors.New("invalid corpus entry")

//go:embed corpus.yaml
var defaultCorpus []byte

// Entry is one retrievable passage with its citation source.
type Entry struct {
	Source   string   `yaml:"source"`
	Year     int      `yaml:"year,omitempty"`
	Keywords []string `yaml:"keywords"`
	Text     string   `yaml:"text"`
}

// Hit is a scored search result.
type Hit struct {
	Entry
	Score int
}

type corpusFile struct {
	Entries []Entry `yaml:"entries"`
}

// Corpus is an in-memory, read-only set of entries. Build it once at
// startup with Load; Search is safe for concurrent use afterwards.
type Corpus struct {
	entries []Entry
	keys    []map[string]struct{}
}

// Load builds a corpus from the embedded default entries plus, when path
// names an existing file, the entries of that external YAML file appended
// in order. A missing external file is not an error so fresh installs work
// before anything was ingested.
func Load(path string) (*Corpus, error) {
	c := &Corpus{}

	if err := c.addYAML(defaultCorpus, "embedded corpus"); err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := c.addYAML(data, path); err != nil {
				return nil, err
			}
		case errors.Is(err, os.ErrNotExist):
			// Nothing ingested yet.
		default:
			return nil, fmt.Errorf("reading corpus %s: %w", path, err)
		}
	}

	return c, nil
}

func (c *Corpus) addYAML(data []byte, origin string) error {
	var f corpusFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parsing %s: %w", origin, err)
	}
	for i, e := range f.Entries {
		if err := c.Add(e); err != nil {
			return fmt.Errorf("%s entry %d: %w", origin, i, err)
		}
	}
	return nil
}

// Add appends one entry. Keywords are matched case-insensitively.
func (c *Corpus) Add(e Entry) error {
	if strings.TrimSpace(e.Text) == "" {
		return fmt.Errorf("%w: no text (source %q)", ErrInvalidEntry, e.Source)
	}
	if len(e.Keywords) == 0 {
		return fmt.Errorf("%w: no keywords (source %q)", ErrInvalidEntry, e.Source)
	}

	keys := make(map[string]struct{}, len(e.Keywords))
	for _, k := range e.Keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			keys[k] = struct{}{}
		}
	}

	c.entries = append(c.entries, e)
	c.keys = append(c.keys, keys)
	return nil
}

// Len returns the number of entries.
func (c *Corpus) Len() int {
	return len(c.entries)
}

// Search returns up to k entries whose keyword set intersects the query's
// tokens, best first. Entries that match nothing are never returned.
func (c *Corpus) Search(query string, k int) []Hit {
	if k <= 0 {
		k = DefaultTopK
	}
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return nil
	}

	type candidate struct {
		index int
		score int
	}
	var cands []candidate
	for i, keys := range c.keys {
		score := 0
		for _, t := range tokens {
			if _, ok := keys[t]; ok {
				score++
			}
		}
		if score > 0 {
			cands = append(cands, candidate{index: i, score: score})
		}
	}

	slices.SortFunc(cands, func(a, b candidate) int {
		if a.score != b.score {
			return b.score - a.score
		}
		ya, yb := c.entries[a.index].Year, c.entries[b.index].Year
		if ya != yb {
			return yb - ya
		}
		return a.index - b.index
	})

	if len(cands) > k {
		cands = cands[:k]
	}
	hits := make([]Hit, len(cands))
	for i, cand := range cands {
		hits[i] = Hit{Entry: c.entries[cand.index], Score: cand.score}
	}
	return hits
}

// tokenize lowercases the query and splits it into distinct tokens of at
// least three runes, stripping edge punctuation so "over-exploited?"
// matches the keyword "over-exploited". Order of first appearance is kept.
func tokenize(query string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, field := range strings.Fields(strings.ToLower(query)) {
		t := strings.TrimFunc(field, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if utf8.RuneCountInString(t) < 3 {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
