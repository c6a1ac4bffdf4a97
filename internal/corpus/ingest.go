package corpus

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/gocolly/colly/v2"
	"gopkg.in/yaml.v3"
)

// Sentinel errors for document ingestion.
var (
	// ErrBadTarget indicates the ingest target is neither a fetchable URL
	// nor a readable file.
	ErrBadTarget = errors.New("ingest target not usable")

	// ErrNoContent indicates the document yielded no readable text.
	ErrNoContent = errors.New("no readable text extracted")
)

const (
	ingestUserAgent = "bhujal-ingest/1.0"

	// maxEntryRunes caps ingested passages at retrieval-friendly size.
	maxEntryRunes = 1600

	// maxDerivedKeywords bounds the auto-derived keyword set.
	maxDerivedKeywords = 12

	defaultFetchTimeout = 20 * time.Second
)

// IngestOptions tune how a document becomes a corpus entry.
type IngestOptions struct {
	// Keywords are merged with the derived ones.
	Keywords []string
	// Year for recency tie-breaks; zero means unknown.
	Year int
	// Timeout bounds a URL fetch. Zero means the default.
	Timeout time.Duration
}

// FromURL fetches target and distills its main content into an Entry.
// The fetch is bounded by opts.Timeout and aborted if ctx is cancelled.
func FromURL(ctx context.Context, target string, opts IngestOptions) (Entry, error) {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return Entry{}, fmt.Errorf("%w: %s", ErrBadTarget, target)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}

	c := colly.NewCollector(
		colly.UserAgent(ingestUserAgent),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(timeout)

	var body []byte
	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	if err := c.Visit(target); err != nil {
		return Entry{}, fmt.Errorf("fetching %s: %w", target, err)
	}
	if err := ctx.Err(); err != nil {
		return Entry{}, fmt.Errorf("fetching %s: %w", target, err)
	}
	if len(body) == 0 {
		return Entry{}, fmt.Errorf("%w: %s", ErrNoContent, target)
	}

	title, text := extractHTML(body, u)
	if strings.TrimSpace(text) == "" {
		return Entry{}, fmt.Errorf("%w: %s", ErrNoContent, target)
	}

	source := u.Host + strings.TrimSuffix(u.Path, "/")
	return buildEntry(source, title, text, opts), nil
}

// FromFile reads a local text or HTML document into an Entry.
func FromFile(path string, opts IngestOptions) (Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %s: %v", ErrBadTarget, path, err)
	}

	var title, text string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		title, text = extractHTML(data, &url.URL{Scheme: "file", Path: path})
	default:
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return Entry{}, fmt.Errorf("%w: %s", ErrNoContent, path)
	}
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return buildEntry(filepath.Base(path), title, text, opts), nil
}

// extractHTML pulls the main text from an HTML document, preferring
// readability's article extraction and falling back to stitching the
// document's paragraphs together.
func extractHTML(body []byte, pageURL *url.URL) (title, text string) {
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return article.Title, article.TextContent
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", ""
	}
	title = strings.TrimSpace(doc.Find("title").First().Text())
	var parts []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return title, strings.Join(parts, " ")
}

// buildEntry normalises text and derives the keyword set.
func buildEntry(source, title, text string, opts IngestOptions) Entry {
	text = clip(strings.Join(strings.Fields(text), " "))
	return Entry{
		Source:   source,
		Year:     opts.Year,
		Keywords: deriveKeywords(title, text, opts.Keywords),
		Text:     text,
	}
}

// clip caps text at maxEntryRunes, cutting at the last sentence end when
// one falls inside the window.
func clip(text string) string {
	if utf8.RuneCountInString(text) <= maxEntryRunes {
		return text
	}
	runes := []rune(text)[:maxEntryRunes]
	for i := len(runes) - 1; i > maxEntryRunes/2; i-- {
		if runes[i] == '.' || runes[i] == '।' {
			return string(runes[:i+1])
		}
	}
	return strings.TrimSpace(string(runes))
}

// ingestStopwords are tokens too generic to retrieve by.
var ingestStopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "was": {}, "were": {},
	"that": {}, "this": {}, "with": {}, "from": {}, "into": {}, "have": {},
	"has": {}, "had": {}, "not": {}, "but": {}, "its": {}, "their": {},
	"they": {}, "them": {}, "then": {}, "than": {}, "when": {}, "where": {},
	"which": {}, "will": {}, "been": {}, "being": {}, "also": {}, "such": {},
	"these": {}, "those": {}, "about": {}, "after": {}, "before": {},
	"between": {}, "during": {}, "each": {}, "can": {}, "may": {},
	"must": {}, "more": {}, "most": {}, "some": {}, "any": {}, "all": {},
	"में": {}, "और": {}, "लिए": {}, "किया": {}, "गया": {},
}

func usableKeyword(t string) bool {
	if utf8.RuneCountInString(t) < 3 {
		return false
	}
	if _, stop := ingestStopwords[t]; stop {
		return false
	}
	// Pure numbers (years, figures) make poor keywords.
	if strings.IndexFunc(t, func(r rune) bool { return r < '0' || r > '9' }) == -1 {
		return false
	}
	return true
}

// deriveKeywords merges explicit keywords, every usable title token and
// the most frequent usable body tokens, capped at maxDerivedKeywords
// beyond the explicit ones.
func deriveKeywords(title, text string, explicit []string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(t string) {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			return
		}
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	for _, k := range explicit {
		add(k)
	}
	base := len(out)

	for _, t := range tokenize(title) {
		if usableKeyword(t) {
			add(t)
		}
	}

	freq := make(map[string]int)
	for _, field := range strings.Fields(strings.ToLower(text)) {
		toks := tokenize(field)
		if len(toks) == 1 && usableKeyword(toks[0]) {
			freq[toks[0]]++
		}
	}
	ranked := make([]string, 0, len(freq))
	for t := range freq {
		ranked = append(ranked, t)
	}
	slices.SortFunc(ranked, func(a, b string) int {
		if freq[a] != freq[b] {
			return freq[b] - freq[a]
		}
		return strings.Compare(a, b)
	})
	for _, t := range ranked {
		if len(out)-base >= maxDerivedKeywords {
			break
		}
		add(t)
	}
	return out
}

// AppendToFile appends e to the external corpus file at path, creating
// the file and its directory as needed. The write is atomic (temp file
// plus rename) so a concurrent Load never sees a half-written corpus.
func AppendToFile(path string, e Entry) error {
	var f corpusFile
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return fmt.Errorf("reading %s: %w", path, err)
	}

	f.Entries = append(f.Entries, e)
	out, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("encoding corpus: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating corpus directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		return fmt.Errorf("writing corpus: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing corpus: %w", err)
	}
	return nil
}
