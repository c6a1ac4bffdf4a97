// Package intent classifies a user question into one of four closed
// intents and extracts the assessment years it names. Classification is
// deterministic keyword matching over query tokens, in both English and
// Hindi; there is no model call and no I/O.
package intent

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/bhujal-ai/bhujal/internal/i18n"
)

// Intent is a closed enum. Every query maps to exactly one member;
// Definition is the catch-all.
type Intent int

const (
	// Definition asks what something means; answered from the corpus.
	Definition Intent = iota
	// Trend asks how levels moved over years for one location.
	Trend
	// Stage asks the extraction category of a location.
	Stage
	// Compare asks for two or more locations (or years) side by side.
	Compare
)

// Intents lists every member, for exhaustiveness checks.
var Intents = []Intent{Definition, Trend, Stage, Compare}

func (i Intent) String() string {
	switch i {
	case Definition:
		return "definition"
	case Trend:
		return "trend"
	case Stage:
		return "stage"
	case Compare:
		return "compare"
	default:
		return "unknown"
	}
}

// Result is everything the retrieval router needs from classification.
type Result struct {
	Intent   Intent
	Language string // i18n language tag
	Years    []int  // assessment years named in the query, in order
}

// Keyword sets per cue. Matched against whole tokens so "unsafe" never
// reads as "safe"; Hindi needs token matching anyway because regexp's
// \b is ASCII-only.
var (
	compareWords = tokenSet("compare", "comparison", "vs", "versus", "तुलना")
	trendWords   = tokenSet("trend", "trends", "रुझान", "प्रवृत्ति")
	stageWords   = tokenSet("stage", "over-exploited", "overexploited",
		"semi-critical", "critical", "safe",
		"श्रेणी", "अति-दोहित", "संकटग्रस्त", "अर्ध-संकटग्रस्त", "सुरक्षित")
	definitionWords = tokenSet("what", "how", "explain", "meaning", "mean",
		"means", "definition", "define",
		"क्या", "कैसे", "अर्थ", "मतलब", "परिभाषा", "समझाएं")
)

var yearRx = regexp.MustCompile(`\b(20\d{2})\b`)

// Classify maps a raw query to its intent, detected language and the
// years it names.
//
// Precedence mirrors how people phrase groundwater questions: an explicit
// comparison wins, then trend phrasing (the word itself, a from..to span,
// or two named years), then stage vocabulary, and anything left is a
// definition. Stage vocabulary without a year still reads as a stage
// question (answered with the latest reading) unless a definition cue
// like "what" or "मतलब" signals the user wants the term explained.
func Classify(query string) Result {
	toks := tokens(query)
	years := Years(query)
	res := Result{Language: DetectLanguage(query), Years: years}

	switch {
	case hasAny(toks, compareWords):
		res.Intent = Compare
	case hasAny(toks, trendWords) || (toks["from"] && toks["to"]) || len(years) >= 2:
		res.Intent = Trend
	case hasAny(toks, stageWords):
		if len(years) == 0 && hasAny(toks, definitionWords) {
			res.Intent = Definition
		} else {
			res.Intent = Stage
		}
	default:
		res.Intent = Definition
	}
	return res
}

// Years returns every four-digit assessment year (2000-2099) in the
// query, in order of appearance, duplicates kept.
func Years(query string) []int {
	var out []int
	for _, m := range yearRx.FindAllString(query, -1) {
		y, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		out = append(out, y)
	}
	return out
}

// DetectLanguage returns the Hindi tag when the query contains Devanagari
// codepoints, English otherwise.
func DetectLanguage(query string) string {
	for _, r := range query {
		if unicode.Is(unicode.Devanagari, r) {
			return i18n.LangHI
		}
	}
	return i18n.LangEN
}

// tokens lowercases the query and splits it into a token set, trimming
// edge punctuation so "over-exploited?" and "vs." match their keywords.
func tokens(query string) map[string]bool {
	out := make(map[string]bool)
	for _, f := range strings.Fields(strings.ToLower(query)) {
		t := strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if t != "" {
			out[t] = true
		}
	}
	return out
}

func tokenSet(words ...string) map[string]bool {
	out := make(map[string]bool, len(words))
	for _, w := range words {
		out[w] = true
	}
	return out
}

func hasAny(toks, words map[string]bool) bool {
	for w := range words {
		if toks[w] {
			return true
		}
	}
	return false
}
