// Package i18n holds the English and Hindi message catalogs for
// user-visible answer text.
//
// The language is an argument on every lookup rather than package state:
// a single process answers English and Hindi questions interleaved, so
// the per-turn language travels with the query, not with the package.
package i18n

import "fmt"

// Supported languages
const (
	LangEN = "en"
	LangHI = "hi"
)

// messages maps language -> key -> text. Catalogs live in
// messages_en.go and messages_hi.go.
var messages = map[string]map[string]string{
	LangEN: englishMessages,
	LangHI: hindiMessages,
}

// Normalize maps common language spellings to a supported tag.
// Unknown values fall back to English.
func Normalize(lang string) string {
	switch lang {
	case "en", "en-US", "en-IN", "english", "English":
		return LangEN
	case "hi", "hi-IN", "hindi", "Hindi", "हिंदी", "हिन्दी":
		return LangHI
	default:
		return LangEN
	}
}

// T returns the message for key in lang.
// Falls back to English, then to the key itself.
func T(lang, key string) string {
	if msg, ok := messages[lang][key]; ok {
		return msg
	}
	if msg, ok := messages[LangEN][key]; ok {
		return msg
	}
	return key
}

// Sprintf formats the message for key in lang with args.
func Sprintf(lang, key string, args ...any) string {
	return fmt.Sprintf(T(lang, key), args...)
}

// StageName returns the localized name of a groundwater extraction stage.
// The canonical English names double as lookup keys so callers pass the
// stored value straight through.
func StageName(lang, stage string) string {
	key, ok := stageKeys[stage]
	if !ok {
		return stage
	}
	return T(lang, key)
}

var stageKeys = map[string]string{
	"Safe":           "stage.safe",
	"Semi-critical":  "stage.semi_critical",
	"Critical":       "stage.critical",
	"Over-exploited": "stage.over_exploited",
}

// Supported returns the supported language tags.
func Supported() []string {
	return []string{LangEN, LangHI}
}
