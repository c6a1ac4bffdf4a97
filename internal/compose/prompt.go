package compose

import (
	"regexp"
	"strings"

	"github.com/bhujal-ai/bhujal/internal/i18n"
)

var languageNames = map[string]string{
	i18n.LangEN: "English",
	i18n.LangHI: "Hindi (Devanagari script)",
}

const systemPreamble = `You are Bhujal, a groundwater assessment assistant for India.
You rephrase grounded facts into a short, clear explanation.

Rules:
- Every number in your answer must appear in the grounded facts below. Never invent or estimate values.
- If the facts say data is missing, say so plainly and suggest a nearby query the user could try.
- Do not write any "Source:", "Sources:" or "Citations:" lines; citations are attached separately.
- Do not repeat the data table; it is shown alongside your text.
- Answer in `

// System returns the system directive for a completion call, including
// the answer-language instruction resolved from the detected language.
func System(language string) string {
	name, ok := languageNames[i18n.Normalize(language)]
	if !ok {
		name = languageNames[i18n.LangEN]
	}
	return systemPreamble + name + ".\n- Keep it under 120 words."
}

// User renders the grounded context block the model composes from.
func User(req Request) string {
	var b strings.Builder
	b.WriteString("Question: ")
	b.WriteString(strings.TrimSpace(req.Query))
	b.WriteString("\n\nGrounded facts:\n")
	for _, seg := range req.Segments {
		b.WriteString("- ")
		b.WriteString(seg)
		b.WriteString("\n")
	}
	if req.Table != "" {
		b.WriteString("\nData table:\n")
		b.WriteString(req.Table)
		b.WriteString("\n")
	}
	b.WriteString("\nWrite the explanation.")
	return b.String()
}

// spuriousSourceLine matches source or citation lines a model sometimes
// emits despite the system directive, optionally bulleted.
var spuriousSourceLine = regexp.MustCompile(`(?i)^\s*(?:[-*]\s*)?(?:citations?|sources?)\s*:`)

// StripSpuriousSources removes source and citation lines from model
// output. Citations are structured data rendered by the presenter, so a
// model that emits its own would duplicate or contradict them.
func StripSpuriousSources(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if spuriousSourceLine.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	out := strings.Join(kept, "\n")
	out = collapseBlankRuns(out)
	return strings.TrimSpace(out)
}

var blankRuns = regexp.MustCompile(`\n{3,}`)

func collapseBlankRuns(s string) string {
	return blankRuns.ReplaceAllString(s, "\n\n")
}
