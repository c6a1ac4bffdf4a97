package i18n

// englishMessages holds all English answer text.
var englishMessages = map[string]string{
	// Application
	"app.name":        "Bhujal",
	"app.description": "Conversational groundwater data assistant",
	"app.version":     "Bhujal v%s",

	// Extraction stages (canonical categories of the assessment data)
	"stage.safe":           "Safe",
	"stage.semi_critical":  "Semi-critical",
	"stage.critical":       "Critical",
	"stage.over_exploited": "Over-exploited",

	// Table headers
	"table.location": "Location",
	"table.year":     "Year",
	"table.level":    "Level (m bgl)",
	"table.stage":    "Stage",

	// Trend answers
	"answer.trend.range":         "Groundwater in %s stood at %.1f m below ground in %d and %.1f m in %d.",
	"answer.trend.delta.decline": "Across the two most recent readings the level is falling by about %.2f m per year.",
	"answer.trend.delta.recover": "Across the two most recent readings the level is recovering by about %.2f m per year.",
	"answer.trend.delta.flat":    "The level is roughly stable across the two most recent readings.",
	"answer.trend.stage":         "The latest assessment (%d) places it in the %s category.",
	"answer.trend.single":        "Only one reading exists for %s: %.1f m below ground in %d. A trend needs at least two years.",

	// Stage answers
	"answer.stage":         "%s was categorised as %s in %d, with groundwater at %.1f m below ground.",
	"answer.stage.nearest": "No assessment exists for %d; the most recent one is shown instead.",

	// Compare answers
	"answer.compare.intro":    "Latest readings side by side:",
	"answer.compare.row":      "%s: %.1f m below ground, %s (%d).",
	"answer.compare.years":    "In %s the level was %.1f m below ground in %d and %.1f m in %d, a change of %+.2f m per year.",
	"answer.compare.missing":  "%s has no reading for %d.",
	"answer.compare.need_two": "Name two places or two years to compare, e.g. \"compare Doiwala and Roorkee\" or \"Dehradun 2019 vs 2024\".",

	// Definition answers
	"answer.definition.intro": "From the reference material:",
	"answer.definition.none":  "I could not find a matching entry in the reference material. Try asking about terms like \"over-exploited\" or \"groundwater recharge\".",

	// Insufficient data
	"answer.insufficient":         "No groundwater records were found for %s. The dataset may not cover that area or period.",
	"answer.insufficient.generic": "I could not match the question to a known state, district or block. Try \"trend in Dehradun\" or \"stage of Block A in 2023\".",
	"answer.datagap":              "No readings are available for %s in the requested period.",

	// Citations
	"citations.label": "Citations",

	// Chat interface
	"tui.placeholder":     "Ask about groundwater levels, trends, or terms...",
	"tui.thinking":        "Consulting the records...",
	"tui.welcome":         "Ask about groundwater in your district. Answers cite the data they use.",
	"tui.welcome_hint":    "Type /help for commands.",
	"tui.help":            "Commands: /help, /clear, /exit\nEnter sends, Shift+Enter adds a line, Up/Down recall history,\nCtrl+C cancels, Ctrl+D exits, PgUp/PgDn scroll.",
	"tui.cleared":         "Conversation cleared.",
	"tui.canceled":        "(Canceled)",
	"tui.timeout":         "The answer took too long. Ask again in a moment.",
	"tui.unknown_command": "Unknown command: %s",
}
