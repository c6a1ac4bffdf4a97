package i18n

// hindiMessages holds all Hindi answer text.
// Numbers keep Latin digits to match the stored data. Templates use
// explicit argument indexes where Hindi word order differs from the
// English catalog; both catalogs share one argument order per key.
var hindiMessages = map[string]string{
	// Application
	"app.name":        "भुजल",
	"app.description": "भूजल आंकड़ों का संवादी सहायक",
	"app.version":     "भुजल v%s",

	// Extraction stages
	"stage.safe":           "सुरक्षित",
	"stage.semi_critical":  "अर्ध-संकटग्रस्त",
	"stage.critical":       "संकटग्रस्त",
	"stage.over_exploited": "अति-दोहित",

	// Table headers
	"table.location": "स्थान",
	"table.year":     "वर्ष",
	"table.level":    "स्तर (मी.)",
	"table.stage":    "श्रेणी",

	// Trend answers
	"answer.trend.range":         "%[1]s में भूजल स्तर %[3]d में भूमि से %.1[2]f मीटर नीचे था और %[5]d में %.1[4]f मीटर।",
	"answer.trend.delta.decline": "पिछली दो मापों के बीच स्तर लगभग %.2f मीटर प्रति वर्ष गिर रहा है।",
	"answer.trend.delta.recover": "पिछली दो मापों के बीच स्तर लगभग %.2f मीटर प्रति वर्ष सुधर रहा है।",
	"answer.trend.delta.flat":    "पिछली दो मापों के बीच स्तर लगभग स्थिर है।",
	"answer.trend.stage":         "नवीनतम आकलन (%d) इसे %s श्रेणी में रखता है।",
	"answer.trend.single":        "%[1]s के लिए केवल एक माप उपलब्ध है: %[3]d में भूमि से %.1[2]f मीटर नीचे। प्रवृत्ति के लिए कम से कम दो वर्षों के आंकड़े चाहिए।",

	// Stage answers
	"answer.stage":         "%[1]s को %[3]d में %[2]s श्रेणी में रखा गया था, भूजल भूमि से %.1[4]f मीटर नीचे।",
	"answer.stage.nearest": "%d का आकलन उपलब्ध नहीं है; सबसे हालिया आकलन दिखाया गया है।",

	// Compare answers
	"answer.compare.intro":    "नवीनतम मापें आमने-सामने:",
	"answer.compare.row":      "%s: भूमि से %.1f मीटर नीचे, %s (%d)।",
	"answer.compare.years":    "%[1]s में स्तर %[3]d में भूमि से %.1[2]f मीटर नीचे था और %[5]d में %.1[4]f मीटर, यानी %+.2[6]f मीटर प्रति वर्ष का बदलाव।",
	"answer.compare.missing":  "%[1]s के लिए %[2]d की कोई माप उपलब्ध नहीं है।",
	"answer.compare.need_two": "तुलना के लिए दो स्थान या दो वर्ष बताएं, जैसे \"compare Doiwala and Roorkee\" या \"देहरादून 2019 vs 2024\"।",

	// Definition answers
	"answer.definition.intro": "संदर्भ सामग्री के अनुसार:",
	"answer.definition.none":  "संदर्भ सामग्री में कोई मिलती-जुलती प्रविष्टि नहीं मिली। \"अति-दोहित\" या \"भूजल पुनर्भरण\" जैसे शब्दों के बारे में पूछें।",

	// Insufficient data
	"answer.insufficient":         "%s के लिए कोई भूजल रिकॉर्ड नहीं मिला। हो सकता है कि यह क्षेत्र या अवधि आंकड़ों में शामिल न हो।",
	"answer.insufficient.generic": "प्रश्न किसी ज्ञात राज्य, जिले या ब्लॉक से नहीं जुड़ सका। उदाहरण: \"देहरादून में प्रवृत्ति\" या \"Block A की 2023 श्रेणी\"।",
	"answer.datagap":              "%s के लिए मांगी गई अवधि में कोई माप उपलब्ध नहीं है।",

	// Citations
	"citations.label": "उद्धरण",

	// Chat interface
	"tui.placeholder":     "भूजल स्तर, प्रवृत्ति या शब्दों के बारे में पूछें...",
	"tui.thinking":        "रिकॉर्ड देखे जा रहे हैं...",
	"tui.welcome":         "अपने जिले के भूजल के बारे में पूछें। हर उत्तर अपने स्रोत बताता है।",
	"tui.welcome_hint":    "कमांड के लिए /help लिखें।",
	"tui.help":            "कमांड: /help, /clear, /exit\nEnter भेजता है, Shift+Enter नई पंक्ति, Up/Down पिछले प्रश्न,\nCtrl+C रद्द, Ctrl+D बाहर, PgUp/PgDn स्क्रॉल।",
	"tui.cleared":         "बातचीत साफ़ कर दी गई।",
	"tui.canceled":        "(रद्द किया गया)",
	"tui.timeout":         "उत्तर में बहुत समय लगा। थोड़ी देर में फिर पूछें।",
	"tui.unknown_command": "अनजान कमांड: %s",
}
