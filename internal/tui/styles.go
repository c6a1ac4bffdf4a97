package tui

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/bhujal-ai/bhujal/internal/i18n"
	"github.com/bhujal-ai/bhujal/internal/store"
)

// Water blue for the Bhujal branding.
const waterBlue = "#1E88E5"

// BHUJAL ASCII art (filled block style).
var bhujalArt = []string{
	"██████╗ ██╗  ██╗██╗   ██╗     ██╗ █████╗ ██╗     ",
	"██╔══██╗██║  ██║██║   ██║     ██║██╔══██╗██║     ",
	"██████╔╝███████║██║   ██║     ██║███████║██║     ",
	"██╔══██╗██╔══██║██║   ██║██   ██║██╔══██║██║     ",
	"██████╔╝██║  ██║╚██████╔╝╚█████╔╝██║  ██║███████╗",
	"╚═════╝ ╚═╝  ╚═╝ ╚═════╝  ╚════╝ ╚═╝  ╚═╝╚══════╝",
}

// Droplet ASCII art rendered beside the wordmark.
var dropArt = []string{
	"    ▄    ",
	"   ███   ",
	"  █████  ",
	" ███████ ",
	"  █████  ",
	"         ",
}

// Styles contains all lipgloss styles for the TUI.
type Styles struct {
	Banner    lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	System    lipgloss.Style
	Tips      lipgloss.Style
	Error     lipgloss.Style
	Prompt    lipgloss.Style
	Separator lipgloss.Style
	StatusBar lipgloss.Style

	// Answer rendering
	TableHeader lipgloss.Style
	TableCell   lipgloss.Style
	LevelBar    lipgloss.Style
	Citation    lipgloss.Style

	// Stage badges, colored by severity
	BadgeSafe  lipgloss.Style
	BadgeWatch lipgloss.Style
	BadgeOver  lipgloss.Style
}

// DefaultStyles returns the default style configuration.
func DefaultStyles() Styles {
	badge := lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(lipgloss.Color("232"))
	return Styles{
		Banner:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(waterBlue)),
		User:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Assistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		System:    lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("240")),
		Tips:      lipgloss.NewStyle().Foreground(lipgloss.Color("255")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Prompt:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Separator: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		StatusBar: lipgloss.NewStyle().Foreground(lipgloss.Color("250")),

		TableHeader: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("250")),
		TableCell:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		LevelBar:    lipgloss.NewStyle().Foreground(lipgloss.Color(waterBlue)),
		Citation:    lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("244")),

		BadgeSafe:  badge.Background(lipgloss.Color("35")),
		BadgeWatch: badge.Background(lipgloss.Color("214")),
		BadgeOver:  badge.Background(lipgloss.Color("160")),
	}
}

// StageBadge renders a stage as a colored badge. Safe is green,
// Semi-critical and Critical amber, Over-exploited red, matching the
// severity colors of the assessment reports.
func (s Styles) StageBadge(lang, stage string) string {
	var style lipgloss.Style
	switch stage {
	case store.StageSafe:
		style = s.BadgeSafe
	case store.StageSemiCritical, store.StageCritical:
		style = s.BadgeWatch
	case store.StageOverExploited:
		style = s.BadgeOver
	default:
		return s.System.Render(stage)
	}
	return style.Render(i18n.StageName(lang, stage))
}

// RenderBanner returns the droplet and wordmark as a styled block.
func (s Styles) RenderBanner() string {
	var b strings.Builder
	for i := range bhujalArt {
		_, _ = b.WriteString(s.Banner.Render(dropArt[i]))
		_, _ = b.WriteString(s.Banner.Render(bhujalArt[i]))
		_, _ = b.WriteString("\n")
	}
	return b.String()
}

// RenderWelcomeTips returns the localized welcome lines shown under
// the banner.
func (s Styles) RenderWelcomeTips(lang string) string {
	var b strings.Builder
	_, _ = b.WriteString(s.Tips.Render(i18n.T(lang, "tui.welcome")))
	_, _ = b.WriteString("\n")
	_, _ = b.WriteString(s.Tips.Render(i18n.T(lang, "tui.welcome_hint")))
	_, _ = b.WriteString("\n")
	return b.String()
}
