package tui

import (
	"math"
	"strconv"
	"strings"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/bhujal-ai/bhujal/internal/i18n"
	"github.com/bhujal-ai/bhujal/internal/pipeline"
)

// barCells is the width of the widest depth bar in a readings table.
const barCells = 12

// View implements tea.Model.
// Uses AltScreen with viewport for scrollable message history.
func (m *Model) View() tea.View {
	m.viewBuf.Reset()

	// Viewport (scrollable message area)
	_, _ = m.viewBuf.WriteString(m.viewport.View())
	_, _ = m.viewBuf.WriteString("\n")

	// Separator line above input
	_, _ = m.viewBuf.WriteString(m.renderSeparator())
	_, _ = m.viewBuf.WriteString("\n")

	// Input prompt stays visible and editable while an answer is
	// pending, so the next question can be typed ahead.
	_, _ = m.viewBuf.WriteString(m.styles.Prompt.Render("> "))
	_, _ = m.viewBuf.WriteString(m.input.View())
	_, _ = m.viewBuf.WriteString("\n")

	// Separator line below input
	_, _ = m.viewBuf.WriteString(m.renderSeparator())
	_, _ = m.viewBuf.WriteString("\n")

	// Help bar (keyboard shortcuts)
	_, _ = m.viewBuf.WriteString(m.renderStatusBar())

	v := tea.NewView(m.viewBuf.String())
	v.AltScreen = true
	return v
}

// rebuildViewportContent reconstructs the viewport content from messages
// and state. Called when messages, language, or state changes.
func (m *Model) rebuildViewportContent() {
	var b strings.Builder

	// Banner (ASCII art) and tips
	_, _ = b.WriteString(m.styles.RenderBanner())
	_, _ = b.WriteString("\n")
	_, _ = b.WriteString(m.styles.RenderWelcomeTips(m.lang))
	_, _ = b.WriteString("\n")

	// Messages (already bounded by addMessage)
	for _, msg := range m.messages {
		switch msg.Role {
		case roleUser:
			_, _ = b.WriteString(m.styles.User.Render("You> "))
			_, _ = b.WriteString(msg.Text)
		case roleAssistant:
			_, _ = b.WriteString(m.styles.Assistant.Render("Bhujal> "))
			if msg.Answer != nil {
				_, _ = b.WriteString(m.renderAnswer(msg.Answer))
			} else {
				_, _ = b.WriteString(m.markdown.Render(msg.Text))
			}
		case roleSystem:
			_, _ = b.WriteString(m.styles.System.Render(msg.Text))
		case roleError:
			_, _ = b.WriteString(m.styles.Error.Render("Error: " + msg.Text))
		}
		_, _ = b.WriteString("\n\n")
	}

	// Thinking indicator
	if m.state == StateThinking {
		_, _ = b.WriteString(m.spinner.View())
		_, _ = b.WriteString(" ")
		_, _ = b.WriteString(m.styles.System.Render(i18n.T(m.lang, "tui.thinking")))
		_, _ = b.WriteString("\n\n")
	}

	m.viewport.SetContent(b.String())
}

// renderAnswer lays out one structured answer: prose, then the stage
// badge, the readings table, and the citations. Each answer renders in
// the language it was composed in, so switching languages mid-session
// leaves earlier entries untouched.
func (m *Model) renderAnswer(ans *pipeline.Answer) string {
	lang := i18n.Normalize(ans.Language)

	var b strings.Builder
	_, _ = b.WriteString(m.markdown.Render(ans.Text))

	if ans.Stage != "" {
		_, _ = b.WriteString("\n\n")
		_, _ = b.WriteString(m.styles.StageBadge(lang, ans.Stage))
	}

	if len(ans.TableHeaders) > 0 && len(ans.TableRows) > 0 {
		_, _ = b.WriteString("\n\n")
		_, _ = b.WriteString(m.renderAnswerTable(ans.TableHeaders, ans.TableRows))
	}

	if len(ans.Citations) > 0 {
		_, _ = b.WriteString("\n")
		_, _ = b.WriteString(m.styles.Citation.Render(i18n.T(lang, "citations.label") + ":"))
		for _, c := range ans.Citations {
			_, _ = b.WriteString("\n")
			_, _ = b.WriteString(m.styles.Citation.Render("  " + c))
		}
	}
	return b.String()
}

// renderAnswerTable renders headers and rows as aligned columns. When a
// column holds water levels, each row gets a depth bar scaled between
// the shallowest and deepest reading in the table.
func (m *Model) renderAnswerTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	bars := levelBars(rows, levelColumn(rows))

	var b strings.Builder
	for i, h := range headers {
		if i > 0 {
			_, _ = b.WriteString("  ")
		}
		_, _ = b.WriteString(m.styles.TableHeader.Render(padCell(h, widths[i])))
	}
	_, _ = b.WriteString("\n")

	for r, row := range rows {
		for i, cell := range row {
			if i > 0 {
				_, _ = b.WriteString("  ")
			}
			w := 0
			if i < len(widths) {
				w = widths[i]
			}
			_, _ = b.WriteString(m.styles.TableCell.Render(padCell(cell, w)))
		}
		if r < len(bars) && bars[r] != "" {
			_, _ = b.WriteString("  ")
			_, _ = b.WriteString(m.styles.LevelBar.Render(bars[r]))
		}
		_, _ = b.WriteString("\n")
	}
	return b.String()
}

// levelColumn finds the column carrying water levels: every cell either
// parses as a decimal number or marks a gap with a dash. Year columns
// never qualify because years are formatted without a decimal point.
func levelColumn(rows [][]string) int {
	cols := 0
	for _, row := range rows {
		cols = max(cols, len(row))
	}
	for col := range cols {
		numeric := 0
		ok := true
		for _, row := range rows {
			if col >= len(row) {
				ok = false
				break
			}
			cell := row[col]
			if cell == "—" {
				continue
			}
			if !strings.Contains(cell, ".") {
				ok = false
				break
			}
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				ok = false
				break
			}
			numeric++
		}
		if ok && numeric > 0 {
			return col
		}
	}
	return -1
}

// levelBars returns one bar per row, empty for rows without a reading.
// A flat series draws half-width bars.
func levelBars(rows [][]string, col int) []string {
	if col < 0 {
		return nil
	}

	vals := make([]float64, len(rows))
	has := make([]bool, len(rows))
	minV, maxV := math.Inf(1), math.Inf(-1)
	for i, row := range rows {
		v, err := strconv.ParseFloat(row[col], 64)
		if err != nil {
			continue
		}
		vals[i], has[i] = v, true
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}

	bars := make([]string, len(rows))
	for i := range rows {
		if !has[i] {
			continue
		}
		n := barCells / 2
		if maxV > minV {
			n = 1 + int(math.Round((vals[i]-minV)/(maxV-minV)*float64(barCells-1)))
		}
		bars[i] = strings.Repeat("▇", n)
	}
	return bars
}

func padCell(s string, width int) string {
	if d := width - lipgloss.Width(s); d > 0 {
		return s + strings.Repeat(" ", d)
	}
	return s
}

// renderSeparator returns a horizontal line separator.
func (m *Model) renderSeparator() string {
	width := m.width
	if width <= 0 {
		width = 80 // Default width
	}
	return m.styles.Separator.Render(strings.Repeat("─", width))
}

// renderStatusBar returns state-appropriate keyboard shortcut help.
func (m *Model) renderStatusBar() string {
	var bindings []key.Binding
	switch m.state {
	case StateInput:
		bindings = []key.Binding{
			m.keys.Submit, m.keys.NewLine, m.keys.History,
			m.keys.Cancel, m.keys.Quit, m.keys.ScrollUp,
		}
	case StateThinking:
		bindings = []key.Binding{
			m.keys.EscCancel, m.keys.Cancel,
			m.keys.ScrollUp, m.keys.ScrollDown,
		}
	}
	return m.help.ShortHelpView(bindings)
}
