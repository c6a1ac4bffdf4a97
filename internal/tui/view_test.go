package tui

import (
	"strings"
	"testing"
	"unicode/utf8"

	"go.uber.org/goleak"

	"github.com/bhujal-ai/bhujal/internal/pipeline"
	"github.com/bhujal-ai/bhujal/internal/store"
)

func TestLevelColumn(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
		want int
	}{
		{
			"year and level",
			[][]string{{"2018", "10.0"}, {"2019", "11.5"}},
			1,
		},
		{
			"comparison table",
			[][]string{
				{"Doiwala", "2022", "12.1", "Critical"},
				{"Roorkee", "2022", "7.9", "Safe"},
			},
			2,
		},
		{
			"gap rows keep the column",
			[][]string{{"2023", "12.4", "Critical"}, {"2024", "—", "—"}},
			1,
		},
		{
			"all gaps is no column",
			[][]string{{"2023", "—"}, {"2024", "—"}},
			-1,
		},
		{
			"no numeric column",
			[][]string{{"Safe", "note"}},
			-1,
		},
		{
			"years alone never qualify",
			[][]string{{"2018", "2019"}},
			-1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := levelColumn(tt.rows); got != tt.want {
				t.Errorf("levelColumn = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLevelBars(t *testing.T) {
	t.Run("scales between extremes", func(t *testing.T) {
		rows := [][]string{{"2018", "10.0"}, {"2020", "11.5"}, {"2022", "13.0"}}
		bars := levelBars(rows, 1)

		if len(bars) != 3 {
			t.Fatalf("Expected 3 bars, got %d", len(bars))
		}
		if n := utf8.RuneCountInString(bars[0]); n != 1 {
			t.Errorf("Shallowest reading should draw 1 cell, got %d", n)
		}
		if n := utf8.RuneCountInString(bars[2]); n != barCells {
			t.Errorf("Deepest reading should draw %d cells, got %d", barCells, n)
		}
	})

	t.Run("flat series draws half bars", func(t *testing.T) {
		rows := [][]string{{"2018", "10.0"}, {"2019", "10.0"}}
		for i, bar := range levelBars(rows, 1) {
			if n := utf8.RuneCountInString(bar); n != barCells/2 {
				t.Errorf("Bar %d: got %d cells, want %d", i, n, barCells/2)
			}
		}
	})

	t.Run("gap rows get no bar", func(t *testing.T) {
		rows := [][]string{{"2023", "12.4"}, {"2024", "—"}}
		bars := levelBars(rows, 1)
		if bars[1] != "" {
			t.Errorf("Gap row should have no bar, got %q", bars[1])
		}
	})

	t.Run("no column means no bars", func(t *testing.T) {
		if bars := levelBars([][]string{{"a"}}, -1); bars != nil {
			t.Errorf("Expected nil, got %v", bars)
		}
	})
}

func TestRenderAnswerTable(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := newTestModel(t, nil)
	out := m.renderAnswerTable(
		[]string{"Year", "Level (m bgl)"},
		[][]string{{"2018", "10.0"}, {"2022", "13.0"}},
	)

	for _, want := range []string{"Year", "Level (m bgl)", "2018", "13.0", "▇"} {
		if !strings.Contains(out, want) {
			t.Errorf("Table should contain %q:\n%s", want, out)
		}
	}
}

func TestRenderAnswer(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := newTestModel(t, nil)
	ans := &pipeline.Answer{
		Text:         "Groundwater in Doiwala is falling.",
		Language:     "en",
		Stage:        store.StageCritical,
		TableHeaders: []string{"Year", "Level (m bgl)"},
		TableRows:    [][]string{{"2018", "10.0"}, {"2022", "13.0"}},
		Citations:    []string{"Source: SQLite gw_levels; Years: 2018–2022"},
	}

	out := m.renderAnswer(ans)

	for _, want := range []string{
		"falling",
		"Critical",
		"Level (m bgl)",
		"Citations:",
		"Source: SQLite gw_levels",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Answer should contain %q", want)
		}
	}
}

// Each transcript entry renders in the language it was answered in,
// regardless of the current chrome language.
func TestRenderAnswer_KeepsAnswerLanguage(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := newTestModel(t, nil)
	ans := &pipeline.Answer{
		Text:      "दोईवाला में भूजल गिर रहा है।",
		Language:  "hi",
		Stage:     store.StageOverExploited,
		Citations: []string{"Source: SQLite gw_levels; Years: 2018–2022"},
	}

	out := m.renderAnswer(ans)

	if !strings.Contains(out, "उद्धरण") {
		t.Error("Hindi answer should carry the Hindi citations label")
	}
	if !strings.Contains(out, "अति-दोहित") {
		t.Error("Hindi answer should carry the Hindi stage name")
	}
}

func TestRenderAnswer_PlainWhenSparse(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := newTestModel(t, nil)
	out := m.renderAnswer(&pipeline.Answer{Text: "A water table is the top of the saturated zone.", Language: "en"})

	if strings.Contains(out, "Citations:") {
		t.Error("No citations block without citations")
	}
	if strings.Contains(out, "▇") {
		t.Error("No bars without a table")
	}
}

func TestView_ContainsPromptAndHelp(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := newTestModel(t, nil)
	m.rebuildViewportContent()

	view := m.View()
	if view.Content == nil {
		t.Error("View content should not be nil")
	}
	if !view.AltScreen {
		t.Error("View should request the alternate screen")
	}
}

func TestRebuildViewportContent_Roles(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := newTestModel(t, nil)
	m.addMessage(Message{Role: roleUser, Text: "Doiwala?"})
	m.addMessage(Message{Role: roleAssistant, Text: "Falling.", Answer: &pipeline.Answer{Text: "Falling.", Language: "en"}})
	m.addMessage(Message{Role: roleSystem, Text: "notice"})
	m.addMessage(Message{Role: roleError, Text: "bad"})

	// Must not panic with every role present and a thinking spinner.
	m.state = StateThinking
	m.rebuildViewportContent()
}
