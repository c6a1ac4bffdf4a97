// Package tui provides the Bubble Tea chat interface for Bhujal.
//
// The interface is a single scrolling transcript: questions go down,
// structured answers come back with a stage badge, a readings table,
// and the citations that back the text. Answers arrive in one piece,
// so the model has exactly two states: waiting for input and waiting
// for an answer.
package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/bhujal-ai/bhujal/internal/i18n"
	"github.com/bhujal-ai/bhujal/internal/pipeline"
)

// State represents the TUI state machine.
type State int

// TUI state machine states.
const (
	StateInput    State = iota // Awaiting user input
	StateThinking              // Waiting for an answer
)

// Memory bounds to prevent unbounded growth.
const (
	maxMessages = 100 // Maximum messages stored
	maxHistory  = 100 // Maximum question history entries
)

// askTimeout bounds one full turn: store reads plus the completion
// call with its retries.
const askTimeout = 60 * time.Second

// Message role constants for consistent display.
const (
	roleUser      = "user"
	roleAssistant = "assistant"
	roleSystem    = "system"
	roleError     = "error"
)

// Layout constants for viewport height calculation.
const (
	separatorLines = 2 // Two separator lines (above and below input)
	helpLines      = 1 // Help bar height
	promptLines    = 1 // Prompt prefix line
	minViewport    = 3 // Minimum viewport height
)

// Asker answers one question per call. *pipeline.Pipeline satisfies it.
type Asker interface {
	Ask(ctx context.Context, query string) (*pipeline.Answer, error)
}

// Message is one transcript entry. Assistant entries carry the full
// structured answer; every other role carries plain text.
type Message struct {
	Role   string // "user", "assistant", "system", "error"
	Text   string
	Answer *pipeline.Answer
}

// Model is the Bubble Tea model for the Bhujal terminal interface.
type Model struct {
	// Input (textarea for multi-line support, Shift+Enter for newline)
	input      textarea.Model
	history    []string
	historyIdx int

	// State
	state     State
	lastCtrlC time.Time

	// Transcript
	spinner  spinner.Model
	viewBuf  strings.Builder // Reusable buffer for View() to reduce allocations
	messages []Message

	// Scrollable message viewport
	viewport viewport.Model

	// Help bar for keyboard shortcuts
	help help.Model
	keys keyMap

	// In-flight ask. askSeq stamps each submission so a result from a
	// canceled turn cannot clobber the next one.
	askCancel context.CancelFunc
	askSeq    int

	// Dependencies
	pipe      Asker
	ctx       context.Context
	ctxCancel context.CancelFunc // For canceling all operations on exit

	// lang drives the interface chrome. With autoLang set it follows
	// the language of the latest answer.
	lang     string
	autoLang bool

	// Dimensions
	width  int
	height int

	// Styles
	styles Styles

	// Markdown rendering (nil = graceful degradation to plain text)
	markdown *markdownRenderer
}

// addMessage appends a message and enforces the maxMessages bound.
func (m *Model) addMessage(msg Message) {
	m.messages = append(m.messages, msg)
	if len(m.messages) > maxMessages {
		m.messages = m.messages[len(m.messages)-maxMessages:]
	}
}

// New creates a Model for chat interaction. lang pins the interface
// language; empty means follow each answer's language.
//
// ctx MUST be the same context passed to tea.WithContext() so
// cancellation behaves consistently.
func New(ctx context.Context, pipe Asker, lang string) (*Model, error) {
	if pipe == nil {
		return nil, errors.New("tui.New: pipeline is required")
	}
	if ctx == nil {
		return nil, errors.New("tui.New: ctx is required")
	}

	autoLang := lang == ""
	lang = i18n.Normalize(lang)

	// Create cancellable context for cleanup on exit
	ctx, cancel := context.WithCancel(ctx)

	// Textarea for multi-line input: Enter submits, Shift+Enter adds
	// a newline.
	ta := textarea.New()
	ta.Placeholder = i18n.T(lang, "tui.placeholder")
	ta.SetHeight(1)
	ta.SetWidth(120) // Updated on WindowSizeMsg
	ta.MaxWidth = 0
	ta.ShowLineNumbers = false

	// Plain text styling, no background colors.
	cleanStyle := textarea.StyleState{
		Base:        lipgloss.NewStyle(),
		Text:        lipgloss.NewStyle(),
		Placeholder: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Prompt:      lipgloss.NewStyle(),
	}
	ta.SetStyles(textarea.Styles{
		Focused: cleanStyle,
		Blurred: cleanStyle,
	})
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	// Viewport for scrollable history. Built-in key handling is
	// disabled; keys are routed explicitly in handleKey to avoid
	// conflicts with textarea and history navigation.
	vp := viewport.New(viewport.WithWidth(80), viewport.WithHeight(20))
	vp.MouseWheelEnabled = true
	vp.SoftWrap = true
	vp.KeyMap = viewport.KeyMap{}

	h := help.New()

	return &Model{
		pipe:      pipe,
		ctx:       ctx,
		ctxCancel: cancel,
		lang:      lang,
		autoLang:  autoLang,
		input:     ta,
		spinner:   sp,
		viewport:  vp,
		help:      h,
		keys:      newKeyMap(),
		styles:    DefaultStyles(),
		history:   make([]string, 0, maxHistory),
		markdown:  newMarkdownRenderer(80),
		width:     80, // Default width until WindowSizeMsg arrives
	}, nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.input.Focus(),
	)
}
