package tui

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"

	"github.com/bhujal-ai/bhujal/internal/pipeline"
)

// Ask result messages for Bubble Tea. Each carries the sequence number
// of the turn it belongs to; stale results are dropped in Update.
type askDoneMsg struct {
	seq    int
	answer *pipeline.Answer
}

type askErrorMsg struct {
	seq int
	err error
}

// startAsk returns a command that runs one full turn. The command runs
// in Bubble Tea's goroutine, so no extra channel plumbing is needed:
// the answer arrives as a single message when the pipeline returns.
//
// The cancel func is stored on the model before the command runs,
// which lets Esc and Ctrl+C abort the turn from the event loop.
func (m *Model) startAsk(query string) tea.Cmd {
	ctx, cancel := context.WithTimeout(m.ctx, askTimeout)
	m.askSeq++
	m.askCancel = cancel
	seq := m.askSeq

	return func() (msg tea.Msg) {
		defer cancel()

		// A panic anywhere below would otherwise lock the interface
		// in the thinking state.
		defer func() {
			if r := recover(); r != nil {
				msg = askErrorMsg{seq: seq, err: fmt.Errorf("ask panic: %v", r)}
			}
		}()

		answer, err := m.pipe.Ask(ctx, query)
		if err != nil {
			// Surface the cause the handler can branch on: a canceled
			// or expired context beats the wrapped store error.
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			return askErrorMsg{seq: seq, err: err}
		}
		return askDoneMsg{seq: seq, answer: answer}
	}
}
