package runner

import (
	"context"
	"io"

	"github.com/aretw0/concierge/pkg/domain"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents an engine reply to the user.
	Output(ctx context.Context, reply domain.Reply) error

	// Input reads the next utterance. It returns io.EOF when the user is done.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message (e.g. a rejected input).
	// This is distinct from engine replies.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer is a function that transforms the content before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// Conversation is the engine surface the runner needs.
type Conversation interface {
	Process(ctx context.Context, conversationID, utterance string) (domain.Reply, error)
	Greet(ctx context.Context, conversationID string) domain.Reply
}

// lineReader pumps lines from a blocking reader so Input can honor ctx.
type lineReader struct {
	lines chan lineResult
}

type lineResult struct {
	text string
	err  error
}

func newLineReader(next func() (string, error)) *lineReader {
	lr := &lineReader{lines: make(chan lineResult)}
	go func() {
		for {
			text, err := next()
			lr.lines <- lineResult{text: text, err: err}
			if err != nil {
				close(lr.lines)
				return
			}
		}
	}()
	return lr
}

func (lr *lineReader) read(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-lr.lines:
		if !ok {
			return "", io.EOF
		}
		return res.text, res.err
	}
}
