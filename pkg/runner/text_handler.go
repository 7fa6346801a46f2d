package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/concierge/pkg/domain"
)

// TextHandler implements the standard text-based interface.
type TextHandler struct {
	Writer   io.Writer
	Renderer ContentRenderer
	// Prompt is printed before each read.
	Prompt string

	reader *bufio.Reader
	lines  *lineReader
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Writer: w,
		Prompt: "> ",
		reader: bufio.NewReader(r),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) Output(ctx context.Context, reply domain.Reply) error {
	output := reply.Text
	if h.Renderer != nil {
		if rendered, err := h.Renderer(output); err == nil {
			output = rendered
		}
	}
	if _, err := fmt.Fprintln(h.Writer, strings.TrimSpace(output)); err != nil {
		return err
	}

	if p := reply.Progress; p != nil {
		line := fmt.Sprintf("[%s %d/%d]", p.FormName, p.FilledCount, p.TotalRequired)
		if p.NextFieldLabel != nil {
			line += " " + *p.NextFieldLabel
		}
		if _, err := fmt.Fprintln(h.Writer, line); err != nil {
			return err
		}
	}
	if d := reply.Document; d != nil {
		if _, err := fmt.Fprintf(h.Writer, "[documento] %s (%s)\n", d.Name, d.ID); err != nil {
			return err
		}
	}
	return nil
}

func (h *TextHandler) Input(ctx context.Context) (string, error) {
	if h.Prompt != "" {
		fmt.Fprint(h.Writer, h.Prompt)
	}
	if h.lines == nil {
		h.lines = newLineReader(func() (string, error) {
			return h.reader.ReadString('\n')
		})
	}
	text, err := h.lines.read(ctx)
	return strings.TrimSpace(text), err
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	_, err := fmt.Fprintf(h.Writer, "[sistema] %s\n", msg)
	return err
}
