package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/aretw0/concierge/pkg/domain"
)

// JSONHandler implements the IOHandler interface for structured JSON-Lines
// communication. Each reply is written as one JSON object per line.
type JSONHandler struct {
	Writer  io.Writer
	Encoder *json.Encoder

	reader *bufio.Reader
	lines  *lineReader
}

// jsonInput is the object form of an input line.
type jsonInput struct {
	Text string `json:"text"`
}

// systemMessage is written for meta-messages.
type systemMessage struct {
	System string `json:"system"`
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Writer:  w,
		Encoder: json.NewEncoder(w),
		reader:  bufio.NewReader(r),
	}
}

func (h *JSONHandler) Output(ctx context.Context, reply domain.Reply) error {
	return h.Encoder.Encode(reply)
}

// Input accepts {"text": "..."}, a JSON string or a raw line.
func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	if h.lines == nil {
		h.lines = newLineReader(func() (string, error) {
			return h.reader.ReadString('\n')
		})
	}
	line, err := h.lines.read(ctx)
	line = strings.TrimSpace(line)

	var obj jsonInput
	if jerr := json.Unmarshal([]byte(line), &obj); jerr == nil {
		return obj.Text, err
	}
	var val string
	if jerr := json.Unmarshal([]byte(line), &val); jerr == nil {
		return val, err
	}
	return line, err
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode(systemMessage{System: msg})
}
