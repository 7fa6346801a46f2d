package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/concierge/pkg/domain"
)

func TestJSONHandler_Input(t *testing.T) {
	input := `{"text": "abono de família"}
"Ricardo Gomes"
texto simples
`
	handler := NewJSONHandler(strings.NewReader(input), &bytes.Buffer{})
	ctx := context.Background()

	for _, want := range []string{"abono de família", "Ricardo Gomes", "texto simples"} {
		got, err := handler.Input(ctx)
		if err != nil {
			t.Fatalf("Input failed: %v", err)
		}
		if got != want {
			t.Errorf("Expected %q, got %q", want, got)
		}
	}

	if _, err := handler.Input(ctx); !errors.Is(err, io.EOF) {
		t.Errorf("Expected EOF, got %v", err)
	}
}

func TestJSONHandler_Output(t *testing.T) {
	outBuf := &bytes.Buffer{}
	handler := NewJSONHandler(strings.NewReader(""), outBuf)

	reply := domain.Reply{Text: "Olá", Progress: &domain.Progress{FormID: "f", TotalRequired: 2}}
	if err := handler.Output(context.Background(), reply); err != nil {
		t.Fatalf("Output failed: %v", err)
	}
	if err := handler.SystemOutput(context.Background(), "aviso"); err != nil {
		t.Fatalf("SystemOutput failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(outBuf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 JSON lines, got %d: %q", len(lines), outBuf.String())
	}

	var got domain.Reply
	if err := json.Unmarshal([]byte(lines[0]), &got); err != nil {
		t.Fatalf("Invalid reply JSON: %v", err)
	}
	if got.Text != "Olá" || got.Progress == nil || got.Progress.TotalRequired != 2 {
		t.Errorf("Unexpected reply: %+v", got)
	}
	if lines[1] != `{"system":"aviso"}` {
		t.Errorf("Unexpected system line: %s", lines[1])
	}
}
