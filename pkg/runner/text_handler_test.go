package runner

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aretw0/concierge/pkg/domain"
)

func TestTextHandler_Output(t *testing.T) {
	outBuf := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader(""), outBuf)

	handler.Renderer = func(s string) (string, error) {
		return "Rendered: " + s, nil
	}

	next := "NIF"
	reply := domain.Reply{
		Text:     "Qual é o teu NIF?",
		Progress: &domain.Progress{FormName: "Abono", FilledCount: 1, TotalRequired: 8, NextFieldLabel: &next},
	}
	if err := handler.Output(context.Background(), reply); err != nil {
		t.Fatalf("Output failed: %v", err)
	}

	expected := "Rendered: Qual é o teu NIF?\n[Abono 1/8] NIF\n"
	if outBuf.String() != expected {
		t.Errorf("Expected %q, got %q", expected, outBuf.String())
	}
}

func TestTextHandler_OutputDocument(t *testing.T) {
	outBuf := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader(""), outBuf)

	err := handler.Output(context.Background(), domain.Reply{
		Text:     "Ótimo!",
		Document: &domain.Document{ID: "form-s1", Name: "Abono - Preenchido"},
	})
	if err != nil {
		t.Fatalf("Output failed: %v", err)
	}
	if !strings.Contains(outBuf.String(), "[documento] Abono - Preenchido (form-s1)") {
		t.Errorf("Expected document line, got %q", outBuf.String())
	}
}

func TestTextHandler_Input(t *testing.T) {
	outBuf := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader("  Ricardo Gomes  \n"), outBuf)

	got, err := handler.Input(context.Background())
	if err != nil {
		t.Fatalf("Input failed: %v", err)
	}
	if got != "Ricardo Gomes" {
		t.Errorf("Expected trimmed input, got %q", got)
	}
	if outBuf.String() != "> " {
		t.Errorf("Expected prompt, got %q", outBuf.String())
	}
}
