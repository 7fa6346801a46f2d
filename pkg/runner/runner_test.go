package runner

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/concierge/pkg/adapters/memory"
	"github.com/aretw0/concierge/pkg/catalog"
	"github.com/aretw0/concierge/pkg/dialogue"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/ports"
	"github.com/aretw0/concierge/pkg/session"
)

type fakeConversation struct {
	seen   []string
	err    error
	greets int
}

func (f *fakeConversation) Process(_ context.Context, conversationID, utterance string) (domain.Reply, error) {
	f.seen = append(f.seen, conversationID+":"+utterance)
	return domain.Reply{Text: "echo " + utterance}, f.err
}

func (f *fakeConversation) Greet(context.Context, string) domain.Reply {
	f.greets++
	return domain.Reply{Text: "bem-vindo"}
}

func TestRunner_Run_BasicFlow(t *testing.T) {
	c, err := catalog.Builtin()
	if err != nil {
		t.Fatalf("Failed to load catalog: %v", err)
	}
	engine := dialogue.New(c, session.NewManager(memory.NewStore()), memory.NewDocumentStore(),
		ports.ResponderFunc(func(context.Context, ports.ResponderRequest) (string, error) {
			return "Olá!", nil
		}))

	inputBuf := bytes.NewBufferString("bom dia\nquero pedir abono de família\nRicardo Gomes\n")
	outputBuf := &bytes.Buffer{}

	r := NewRunner(WithInputHandler(NewTextHandler(inputBuf, outputBuf)), WithConversationID("t1"))

	done := make(chan error)
	go func() {
		done <- r.Run(context.Background(), engine)
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Runner failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Runner timed out")
	}

	output := outputBuf.String()
	for _, want := range []string{"Olá!", "nome completo do requerente", "[Pedido de Abono de Família 1/8] NIF do Requerente"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, output)
		}
	}
}

func TestRunner_GreetingAndQuit(t *testing.T) {
	conv := &fakeConversation{}
	out := &bytes.Buffer{}
	r := NewRunner(
		WithInputHandler(NewTextHandler(strings.NewReader("olá\n/sair\nnunca lido\n"), out)),
		WithGreeting(true),
	)

	if err := r.Run(context.Background(), conv); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if conv.greets != 1 {
		t.Errorf("Expected one greeting, got %d", conv.greets)
	}
	if len(conv.seen) != 1 || conv.seen[0] != DefaultConversationID+":olá" {
		t.Errorf("Unexpected turns: %v", conv.seen)
	}
	if !strings.HasPrefix(out.String(), "bem-vindo\n") {
		t.Errorf("Expected greeting first, got %q", out.String())
	}
}

func TestRunner_LastLineWithoutNewline(t *testing.T) {
	conv := &fakeConversation{}
	r := NewRunner(WithInputHandler(NewTextHandler(strings.NewReader("primeira\nsegunda"), &bytes.Buffer{})))

	if err := r.Run(context.Background(), conv); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(conv.seen) != 2 {
		t.Errorf("Expected both lines to be processed, got %v", conv.seen)
	}
}

func TestRunner_RejectsOversizedInput(t *testing.T) {
	t.Setenv(EnvMaxInputSize, "8")
	conv := &fakeConversation{}
	out := &bytes.Buffer{}
	r := NewRunner(WithInputHandler(NewTextHandler(strings.NewReader("muito comprido demais\nok\n"), out)))

	if err := r.Run(context.Background(), conv); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(conv.seen) != 1 || conv.seen[0] != DefaultConversationID+":ok" {
		t.Errorf("Expected only the short line, got %v", conv.seen)
	}
	if !strings.Contains(out.String(), "[sistema] input exceeds maximum allowed size") {
		t.Errorf("Expected a system message, got %q", out.String())
	}
}

func TestRunner_EngineError(t *testing.T) {
	conv := &fakeConversation{err: errors.New("store down")}
	r := NewRunner(WithInputHandler(NewTextHandler(strings.NewReader("olá\n"), &bytes.Buffer{})))

	err := r.Run(context.Background(), conv)
	if err == nil || !strings.Contains(err.Error(), "store down") {
		t.Errorf("Expected engine error, got %v", err)
	}
}

// blockingReader never returns, like an idle terminal.
type blockingReader struct{ ch chan struct{} }

func (b blockingReader) Read([]byte) (int, error) {
	<-b.ch
	return 0, errors.New("closed")
}

func TestRunner_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	block := blockingReader{ch: make(chan struct{})}
	defer close(block.ch)

	r := NewRunner(WithInputHandler(NewTextHandler(block, &bytes.Buffer{})))
	done := make(chan error)
	go func() {
		done <- r.Run(ctx, &fakeConversation{})
	}()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected clean stop, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Runner did not stop on cancel")
	}
}
