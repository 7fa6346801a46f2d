package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aretw0/concierge/internal/logging"
)

// DefaultConversationID is used when none is configured.
const DefaultConversationID = "local"

// quitCommands end the loop without reaching the engine.
var quitCommands = []string{"/sair", "/quit", "/exit"}

// Runner handles the chat loop of one conversation using provided IO.
// It uses an IOHandler strategy to abstract the interaction mode (Text vs JSON).
type Runner struct {
	// Handler is the strategy for IO. Defaults to a TextHandler on Stdin/Stdout.
	Handler IOHandler

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	// ConversationID identifies the conversation in the engine.
	ConversationID string

	// Greeting asks the engine for an opening analysis before the first read.
	Greeting bool

	// Signals makes Run stop on SIGINT and SIGTERM.
	Signals bool
}

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

func WithConversationID(id string) Option {
	return func(r *Runner) {
		r.ConversationID = id
	}
}

// WithGreeting enables the opening analysis turn.
func WithGreeting(enabled bool) Option {
	return func(r *Runner) {
		r.Greeting = enabled
	}
}

// WithSignals enables graceful shutdown on Ctrl+C.
func WithSignals(enabled bool) Option {
	return func(r *Runner) {
		r.Signals = enabled
	}
}

// NewRunner creates a new Runner with default Stdin/Stdout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{ConversationID: DefaultConversationID}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	if r.Logger == nil {
		r.Logger = logging.NewNop()
	}
	return r
}

// Run reads utterances until EOF, a quit command or ctx cancellation, which
// all end the loop without error. Engine errors end it with the error.
func (r *Runner) Run(ctx context.Context, conv Conversation) error {
	if r.Signals {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
	}

	if r.Greeting {
		if err := r.Handler.Output(ctx, conv.Greet(ctx, r.ConversationID)); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}

	for {
		text, readErr := r.Handler.Input(ctx)
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			if ctx.Err() != nil {
				r.Logger.Debug("runner stopped", "conversation_id", r.ConversationID)
				return nil
			}
			return fmt.Errorf("input error: %w", readErr)
		}

		if isQuit(text) {
			return nil
		}
		if strings.TrimSpace(text) != "" {
			if err := r.turn(ctx, conv, text); err != nil {
				return err
			}
		}

		if readErr != nil {
			return nil
		}
	}
}

func (r *Runner) turn(ctx context.Context, conv Conversation, text string) error {
	clean, err := SanitizeInput(text)
	if err != nil {
		r.Logger.Warn("input rejected", "conversation_id", r.ConversationID, "err", err)
		return r.Handler.SystemOutput(ctx, err.Error())
	}

	reply, err := conv.Process(ctx, r.ConversationID, clean)
	if err != nil {
		return fmt.Errorf("process error: %w", err)
	}
	if err := r.Handler.Output(ctx, reply); err != nil {
		return fmt.Errorf("output error: %w", err)
	}
	return nil
}

func isQuit(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	for _, q := range quitCommands {
		if t == q {
			return true
		}
	}
	return false
}
