package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/concierge/internal/presentation/tui"
	"github.com/aretw0/concierge/pkg/runner"
)

// ChatOptions configures an interactive conversation.
type ChatOptions struct {
	ConversationID string
	// JSON switches to JSON Lines on both ends, for scripting.
	JSON bool
	// Fresh drops any open form of the conversation first.
	Fresh bool
	// Greet asks the engine for an opening turn before the first read.
	Greet bool
	In    io.Reader
	Out   io.Writer
}

// RunChat drives one conversation over the given streams until EOF, a quit
// command or ctx cancellation.
func RunChat(ctx context.Context, app *App, opts ChatOptions) error {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.ConversationID == "" {
		opts.ConversationID = runner.DefaultConversationID
	}

	if opts.Fresh {
		if err := app.Engine.Abandon(ctx, opts.ConversationID); err != nil {
			return fmt.Errorf("reset conversation: %w", err)
		}
	}

	var handler runner.IOHandler
	if opts.JSON {
		handler = runner.NewJSONHandler(opts.In, opts.Out)
	} else {
		tui.PrintBanner(opts.Out)
		tui.Hint(opts.Out, "Escreve /sair para terminar.")
		handler = runner.NewTextHandler(opts.In, opts.Out, textOptions(app, opts.Out)...)
	}

	if app.Config.SessionTTL > 0 {
		reapCtx, stop := context.WithCancel(ctx)
		defer stop()
		app.Engine.StartReaper(reapCtx, app.Config.ReapInterval)
	}

	r := runner.NewRunner(
		runner.WithInputHandler(handler),
		runner.WithLogger(app.Logger),
		runner.WithConversationID(opts.ConversationID),
		runner.WithGreeting(opts.Greet),
	)
	err := handleExecutionError(r.Run(ctx, app.Engine))
	if err == nil && !opts.JSON {
		printSystemMessage(opts.Out, "Conversa '%s' terminada.", opts.ConversationID)
	}
	return err
}

// textOptions renders markdown only when writing to a terminal.
func textOptions(app *App, out io.Writer) []runner.TextHandlerOption {
	f, ok := out.(*os.File)
	if !ok || !tui.IsTerminal(f) {
		return nil
	}
	render, err := tui.NewRenderer(tui.Width(f))
	if err != nil {
		app.Logger.Warn("markdown renderer unavailable", "err", err)
		return nil
	}
	return []runner.TextHandlerOption{runner.WithTextHandlerRenderer(render)}
}
