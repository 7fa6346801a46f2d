/*
Package runner drives a conversation from a line-oriented frontend.

It reads utterances through an IOHandler, cleans them with SanitizeInput, hands
them to the engine and writes the replies back. Two handlers are provided:
TextHandler for interactive terminals and JSONHandler for JSON-Lines pipes.

# Usage

	r := runner.NewRunner(
		runner.WithConversationID("terminal"),
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
		runner.WithGreeting(true),
	)

	if err := r.Run(ctx, engine); err != nil {
		log.Fatal(err)
	}
*/
package runner
