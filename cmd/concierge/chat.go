package main

import (
	"github.com/aretw0/concierge/internal/cli"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the engine in the terminal",
	Long: `Starts an interactive conversation on stdin/stdout. With --json, every
input line is {"text": "..."} and every reply is written as one JSON object.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		jsonMode, _ := cmd.Flags().GetBool("json")
		conversationID, _ := cmd.Flags().GetString("conversation")
		fresh, _ := cmd.Flags().GetBool("fresh")
		greet, _ := cmd.Flags().GetBool("greet")

		return cli.RunChat(cmd.Context(), app, cli.ChatOptions{
			ConversationID: conversationID,
			JSON:           jsonMode,
			Fresh:          fresh,
			Greet:          greet,
			In:             cmd.InOrStdin(),
			Out:            cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().Bool("json", false, "Read and write JSON Lines")
	chatCmd.Flags().StringP("conversation", "c", "local", "Conversation ID; reuse it to resume a form")
	chatCmd.Flags().Bool("fresh", false, "Drop any open form of the conversation first")
	chatCmd.Flags().Bool("greet", false, "Let the assistant open the conversation")
}
