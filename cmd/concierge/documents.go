package main

import (
	"github.com/aretw0/concierge/internal/cli"
	"github.com/spf13/cobra"
)

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs"},
	Short:   "List generated documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		conversationID, _ := cmd.Flags().GetString("conversation")
		asJSON, _ := cmd.Flags().GetBool("json")
		return cli.ListDocuments(cmd.Context(), app, conversationID, asJSON, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(documentsCmd)
	documentsCmd.Flags().StringP("conversation", "c", "", "Only documents of this conversation")
	documentsCmd.Flags().Bool("json", false, "Print as JSON")
}
