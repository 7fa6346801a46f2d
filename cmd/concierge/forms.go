package main

import (
	"github.com/aretw0/concierge/internal/cli"
	"github.com/spf13/cobra"
)

var formsCmd = &cobra.Command{
	Use:   "forms",
	Short: "Inspect the form catalog",
}

var formsListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List forms in trigger priority order",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		c, err := cli.LoadCatalog(cmd.Context(), cfg.FormsDir)
		if err != nil {
			return err
		}
		return cli.ListForms(c, cmd.OutOrStdout())
	},
}

var formsShowCmd = &cobra.Command{
	Use:   "show [form-id]",
	Short: "Print one form as JSON or as a Mermaid chart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		c, err := cli.LoadCatalog(cmd.Context(), cfg.FormsDir)
		if err != nil {
			return err
		}
		mermaid, _ := cmd.Flags().GetBool("mermaid")
		return cli.ShowForm(c, args[0], mermaid, cmd.OutOrStdout())
	},
}

var formsValidateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Check that a directory of form definitions loads",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		dir := cfg.FormsDir
		if len(args) > 0 {
			dir = args[0]
		}
		return cli.ValidateForms(cmd.Context(), dir, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(formsCmd)
	formsCmd.AddCommand(formsListCmd, formsShowCmd, formsValidateCmd)
	formsShowCmd.Flags().Bool("mermaid", false, "Print a Mermaid flowchart of the field order")
}
