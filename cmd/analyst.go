package cmd

import (
	"github.com/spf13/cobra"

	"snowsearch/internal/ui"
)

var analystCmd = &cobra.Command{
	Use:   "analyst",
	Short: "Natural-language analysis (temporarily unavailable)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ui.ShowWarning("The analyst assistant is temporarily unavailable.")
		ui.ShowInfo("Use 'snowsearch search' or 'snowsearch adhoc' to query your data directly.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analystCmd)
}
