package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"snowsearch/internal/bootstrap"
	"snowsearch/internal/store"
	"snowsearch/internal/ui"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Provision the application schema and apply setup SQL",
	Long: "Creates the application tables and, when a setup repository is " +
		"configured, syncs it and applies its SQL scripts in order.",
	RunE: runBootstrap,
}

func init() {
	rootCmd.AddCommand(bootstrapCmd)
}

func runBootstrap(cmd *cobra.Command, args []string) error {
	a, err := connectApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := store.EnsureSchema(a.service.GetDB(), a.cfg.App.QualifiedAppSchema()); err != nil {
		return err
	}
	ui.ShowSuccess("Application tables are ready")

	if a.cfg.Bootstrap.GitURL == "" {
		ui.ShowInfo("No setup repository configured, nothing more to apply")
		return nil
	}

	svc := bootstrap.NewService()
	repoPath, err := svc.Sync(a.cfg.Bootstrap)
	if err != nil {
		return err
	}
	ui.ShowInfo(fmt.Sprintf("Synced setup repository to %s", repoPath))

	applied, err := svc.Apply(a.service, repoPath, a.cfg.Bootstrap.Path)
	if err != nil {
		return err
	}
	for _, name := range applied {
		ui.PrintKeyValue("applied", name)
	}
	ui.ShowSuccess(fmt.Sprintf("Applied %d setup script(s)", len(applied)))
	return nil
}
