package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"snowsearch/internal/ui"
)

var homeCmd = &cobra.Command{
	Use:   "home",
	Short: "Show the dashboard",
	Long:  "Displays active announcements, saved-search counts and the current data context.",
	RunE:  runHome,
}

func init() {
	rootCmd.AddCommand(homeCmd)
}

func runHome(cmd *cobra.Command, args []string) error {
	a, err := connectApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ui.ShowLogo()

	announcements, err := a.notices.ListActive(time.Now())
	if err != nil {
		return err
	}
	if len(announcements) > 0 {
		ui.PrintSection("Announcements")
		for _, ann := range announcements {
			fmt.Println(ui.AnnouncementBanner(ann.Type, ann.Title, ann.Message))
		}
	}

	ui.PrintSection("Saved searches")
	standardCount, err := a.searches.Count()
	if err != nil {
		return err
	}
	adhocCount, err := a.adhoc.Count()
	if err != nil {
		return err
	}
	ui.PrintKeyValue("Templated", fmt.Sprintf("%d", standardCount))
	ui.PrintKeyValue("Ad-hoc", fmt.Sprintf("%d", adhocCount))

	recent, err := a.searches.List()
	if err != nil {
		return err
	}
	var lastRun time.Time
	for _, obj := range recent {
		if obj.LastExecuted != nil && obj.LastExecuted.After(lastRun) {
			lastRun = *obj.LastExecuted
		}
	}
	if !lastRun.IsZero() {
		ui.PrintKeyValue("Last executed", lastRun.Format("2006-01-02 15:04"))
	}

	ui.PrintSection("Data context")
	ui.PrintKeyValue("Account", a.cfg.Snowflake.Account)
	ui.PrintKeyValue("Database", a.cfg.Snowflake.Database)
	ui.PrintKeyValue("Schema", a.cfg.Snowflake.Schema)
	ui.PrintKeyValue("Warehouse", a.cfg.Snowflake.Warehouse)
	return nil
}
