package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"snowsearch/internal/ui"
	"snowsearch/pkg/errors"
	"snowsearch/pkg/models"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administration",
	Long:  "Manage announcements and inspect table metadata.",
}

var announceCmd = &cobra.Command{
	Use:   "announce",
	Short: "Manage announcements",
	RunE:  runAnnounce,
}

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Inspect a table's columns",
	RunE:  runDescribe,
}

func init() {
	adminCmd.AddCommand(announceCmd, describeCmd)
	rootCmd.AddCommand(adminCmd)
}

var announcementTypes = []string{
	models.AnnouncementInfo,
	models.AnnouncementSuccess,
	models.AnnouncementWarning,
	models.AnnouncementError,
}

func runAnnounce(cmd *cobra.Command, args []string) error {
	a, err := connectApp()
	if err != nil {
		return err
	}
	defer a.Close()

	for {
		action, err := ui.Select("Announcements:", []string{
			"list", "create", "update", "toggle visibility", "delete", "stats", "quit",
		})
		if err != nil {
			return err
		}
		switch action {
		case "list":
			err = listAnnouncements(a)
		case "create":
			err = createAnnouncement(a)
		case "update":
			err = updateAnnouncement(a)
		case "toggle visibility":
			err = withAnnouncement(a, func(n models.Announcement) error {
				if err := a.notices.ToggleVisibility(n.AnnouncementID); err != nil {
					return err
				}
				ui.ShowSuccess(fmt.Sprintf("Toggled %q", n.Title))
				return nil
			})
		case "delete":
			err = withAnnouncement(a, func(n models.Announcement) error {
				ok, err := ui.Confirm(fmt.Sprintf("Delete %q?", n.Title), false)
				if err != nil || !ok {
					return err
				}
				if err := a.notices.Delete(n.AnnouncementID); err != nil {
					return err
				}
				ui.ShowSuccess(fmt.Sprintf("Deleted %q", n.Title))
				return nil
			})
		case "stats":
			err = showAnnouncementStats(a)
		default:
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func listAnnouncements(a *app) error {
	notices, err := a.notices.List()
	if err != nil {
		return err
	}
	if len(notices) == 0 {
		ui.ShowInfo("No announcements")
		return nil
	}
	table := ui.NewTable()
	table.AddHeader("ID", "Type", "Title", "Window", "Priority", "Visible")
	for _, n := range notices {
		window := fmt.Sprintf("%s .. %s",
			n.StartDate.Format("2006-01-02"), n.EndDate.Format("2006-01-02"))
		visible := "no"
		if n.Show {
			visible = "yes"
		}
		table.AddRow(n.AnnouncementID, n.Type, n.Title, window,
			strconv.Itoa(n.Priority), visible)
	}
	table.Render()
	return nil
}

func createAnnouncement(a *app) error {
	n, err := promptAnnouncement(models.Announcement{
		Type:      models.AnnouncementInfo,
		StartDate: time.Now(),
		EndDate:   time.Now().AddDate(0, 0, 7),
		Priority:  2,
		Show:      true,
	})
	if err != nil {
		return err
	}
	n.AnnouncementID = fmt.Sprintf("ann_%s", uuid.New().String()[:12])
	if err := a.notices.Save(n); err != nil {
		return err
	}
	ui.ShowSuccess(fmt.Sprintf("Created announcement %q", n.Title))
	return nil
}

func updateAnnouncement(a *app) error {
	return withAnnouncement(a, func(existing models.Announcement) error {
		n, err := promptAnnouncement(existing)
		if err != nil {
			return err
		}
		n.AnnouncementID = existing.AnnouncementID
		if err := a.notices.Update(n); err != nil {
			return err
		}
		ui.ShowSuccess(fmt.Sprintf("Updated %q", n.Title))
		return nil
	})
}

func promptAnnouncement(defaults models.Announcement) (models.Announcement, error) {
	var n models.Announcement
	var err error

	n.Type, err = ui.Select("Type:", announcementTypes)
	if err != nil {
		return n, err
	}
	n.Title, err = ui.Input("Title:", defaults.Title, "")
	if err != nil {
		return n, err
	}
	if n.Title == "" {
		return n, errors.ValidationError("title", n.Title, "a title is required")
	}
	n.Message, err = ui.Input("Message:", defaults.Message, "")
	if err != nil {
		return n, err
	}

	start, err := ui.Input("Start date:", defaults.StartDate.Format("2006-01-02"), "YYYY-MM-DD")
	if err != nil {
		return n, err
	}
	n.StartDate, err = time.Parse("2006-01-02", start)
	if err != nil {
		return n, errors.ValidationError("start_date", start, "expected YYYY-MM-DD")
	}
	end, err := ui.Input("End date:", defaults.EndDate.Format("2006-01-02"), "YYYY-MM-DD")
	if err != nil {
		return n, err
	}
	n.EndDate, err = time.Parse("2006-01-02", end)
	if err != nil {
		return n, errors.ValidationError("end_date", end, "expected YYYY-MM-DD")
	}

	priority, err := ui.Select("Priority:", []string{"1 (high)", "2 (normal)", "3 (low)"})
	if err != nil {
		return n, err
	}
	n.Priority = int(priority[0] - '0')

	n.Show, err = ui.Confirm("Visible?", defaults.Show)
	return n, err
}

func withAnnouncement(a *app, fn func(models.Announcement) error) error {
	notices, err := a.notices.List()
	if err != nil {
		return err
	}
	if len(notices) == 0 {
		ui.ShowInfo("No announcements")
		return nil
	}
	labels := make([]string, len(notices))
	for i, n := range notices {
		labels[i] = fmt.Sprintf("%s [%s] (%s)", n.Title, n.Type, n.AnnouncementID)
	}
	label, err := ui.Select("Announcement:", labels)
	if err != nil {
		return err
	}
	for i, l := range labels {
		if l == label {
			return fn(notices[i])
		}
	}
	return errors.New(errors.ErrCodeObjectNotFound, "Announcement not found")
}

func showAnnouncementStats(a *app) error {
	stats, err := a.notices.Stats(time.Now())
	if err != nil {
		return err
	}
	ui.PrintSection("Announcement stats")
	ui.PrintKeyValue("Total", strconv.Itoa(stats.Total))
	ui.PrintKeyValue("Active today", strconv.Itoa(stats.Active))
	ui.PrintKeyValue("Hidden", strconv.Itoa(stats.Hidden))
	for _, t := range announcementTypes {
		if count := stats.ByType[t]; count > 0 {
			ui.PrintKeyValue(t, strconv.Itoa(count))
		}
	}
	return nil
}

func runDescribe(cmd *cobra.Command, args []string) error {
	a, err := connectApp()
	if err != nil {
		return err
	}
	defer a.Close()

	database, schema, err := a.selectDatabaseSchema()
	if err != nil {
		return err
	}
	name, err := a.selectRelation(database, schema)
	if err != nil {
		return err
	}
	columns, err := a.service.DescribeTable(database, schema, name)
	if err != nil {
		return err
	}

	ui.PrintSection(fmt.Sprintf("%s.%s.%s", database, schema, name))
	table := ui.NewTable()
	table.AddHeader("Column", "Type")
	for _, col := range columns {
		table.AddRow(col.Name, col.Type)
	}
	table.Render()
	return nil
}
