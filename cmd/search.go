package cmd

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"snowsearch/internal/query"
	"snowsearch/internal/ui"
	"snowsearch/pkg/errors"
	"snowsearch/pkg/models"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Templated searches",
	Long: "Create, list and run saved templated searches. Every definition " +
		"anchors on a required date range over a date-like column.",
}

var searchCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Build and save a new templated search",
	RunE:  runSearchCreate,
}

var searchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved templated searches",
	RunE:  runSearchList,
}

var searchRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a saved templated search",
	RunE:  runSearchRun,
}

var searchFavoriteCmd = &cobra.Command{
	Use:   "favorite",
	Short: "Toggle a search's favorite flag",
	RunE:  runSearchFavorite,
}

var searchDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a saved search",
	RunE:  runSearchDelete,
}

var (
	searchAllRows   bool
	searchLimit     int
	searchExportCSV string
	searchFavorites bool
	searchShowSQL   bool
)

func init() {
	searchRunCmd.Flags().BoolVar(&searchAllRows, "all-rows", false, "fetch all rows, skipping the row limit")
	searchRunCmd.Flags().IntVar(&searchLimit, "limit", 0, "row limit, defaults to the configured value")
	searchRunCmd.Flags().StringVar(&searchExportCSV, "export", "", "write the result to a CSV file")
	searchRunCmd.Flags().BoolVar(&searchShowSQL, "show-sql", false, "print the executed SQL")
	searchListCmd.Flags().BoolVar(&searchFavorites, "favorites", false, "only favorited searches")

	searchCmd.AddCommand(searchCreateCmd, searchListCmd, searchRunCmd, searchFavoriteCmd, searchDeleteCmd)
	rootCmd.AddCommand(searchCmd)
}

func runSearchCreate(cmd *cobra.Command, args []string) error {
	a, err := connectApp()
	if err != nil {
		return err
	}
	defer a.Close()

	database, schema, err := a.selectDatabaseSchema()
	if err != nil {
		return err
	}
	table, err := a.selectRelation(database, schema)
	if err != nil {
		return err
	}

	columns, err := a.service.DescribeTable(database, schema, table)
	if err != nil {
		return err
	}

	def := query.SearchDefinition{
		Database: database,
		Schema:   schema,
		Table:    table,
	}

	// Output columns, empty selection means all
	options := make([]string, len(columns))
	for i, col := range columns {
		options[i] = col.Name
	}
	def.Columns, err = ui.MultiSelect("Output columns (none for all):", options)
	if err != nil {
		return err
	}

	// The date range condition is mandatory
	var dateOptions []string
	for _, col := range columns {
		if query.IsDateLikeColumn(col.Name, col.Type) {
			dateOptions = append(dateOptions, col.Name)
		}
	}
	if len(dateOptions) == 0 {
		return errors.New(errors.ErrCodeValidationFailed,
			"Table has no date-like column for the required date range").
			WithSuggestions("Pick a table with a DATE/TIMESTAMP column or a date-named column")
	}
	dateCol, err := ui.Select("Date column (required):", dateOptions)
	if err != nil {
		return err
	}
	defaultStart := time.Now().AddDate(0, 0, -30).Format("2006-01-02")
	start, err := ui.Input("Start date:", defaultStart, "YYYY-MM-DD")
	if err != nil {
		return err
	}
	end, err := ui.Input("End date:", time.Now().Format("2006-01-02"), "YYYY-MM-DD")
	if err != nil {
		return err
	}
	def.Date = query.DateCondition{Column: dateCol, StartDate: start, EndDate: end}

	// Additional conditions
	for {
		more, err := ui.Confirm("Add a WHERE condition?", false)
		if err != nil {
			return err
		}
		if !more {
			break
		}
		col, err := ui.Select("Column:", options)
		if err != nil {
			return err
		}
		op, err := ui.Select("Operator:", query.SearchOperators)
		if err != nil {
			return err
		}
		value, err := ui.Input("Value:", "", "LIKE values are wrapped in % automatically")
		if err != nil {
			return err
		}
		def.Where = append(def.Where, query.WhereCondition{Column: col, Operator: op, Value: value})
	}

	for {
		more, err := ui.Confirm("Add an ORDER BY?", false)
		if err != nil {
			return err
		}
		if !more {
			break
		}
		col, err := ui.Select("Sort column:", options)
		if err != nil {
			return err
		}
		dir, err := ui.Select("Direction:", []string{"ASC", "DESC"})
		if err != nil {
			return err
		}
		def.OrderBy = append(def.OrderBy, query.OrderByCondition{Column: col, Direction: dir})
	}

	sql, err := def.Build()
	if err != nil {
		return err
	}
	ui.PrintSection("Generated SQL")
	fmt.Println(sql)

	name, err := ui.Input("Search name:", "", "")
	if err != nil {
		return err
	}
	if name == "" {
		return errors.ValidationError("name", name, "a search name is required")
	}
	description, err := ui.Input("Description:", "", "")
	if err != nil {
		return err
	}

	obj := models.SearchObject{
		ObjectID:    fmt.Sprintf("obj_%s", uuid.New().String()[:12]),
		ObjectName:  name,
		Description: description,
		SearchQuery: sql,
	}
	if err := a.searches.Save(obj); err != nil {
		return err
	}
	ui.ShowSuccess(fmt.Sprintf("Saved search %q", name))
	return nil
}

func runSearchList(cmd *cobra.Command, args []string) error {
	a, err := connectApp()
	if err != nil {
		return err
	}
	defer a.Close()

	var objects []models.SearchObject
	if searchFavorites {
		objects, err = a.searches.ListFavorites()
	} else {
		objects, err = a.searches.List()
	}
	if err != nil {
		return err
	}
	if len(objects) == 0 {
		ui.ShowInfo("No saved searches")
		return nil
	}

	table := ui.NewTable()
	table.AddHeader("ID", "Name", "Favorite", "Runs", "Last executed")
	for _, obj := range objects {
		fav := ""
		if obj.IsFavorite {
			fav = "*"
		}
		last := ""
		if obj.LastExecuted != nil {
			last = obj.LastExecuted.Format("2006-01-02 15:04")
		}
		table.AddRow(obj.ObjectID, obj.ObjectName, fav, fmt.Sprintf("%d", obj.ExecutionCount), last)
	}
	table.Render()
	return nil
}

func runSearchRun(cmd *cobra.Command, args []string) error {
	a, err := connectApp()
	if err != nil {
		return err
	}
	defer a.Close()

	obj, err := pickSearchObject(a)
	if err != nil {
		return err
	}

	sql := obj.SearchQuery
	if !searchAllRows {
		limit := searchLimit
		if limit <= 0 {
			limit = a.defaultLimit()
		}
		sql = query.ApplyLimit(sql, limit)
	}
	if searchShowSQL {
		ui.PrintSection("SQL")
		fmt.Println(sql)
	}

	rs, err := a.runWithPreflight(sql)
	if err != nil {
		return err
	}

	if err := a.searches.RecordExecution(obj.ObjectID); err != nil {
		ui.ShowWarning(fmt.Sprintf("Could not record execution: %v", err))
	}

	ui.NewResultRenderer().Display(rs)

	if searchExportCSV != "" {
		if err := ui.ExportCSV(searchExportCSV, rs); err != nil {
			return err
		}
		ui.ShowSuccess(fmt.Sprintf("Exported to %s", searchExportCSV))
	}
	return nil
}

func runSearchFavorite(cmd *cobra.Command, args []string) error {
	a, err := connectApp()
	if err != nil {
		return err
	}
	defer a.Close()

	obj, err := pickSearchObject(a)
	if err != nil {
		return err
	}
	if err := a.searches.ToggleFavorite(obj.ObjectID); err != nil {
		return err
	}
	ui.ShowSuccess(fmt.Sprintf("Toggled favorite on %q", obj.ObjectName))
	return nil
}

func runSearchDelete(cmd *cobra.Command, args []string) error {
	a, err := connectApp()
	if err != nil {
		return err
	}
	defer a.Close()

	obj, err := pickSearchObject(a)
	if err != nil {
		return err
	}
	ok, err := ui.Confirm(fmt.Sprintf("Delete %q?", obj.ObjectName), false)
	if err != nil || !ok {
		return err
	}
	if err := a.searches.Delete(obj.ObjectID); err != nil {
		return err
	}
	ui.ShowSuccess(fmt.Sprintf("Deleted %q", obj.ObjectName))
	return nil
}

func pickSearchObject(a *app) (*models.SearchObject, error) {
	objects, err := a.searches.List()
	if err != nil {
		return nil, err
	}
	if len(objects) == 0 {
		return nil, errors.New(errors.ErrCodeObjectNotFound, "No saved searches").
			WithSuggestions("Create one with 'snowsearch search create'")
	}

	labels := make([]string, len(objects))
	for i, obj := range objects {
		labels[i] = fmt.Sprintf("%s (%s)", obj.ObjectName, obj.ObjectID)
	}
	label, err := ui.SearchableSelect("Saved search:", labels)
	if err != nil {
		return nil, err
	}
	for i, l := range labels {
		if l == label {
			return &objects[i], nil
		}
	}
	return nil, errors.New(errors.ErrCodeObjectNotFound, "Search object not found")
}
