package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"snowsearch/internal/query"
	"snowsearch/internal/ui"
	"snowsearch/pkg/errors"
	"snowsearch/pkg/models"
)

const taskPrefix = "adhoc_"

var adhocCmd = &cobra.Command{
	Use:   "adhoc",
	Short: "Ad-hoc multi-table searches",
	Long: "Join two or three tables interactively, with optional grouping " +
		"and aggregates, then run, save or schedule the result.",
}

var adhocCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Build and run an ad-hoc join",
	RunE:  runAdhocCreate,
}

var adhocListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved ad-hoc searches",
	RunE:  runAdhocList,
}

var adhocRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a saved ad-hoc search",
	RunE:  runAdhocRun,
}

var adhocFavoriteCmd = &cobra.Command{
	Use:   "favorite",
	Short: "Toggle an ad-hoc search's favorite flag",
	RunE:  runAdhocFavorite,
}

var adhocDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a saved ad-hoc search",
	RunE:  runAdhocDelete,
}

var adhocTaskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage scheduled ad-hoc tasks",
	RunE:  runAdhocTask,
}

var (
	adhocAllRows   bool
	adhocLimit     int
	adhocExportCSV string
)

func init() {
	adhocRunCmd.Flags().BoolVar(&adhocAllRows, "all-rows", false, "fetch all rows, skipping the row limit")
	adhocRunCmd.Flags().IntVar(&adhocLimit, "limit", 0, "row limit, defaults to the configured value")
	adhocRunCmd.Flags().StringVar(&adhocExportCSV, "export", "", "write the result to a CSV file")

	adhocCmd.AddCommand(adhocCreateCmd, adhocListCmd, adhocRunCmd, adhocFavoriteCmd, adhocDeleteCmd, adhocTaskCmd)
	rootCmd.AddCommand(adhocCmd)
}

func runAdhocCreate(cmd *cobra.Command, args []string) error {
	a, err := connectApp()
	if err != nil {
		return err
	}
	defer a.Close()

	database, schema, err := a.selectDatabaseSchema()
	if err != nil {
		return err
	}

	def := query.JoinDefinition{Database: database, Schema: schema}

	countChoice, err := ui.Select("How many tables?", []string{"2", "3"})
	if err != nil {
		return err
	}
	tableCount, _ := strconv.Atoi(countChoice)

	for i := 0; i < tableCount; i++ {
		table, err := a.selectRelation(database, schema)
		if err != nil {
			return err
		}
		columns, err := a.service.DescribeTable(database, schema, table)
		if err != nil {
			return err
		}
		def.Tables = append(def.Tables, query.JoinTable{Name: table, Columns: columns})

		if i == 0 {
			continue
		}
		joinType, err := ui.Select(fmt.Sprintf("Join type for t%d:", i+1), query.JoinTypes)
		if err != nil {
			return err
		}
		leftKey, err := ui.Select(fmt.Sprintf("Join key on t%d (%s):", i, def.Tables[i-1].Name),
			columnNames(def.Tables[i-1].Columns))
		if err != nil {
			return err
		}
		rightKey, err := ui.Select(fmt.Sprintf("Join key on t%d (%s):", i+1, table),
			columnNames(columns))
		if err != nil {
			return err
		}
		def.Joins = append(def.Joins, query.Join{Type: joinType, LeftKey: leftKey, RightKey: rightKey})
	}

	grouping, err := ui.Confirm("Group and aggregate?", false)
	if err != nil {
		return err
	}
	if grouping {
		if err := promptGrouping(&def); err != nil {
			return err
		}
	} else {
		custom, err := ui.Confirm("Pick output columns? (default is all, minus join keys)", false)
		if err != nil {
			return err
		}
		if custom {
			selected, err := ui.MultiSelect("Output columns:", columnRefLabels(def))
			if err != nil {
				return err
			}
			for _, label := range selected {
				ref, err := parseColumnRef(label)
				if err != nil {
					return err
				}
				def.Selected = append(def.Selected, ref)
			}
		}
	}

	if err := promptJoinConditions(&def); err != nil {
		return err
	}
	if err := promptJoinOrderBy(&def); err != nil {
		return err
	}

	sql, err := def.Build()
	if err != nil {
		return err
	}
	ui.PrintSection("Generated SQL")
	fmt.Println(sql)

	run, err := ui.Confirm("Run now?", true)
	if err != nil {
		return err
	}
	if run {
		limited := query.ApplyLimit(sql, a.defaultLimit())
		rs, err := a.runWithPreflight(limited)
		if err != nil {
			return err
		}
		ui.NewResultRenderer().Display(rs)

		if err := offerWorkTable(a, sql); err != nil {
			return err
		}
	}

	save, err := ui.Confirm("Save this search?", false)
	if err != nil {
		return err
	}
	if save {
		if err := saveAdhoc(a, def, sql); err != nil {
			return err
		}
	}

	schedule, err := ui.Confirm("Schedule as a task?", false)
	if err != nil {
		return err
	}
	if schedule {
		return scheduleAdhoc(a, sql)
	}
	return nil
}

func promptGrouping(def *query.JoinDefinition) error {
	groups, err := ui.MultiSelect("GROUP BY columns:", columnRefLabels(*def))
	if err != nil {
		return err
	}
	for _, label := range groups {
		ref, err := parseColumnRef(label)
		if err != nil {
			return err
		}
		def.GroupBy = append(def.GroupBy, ref)
	}

	for {
		fn, err := ui.Select("Aggregate function:", query.AggregateFuncs)
		if err != nil {
			return err
		}
		agg := query.Aggregate{Func: fn}
		if fn == "COUNT" {
			star, err := ui.Confirm("COUNT all rows?", true)
			if err != nil {
				return err
			}
			if star {
				agg.Column = query.ColumnRef{Table: 1, Name: "*"}
			}
		}
		if agg.Column.Name == "" {
			label, err := ui.Select("Aggregate column:", columnRefLabels(*def))
			if err != nil {
				return err
			}
			agg.Column, err = parseColumnRef(label)
			if err != nil {
				return err
			}
		}
		def.Aggregates = append(def.Aggregates, agg)

		more, err := ui.Confirm("Add another aggregate?", false)
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}
	return nil
}

func promptJoinConditions(def *query.JoinDefinition) error {
	for {
		more, err := ui.Confirm("Add a WHERE condition?", false)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		label, err := ui.Select("Column:", columnRefLabels(*def))
		if err != nil {
			return err
		}
		ref, err := parseColumnRef(label)
		if err != nil {
			return err
		}
		op, err := ui.Select("Operator:", query.JoinOperators)
		if err != nil {
			return err
		}
		cond := query.JoinCondition{Column: ref, Operator: op}
		if op != "IS NULL" && op != "IS NOT NULL" {
			cond.Value, err = ui.Input("Value:", "", "IN takes a parenthesized list")
			if err != nil {
				return err
			}
		}
		if len(def.Where) > 0 {
			cond.LogicOp, err = ui.Select("Combine with:", []string{"AND", "OR"})
			if err != nil {
				return err
			}
		}
		def.Where = append(def.Where, cond)
	}
}

func promptJoinOrderBy(def *query.JoinDefinition) error {
	for {
		more, err := ui.Confirm("Add an ORDER BY?", false)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		options := columnRefLabels(*def)
		for _, agg := range def.Aggregates {
			options = append(options, def.AggregateAlias(agg))
		}
		choice, err := ui.Select("Sort by:", options)
		if err != nil {
			return err
		}
		dir, err := ui.Select("Direction:", []string{"ASC", "DESC"})
		if err != nil {
			return err
		}
		order := query.JoinOrderBy{Direction: dir}
		if ref, err := parseColumnRef(choice); err == nil {
			order.Column = &ref
		} else {
			order.AggregateAlias = choice
		}
		def.OrderBy = append(def.OrderBy, order)
	}
}

func offerWorkTable(a *app, sql string) error {
	save, err := ui.Confirm("Save the result as a work table?", false)
	if err != nil || !save {
		return err
	}
	name, err := ui.Input("Work table name:", "", "created in the application schema")
	if err != nil {
		return err
	}
	if name == "" {
		return errors.ValidationError("table", name, "a table name is required")
	}
	qualified := fmt.Sprintf("%s.%s", a.cfg.App.QualifiedAppSchema(),
		query.QuoteIdentifier(strings.ToUpper(name)))
	if err := a.service.CreateTableAs(qualified, sql); err != nil {
		return err
	}
	ui.ShowSuccess(fmt.Sprintf("Created %s", qualified))
	return nil
}

func saveAdhoc(a *app, def query.JoinDefinition, sql string) error {
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

	obj := models.AdhocSearchObject{
		ObjectID:    fmt.Sprintf("adhoc_%s", uuid.New().String()[:12]),
		ObjectName:  name,
		Description: description,
		Table1Name:  def.Tables[0].Name,
		Table2Name:  def.Tables[1].Name,
		SearchQuery: sql,
	}
	if len(def.Joins) > 0 {
		obj.JoinType = def.Joins[0].Type
		obj.JoinKey1 = def.Joins[0].LeftKey
		obj.JoinKey2 = def.Joins[0].RightKey
	}
	if err := a.adhoc.Save(obj); err != nil {
		return err
	}
	ui.ShowSuccess(fmt.Sprintf("Saved ad-hoc search %q", name))
	return nil
}

func scheduleAdhoc(a *app, sql string) error {
	name, err := ui.Input("Task name:", "", "stored with an adhoc_ prefix")
	if err != nil {
		return err
	}
	if name == "" {
		return errors.ValidationError("task", name, "a task name is required")
	}
	cron, err := ui.Input("Cron schedule:", "0 6 * * *", "minute hour day month weekday, evaluated in UTC")
	if err != nil {
		return err
	}
	target, err := ui.Input("Target table name:", "", "the task refreshes this table on each run")
	if err != nil {
		return err
	}
	if target == "" {
		return errors.ValidationError("table", target, "a target table name is required")
	}

	appSchema := a.cfg.App.QualifiedAppSchema()
	qualified := fmt.Sprintf("%s.%s", appSchema, query.QuoteIdentifier(strings.ToUpper(target)))
	statement := fmt.Sprintf("CREATE OR REPLACE TABLE %s AS %s", qualified, sql)

	taskName := taskPrefix + strings.ToLower(name)
	err = a.service.CreateScheduledTask(a.cfg.App.Database, a.cfg.App.Schema, taskName,
		a.cfg.Snowflake.Warehouse, cron, statement)
	if err != nil {
		return err
	}
	ui.ShowSuccess(fmt.Sprintf("Created task %s (suspended until resumed)", taskName))

	resume, err := ui.Confirm("Resume the task now?", true)
	if err != nil || !resume {
		return err
	}
	if err := a.service.ResumeTask(a.cfg.App.Database, a.cfg.App.Schema, taskName); err != nil {
		return err
	}
	ui.ShowSuccess("Task resumed")
	return nil
}

func runAdhocList(cmd *cobra.Command, args []string) error {
	a, err := connectApp()
	if err != nil {
		return err
	}
	defer a.Close()

	objects, err := a.adhoc.List()
	if err != nil {
		return err
	}
	if len(objects) == 0 {
		ui.ShowInfo("No saved ad-hoc searches")
		return nil
	}

	table := ui.NewTable()
	table.AddHeader("ID", "Name", "Tables", "Join", "Runs", "Created by")
	for _, obj := range objects {
		tables := fmt.Sprintf("%s + %s", obj.Table1Name, obj.Table2Name)
		table.AddRow(obj.ObjectID, obj.ObjectName, tables, obj.JoinType,
			fmt.Sprintf("%d", obj.ExecutionCount), obj.CreatedBy)
	}
	table.Render()
	return nil
}

func runAdhocRun(cmd *cobra.Command, args []string) error {
	a, err := connectApp()
	if err != nil {
		return err
	}
	defer a.Close()

	obj, err := pickAdhocObject(a)
	if err != nil {
		return err
	}

	sql := obj.SearchQuery
	if !adhocAllRows {
		limit := adhocLimit
		if limit <= 0 {
			limit = a.defaultLimit()
		}
		sql = query.ApplyLimit(sql, limit)
	}

	rs, err := a.runWithPreflight(sql)
	if err != nil {
		return err
	}
	if err := a.adhoc.RecordExecution(obj.ObjectID); err != nil {
		ui.ShowWarning(fmt.Sprintf("Could not record execution: %v", err))
	}
	ui.NewResultRenderer().Display(rs)

	if adhocExportCSV != "" {
		if err := ui.ExportCSV(adhocExportCSV, rs); err != nil {
			return err
		}
		ui.ShowSuccess(fmt.Sprintf("Exported to %s", adhocExportCSV))
	}
	return offerWorkTable(a, obj.SearchQuery)
}

func runAdhocFavorite(cmd *cobra.Command, args []string) error {
	a, err := connectApp()
	if err != nil {
		return err
	}
	defer a.Close()

	obj, err := pickAdhocObject(a)
	if err != nil {
		return err
	}
	if err := a.adhoc.ToggleFavorite(obj.ObjectID); err != nil {
		return err
	}
	ui.ShowSuccess(fmt.Sprintf("Toggled favorite on %q", obj.ObjectName))
	return nil
}

func runAdhocDelete(cmd *cobra.Command, args []string) error {
	a, err := connectApp()
	if err != nil {
		return err
	}
	defer a.Close()

	obj, err := pickAdhocObject(a)
	if err != nil {
		return err
	}
	ok, err := ui.Confirm(fmt.Sprintf("Delete %q?", obj.ObjectName), false)
	if err != nil || !ok {
		return err
	}
	if err := a.adhoc.Delete(obj.ObjectID); err != nil {
		return err
	}
	ui.ShowSuccess(fmt.Sprintf("Deleted %q", obj.ObjectName))
	return nil
}

func runAdhocTask(cmd *cobra.Command, args []string) error {
	a, err := connectApp()
	if err != nil {
		return err
	}
	defer a.Close()

	tasks, err := a.service.ListTasks(a.cfg.App.Database, a.cfg.App.Schema, taskPrefix)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		ui.ShowInfo("No scheduled ad-hoc tasks")
		return nil
	}

	table := ui.NewTable()
	table.AddHeader("Name", "State", "Schedule")
	for _, t := range tasks {
		table.AddRow(t.Name, t.State, t.Schedule)
	}
	table.Render()

	names := make([]string, len(tasks))
	for i, t := range tasks {
		names[i] = t.Name
	}
	name, err := ui.Select("Task:", names)
	if err != nil {
		return err
	}
	action, err := ui.Select("Action:", []string{"resume", "suspend", "drop", "nothing"})
	if err != nil {
		return err
	}
	switch action {
	case "resume":
		err = a.service.ResumeTask(a.cfg.App.Database, a.cfg.App.Schema, name)
	case "suspend":
		err = a.service.SuspendTask(a.cfg.App.Database, a.cfg.App.Schema, name)
	case "drop":
		var ok bool
		ok, err = ui.Confirm(fmt.Sprintf("Drop task %s?", name), false)
		if err == nil && ok {
			err = a.service.DropTask(a.cfg.App.Database, a.cfg.App.Schema, name)
		}
	default:
		return nil
	}
	if err != nil {
		return err
	}
	ui.ShowSuccess(fmt.Sprintf("Task %s: %s done", name, action))
	return nil
}

func pickAdhocObject(a *app) (*models.AdhocSearchObject, error) {
	objects, err := a.adhoc.List()
	if err != nil {
		return nil, err
	}
	if len(objects) == 0 {
		return nil, errors.New(errors.ErrCodeObjectNotFound, "No saved ad-hoc searches").
			WithSuggestions("Create one with 'snowsearch adhoc create'")
	}
	labels := make([]string, len(objects))
	for i, obj := range objects {
		labels[i] = fmt.Sprintf("%s (%s)", obj.ObjectName, obj.ObjectID)
	}
	label, err := ui.SearchableSelect("Saved ad-hoc search:", labels)
	if err != nil {
		return nil, err
	}
	for i, l := range labels {
		if l == label {
			return &objects[i], nil
		}
	}
	return nil, errors.New(errors.ErrCodeObjectNotFound, "Ad-hoc search object not found")
}

// columnRefLabels renders every joined column as "tN.NAME" for prompts
func columnRefLabels(def query.JoinDefinition) []string {
	var labels []string
	for i, table := range def.Tables {
		for _, col := range table.Columns {
			labels = append(labels, fmt.Sprintf("t%d.%s", i+1, col.Name))
		}
	}
	return labels
}

func parseColumnRef(label string) (query.ColumnRef, error) {
	idx := strings.Index(label, ".")
	if idx < 2 || !strings.HasPrefix(label, "t") {
		return query.ColumnRef{}, errors.ValidationError("column", label, "not a table-qualified column")
	}
	table, err := strconv.Atoi(label[1:idx])
	if err != nil {
		return query.ColumnRef{}, errors.ValidationError("column", label, "not a table-qualified column")
	}
	return query.ColumnRef{Table: table, Name: label[idx+1:]}, nil
}

func columnNames(columns []models.Column) []string {
	var names []string
	for _, col := range columns {
		names = append(names, col.Name)
	}
	return names
}
