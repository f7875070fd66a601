package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"snowsearch/internal/ingest"
	"snowsearch/internal/query"
	"snowsearch/internal/ui"
	"snowsearch/pkg/errors"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.csv>",
	Short: "Load a CSV file into a new table",
	Long: "Reads a CSV file, infers a column schema from its values, lets you " +
		"adjust names and types, then creates the table and loads the rows.",
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

var ingestYes bool

func init() {
	ingestCmd.Flags().BoolVarP(&ingestYes, "yes", "y", false, "accept the inferred schema without prompting")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]

	data, err := ingest.ReadCSV(path)
	if err != nil {
		return err
	}
	columns := ingest.InferSchema(data)

	ui.PrintSection("Inferred schema")
	preview := ui.NewTable()
	preview.AddHeader("Column", "Type", "Sample")
	for _, col := range columns {
		preview.AddRow(col.Name, col.Type, col.Sample)
	}
	preview.Render()
	ui.ShowInfo(fmt.Sprintf("%d rows in %s", len(data.Rows), path))

	if !ingestYes {
		adjust, err := ui.Confirm("Adjust column names or types?", false)
		if err != nil {
			return err
		}
		if adjust {
			if err := editSchema(columns); err != nil {
				return err
			}
		}
	}

	a, err := connectApp()
	if err != nil {
		return err
	}
	defer a.Close()

	database, schema, err := a.selectDatabaseSchema()
	if err != nil {
		return err
	}

	table := ingest.DefaultTableName(path)
	if !ingestYes {
		table, err = ui.Input("Table name:", table, "created with CREATE OR REPLACE")
		if err != nil {
			return err
		}
	}
	if table == "" {
		return errors.ValidationError("table", table, "a table name is required")
	}

	exists, err := a.service.TableExists(database, schema, table)
	if err != nil {
		return err
	}
	if exists {
		ok, err := ui.Confirm(fmt.Sprintf("Table %s exists and will be replaced. Continue?", table), false)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New(errors.ErrCodeValidationFailed, "Load cancelled").
				WithSeverity(errors.SeverityInfo)
		}
	}

	ui.PrintSection("DDL")
	fmt.Println(ingest.CreateTableSQL(database, schema, table, columns))

	if !ingestYes {
		ok, err := ui.Confirm("Create the table and load the rows?", true)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	loaded, err := ingest.NewLoader(a.service.GetDB()).Load(database, schema, table, columns, data)
	if err != nil {
		return err
	}
	ui.ShowSuccess(fmt.Sprintf("Loaded %d rows into %s.%s.%s", loaded, database, schema, table))

	rs, err := a.service.Query(previewSQL(database, schema, table))
	if err != nil {
		return err
	}
	ui.PrintSection("Preview")
	ui.NewResultRenderer().Display(rs)
	return nil
}

// previewSQL quotes the target the same way the load DDL does, so tables
// created with case-sensitive names resolve after the load.
func previewSQL(database, schema, table string) string {
	return fmt.Sprintf("SELECT * FROM %s LIMIT 5", query.QualifyName(database, schema, table))
}

func editSchema(columns []ingest.ColumnSchema) error {
	for i := range columns {
		name, err := ui.Input(fmt.Sprintf("Name for column %d:", i+1), columns[i].Name, "")
		if err != nil {
			return err
		}
		if name == "" {
			return errors.ValidationError("column", name, "a column name is required")
		}
		colType, err := ui.Select(fmt.Sprintf("Type for %s:", name), ingest.ColumnTypes)
		if err != nil {
			return err
		}
		columns[i].Name = name
		columns[i].Type = colType
	}
	return nil
}
