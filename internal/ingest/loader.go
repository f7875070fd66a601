package ingest

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"snowsearch/internal/query"
	"snowsearch/pkg/errors"
)

const insertBatchSize = 500

// Loader creates the target table and bulk-inserts CSV rows
type Loader struct {
	db *sql.DB
}

// NewLoader creates a loader over an open connection
func NewLoader(db *sql.DB) *Loader {
	return &Loader{db: db}
}

// Load creates the table and inserts all rows in batches.
// Returns the number of rows loaded.
func (l *Loader) Load(database, schema, table string, columns []ColumnSchema, data *CSVData) (int, error) {
	ddl := CreateTableSQL(database, schema, table, columns)
	if _, err := l.db.Exec(ddl); err != nil {
		return 0, errors.SQLError("Failed to create target table", ddl, err).
			WithContext("table", table)
	}

	insertSQL := buildInsertSQL(database, schema, table, columns)

	loaded := 0
	for start := 0; start < len(data.Rows); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(data.Rows) {
			end = len(data.Rows)
		}
		batch := data.Rows[start:end]

		tx, err := l.db.Begin()
		if err != nil {
			return loaded, errors.Wrap(err, errors.ErrCodeSQLTransaction,
				"Failed to begin load transaction")
		}

		stmt, err := tx.Prepare(insertSQL)
		if err != nil {
			tx.Rollback()
			return loaded, errors.SQLError("Failed to prepare insert", insertSQL, err)
		}

		for _, row := range batch {
			args, err := bindRow(row, columns)
			if err != nil {
				stmt.Close()
				tx.Rollback()
				return loaded, err
			}
			if _, err := stmt.Exec(args...); err != nil {
				stmt.Close()
				tx.Rollback()
				return loaded, errors.New(errors.ErrCodeIngestLoad, "Failed to insert row").
					WithContext("row", loaded+1).
					WithSuggestions("Check the row's values against the column types")
			}
			loaded++
		}

		stmt.Close()
		if err := tx.Commit(); err != nil {
			return loaded, errors.Wrap(err, errors.ErrCodeSQLTransaction,
				"Failed to commit load transaction")
		}
	}

	return loaded, nil
}

func buildInsertSQL(database, schema, table string, columns []ColumnSchema) string {
	names := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, col := range columns {
		names[i] = query.QuoteIdentifier(col.Name)
		placeholders[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		query.QualifyName(database, schema, table),
		strings.Join(names, ", "),
		strings.Join(placeholders, ", "))
}

// bindRow converts CSV strings to typed values matching the column schema.
// Empty strings bind as NULL.
func bindRow(row []string, columns []ColumnSchema) ([]interface{}, error) {
	args := make([]interface{}, len(columns))
	for i, col := range columns {
		var raw string
		if i < len(row) {
			raw = strings.TrimSpace(row[i])
		}
		if raw == "" {
			args[i] = nil
			continue
		}

		switch col.Type {
		case "NUMBER":
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, errors.ValidationError(col.Name, raw, "not a valid integer")
			}
			args[i] = n
		case "FLOAT":
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, errors.ValidationError(col.Name, raw, "not a valid number")
			}
			args[i] = f
		case "BOOLEAN":
			args[i] = strings.EqualFold(raw, "true")
		case "DATE":
			d, err := time.Parse("2006-01-02", raw)
			if err != nil {
				return nil, errors.ValidationError(col.Name, raw, "not a valid date")
			}
			args[i] = d
		case "TIMESTAMP":
			ts, err := parseTimestamp(raw)
			if err != nil {
				return nil, errors.ValidationError(col.Name, raw, "not a valid timestamp")
			}
			args[i] = ts
		default:
			args[i] = raw
		}
	}
	return args, nil
}

func parseTimestamp(v string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, v); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", v)
}
