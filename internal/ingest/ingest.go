// Package ingest loads CSV files into warehouse tables, inferring a
// column schema from the data.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"snowsearch/internal/query"
	"snowsearch/pkg/errors"
)

// Column types offered to the user when editing the inferred schema
var ColumnTypes = []string{
	"VARCHAR(16777216)", "NUMBER", "FLOAT", "BOOLEAN", "DATE", "TIMESTAMP",
}

// ColumnSchema is one column of the target table
type ColumnSchema struct {
	Name   string
	Type   string
	Sample string
}

// CSVData is a parsed CSV file
type CSVData struct {
	Headers []string
	Rows    [][]string
}

// ReadCSV parses a CSV file. The first record is the header row.
func ReadCSV(path string) (*CSVData, error) {
	f, err := os.Open(path) // #nosec G304 - path validated by caller
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFileNotFound, "File not found").
				WithContext("path", path)
		}
		return nil, errors.IngestError("Failed to open file", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, errors.IngestError("Failed to read CSV header", path, err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	data := &CSVData{Headers: headers}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.IngestError("Failed to parse CSV row", path, err)
		}
		// Pad short rows so every row matches the header width
		if len(record) < len(headers) {
			padded := make([]string, len(headers))
			copy(padded, record)
			record = padded
		}
		data.Rows = append(data.Rows, record[:len(headers)])
	}

	if len(data.Rows) == 0 {
		return nil, errors.New(errors.ErrCodeIngestParse, "CSV file has no data rows").
			WithContext("path", path)
	}
	return data, nil
}

// InferSchema guesses a column type for each header from the data rows.
// A column only gets a non-text type when every non-empty value fits it.
func InferSchema(data *CSVData) []ColumnSchema {
	schema := make([]ColumnSchema, len(data.Headers))
	for i, header := range data.Headers {
		var values []string
		for _, row := range data.Rows {
			if i < len(row) && row[i] != "" {
				values = append(values, row[i])
			}
		}

		sample := ""
		if len(values) > 0 {
			sample = values[0]
		}
		schema[i] = ColumnSchema{
			Name:   header,
			Type:   inferType(values),
			Sample: sample,
		}
	}
	return schema
}

func inferType(values []string) string {
	if len(values) == 0 {
		return "VARCHAR(16777216)"
	}

	isInt, isFloat, isBool, isDate, isTimestamp := true, true, true, true, true
	for _, v := range values {
		v = strings.TrimSpace(v)
		if _, err := strconv.ParseInt(v, 10, 64); err != nil {
			isInt = false
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			isFloat = false
		}
		if !isBoolValue(v) {
			isBool = false
		}
		if _, err := time.Parse("2006-01-02", v); err != nil {
			isDate = false
		}
		if !isTimestampValue(v) {
			isTimestamp = false
		}
	}

	switch {
	case isBool:
		return "BOOLEAN"
	case isInt:
		return "NUMBER"
	case isFloat:
		return "FLOAT"
	case isDate:
		return "DATE"
	case isTimestamp:
		return "TIMESTAMP"
	default:
		return "VARCHAR(16777216)"
	}
}

func isBoolValue(v string) bool {
	switch strings.ToLower(v) {
	case "true", "false":
		return true
	}
	return false
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

func isTimestampValue(v string) bool {
	for _, layout := range timestampLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}

// CreateTableSQL renders the DDL for the inferred schema
func CreateTableSQL(database, schema, table string, columns []ColumnSchema) string {
	defs := make([]string, len(columns))
	for i, col := range columns {
		defs[i] = fmt.Sprintf("    %s %s", query.QuoteIdentifier(col.Name), col.Type)
	}
	return fmt.Sprintf("CREATE OR REPLACE TABLE %s (\n%s\n)",
		query.QualifyName(database, schema, table),
		strings.Join(defs, ",\n"))
}

// DefaultTableName derives the target table name from the file name,
// e.g. sales-2026 08.csv becomes IMPORT_SALES_2026_08.
func DefaultTableName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ToUpper(base)
	base = strings.ReplaceAll(base, "-", "_")
	base = strings.ReplaceAll(base, " ", "_")
	return "IMPORT_" + base
}
