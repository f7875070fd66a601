package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestReadCSV(t *testing.T) {
	path := writeCSV(t, "id,name,amount\n1,alice,10.5\n2,bob,20.0\n")

	data, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "amount"}, data.Headers)
	require.Len(t, data.Rows, 2)
	assert.Equal(t, []string{"1", "alice", "10.5"}, data.Rows[0])
}

func TestReadCSVPadsShortRows(t *testing.T) {
	path := writeCSV(t, "a,b,c\n1,2\n")

	data, err := ReadCSV(path)
	require.NoError(t, err)
	require.Len(t, data.Rows, 1)
	assert.Equal(t, []string{"1", "2", ""}, data.Rows[0])
}

func TestReadCSVErrors(t *testing.T) {
	_, err := ReadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)

	empty := writeCSV(t, "a,b\n")
	_, err = ReadCSV(empty)
	assert.Error(t, err)
}

func TestInferSchema(t *testing.T) {
	data := &CSVData{
		Headers: []string{"ID", "NAME", "PRICE", "ACTIVE", "CREATED", "SEEN_AT", "MIXED", "EMPTY"},
		Rows: [][]string{
			{"1", "alice", "10.5", "true", "2026-01-01", "2026-01-01 10:00:00", "1", ""},
			{"2", "bob", "20", "false", "2026-02-01", "2026-02-02 11:30:00", "abc", ""},
		},
	}

	schema := InferSchema(data)
	types := make(map[string]string)
	for _, col := range schema {
		types[col.Name] = col.Type
	}

	assert.Equal(t, "NUMBER", types["ID"])
	assert.Equal(t, "VARCHAR(16777216)", types["NAME"])
	assert.Equal(t, "FLOAT", types["PRICE"])
	assert.Equal(t, "BOOLEAN", types["ACTIVE"])
	assert.Equal(t, "DATE", types["CREATED"])
	assert.Equal(t, "TIMESTAMP", types["SEEN_AT"])
	assert.Equal(t, "VARCHAR(16777216)", types["MIXED"])
	assert.Equal(t, "VARCHAR(16777216)", types["EMPTY"])
}

func TestInferSchemaIntegerBeatsFloat(t *testing.T) {
	data := &CSVData{
		Headers: []string{"N"},
		Rows:    [][]string{{"1"}, {"2"}, {"3"}},
	}
	schema := InferSchema(data)
	assert.Equal(t, "NUMBER", schema[0].Type)
}

func TestCreateTableSQL(t *testing.T) {
	columns := []ColumnSchema{
		{Name: "ID", Type: "NUMBER"},
		{Name: "NAME", Type: "VARCHAR(16777216)"},
	}
	ddl := CreateTableSQL("SALES", "PUBLIC", "IMPORT_DATA", columns)
	assert.Equal(t,
		"CREATE OR REPLACE TABLE \"SALES\".\"PUBLIC\".\"IMPORT_DATA\" (\n"+
			"    \"ID\" NUMBER,\n"+
			"    \"NAME\" VARCHAR(16777216)\n"+
			")",
		ddl)
}

func TestDefaultTableName(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"sales.csv", "IMPORT_SALES"},
		{"/tmp/monthly-report.csv", "IMPORT_MONTHLY_REPORT"},
		{"my data 2026.csv", "IMPORT_MY_DATA_2026"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, DefaultTableName(tt.path))
		})
	}
}
