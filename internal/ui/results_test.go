package ui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snowsearch/internal/snowflake"
)

func sampleResultSet() *snowflake.ResultSet {
	return &snowflake.ResultSet{
		Columns: []string{"ID", "NAME"},
		Rows: [][]string{
			{"1", "alice"},
			{"2", "bob"},
		},
	}
}

func TestRenderResultSet(t *testing.T) {
	var buf strings.Builder
	r := &ResultRenderer{maxRows: maxDisplayRows}
	r.Render(&buf, sampleResultSet())

	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "2 row(s)")
}

func TestRenderEmptyResultSet(t *testing.T) {
	var buf strings.Builder
	r := &ResultRenderer{maxRows: maxDisplayRows}
	r.Render(&buf, &snowflake.ResultSet{Columns: []string{"A"}})

	assert.Contains(t, buf.String(), "no rows")
}

func TestRenderTruncatesLongResults(t *testing.T) {
	rs := &snowflake.ResultSet{Columns: []string{"N"}}
	for i := 0; i < 120; i++ {
		rs.Rows = append(rs.Rows, []string{"x"})
	}

	var buf strings.Builder
	r := &ResultRenderer{maxRows: 10}
	r.Render(&buf, rs)

	assert.Contains(t, buf.String(), "120 row(s), showing first 10")
}

func TestExportCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, ExportCSV(path, sampleResultSet()))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ID,NAME\n1,alice\n2,bob\n", string(content))
}

func TestAnnouncementBanner(t *testing.T) {
	banner := AnnouncementBanner("warning", "Maintenance", "Sunday downtime")
	assert.Contains(t, banner, "[WARNING]")
	assert.Contains(t, banner, "Maintenance")
	assert.Contains(t, banner, "Sunday downtime")
}
