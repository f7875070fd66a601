package ui

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"snowsearch/internal/snowflake"
)

const maxDisplayRows = 50

// ResultRenderer renders query result sets as terminal tables
type ResultRenderer struct {
	useColor bool
	maxRows  int
}

// NewResultRenderer creates a renderer honoring terminal color support
func NewResultRenderer() *ResultRenderer {
	return &ResultRenderer{
		useColor: supportsColor,
		maxRows:  maxDisplayRows,
	}
}

// Render writes the result set as a table to the given writer
func (r *ResultRenderer) Render(w io.Writer, rs *snowflake.ResultSet) {
	if rs.Empty() {
		fmt.Fprintln(w, ColorDim("(no rows)"))
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader(rs.Columns)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	shown := rs.Rows
	truncated := false
	if len(shown) > r.maxRows {
		shown = shown[:r.maxRows]
		truncated = true
	}

	for _, row := range shown {
		table.Append(row)
	}
	table.Render()

	summary := fmt.Sprintf("%d row(s)", rs.RowCount())
	if truncated {
		summary = fmt.Sprintf("%d row(s), showing first %d", rs.RowCount(), r.maxRows)
	}
	if r.useColor {
		summary = color.CyanString(summary)
	}
	fmt.Fprintln(w, summary)
}

// Display renders the result set to stdout
func (r *ResultRenderer) Display(rs *snowflake.ResultSet) {
	r.Render(os.Stdout, rs)
}

// ExportCSV writes the result set as a CSV file
func ExportCSV(path string, rs *snowflake.ResultSet) error {
	f, err := os.Create(path) // #nosec G304 - destination chosen by the user
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(rs.Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range rs.Rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// AnnouncementBanner formats an announcement line in its level color
func AnnouncementBanner(level, title, message string) string {
	text := fmt.Sprintf("[%s] %s - %s", strings.ToUpper(level), title, message)
	switch level {
	case "success":
		return color.GreenString(text)
	case "warning":
		return color.YellowString(text)
	case "error":
		return color.RedString(text)
	default:
		return color.CyanString(text)
	}
}
