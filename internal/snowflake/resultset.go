package snowflake

import (
	"database/sql"
	"fmt"
	"time"
)

// ResultSet holds a fully materialized query result with all values
// rendered as display strings.
type ResultSet struct {
	Columns []string
	Rows    [][]string
}

// RowCount returns the number of data rows
func (rs *ResultSet) RowCount() int {
	return len(rs.Rows)
}

// Empty reports whether the result has no data rows
func (rs *ResultSet) Empty() bool {
	return len(rs.Rows) == 0
}

func collectRows(rows *sql.Rows) (*ResultSet, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	rs := &ResultSet{Columns: cols}

	for rows.Next() {
		values := make([]interface{}, len(cols))
		valuePtrs := make([]interface{}, len(cols))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		row := make([]string, len(cols))
		for i, v := range values {
			row[i] = renderValue(v)
		}
		rs.Rows = append(rs.Rows, row)
	}

	return rs, rows.Err()
}

func renderValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.Format("2006-01-02 15:04:05")
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	case float64:
		return fmt.Sprintf("%g", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
