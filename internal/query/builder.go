package query

import (
	"fmt"
	"strings"

	"snowsearch/pkg/errors"
)

// Comparison operators offered by the templated search builder
var SearchOperators = []string{"=", ">", "<", ">=", "<=", "<>", "LIKE"}

// DateCondition is the mandatory date range anchoring a templated search
type DateCondition struct {
	Column    string
	StartDate string // YYYY-MM-DD
	EndDate   string // YYYY-MM-DD
}

// WhereCondition is one predicate in a templated search
type WhereCondition struct {
	Column   string
	Operator string
	Value    string
}

// OrderByCondition is one sort key
type OrderByCondition struct {
	Column    string
	Direction string // ASC or DESC
}

// SearchDefinition is the form state a templated search is built from
type SearchDefinition struct {
	Database string
	Schema   string
	Table    string
	Columns  []string
	Date     DateCondition
	Where    []WhereCondition
	OrderBy  []OrderByCondition
}

// Build assembles the saved search SQL. The date range is required; other
// conditions are chained with AND. LIKE values get %-wrapped automatically.
func (d SearchDefinition) Build() (string, error) {
	if d.Table == "" {
		return "", errors.ValidationError("table", d.Table, "a target table is required")
	}
	if d.Date.Column == "" || d.Date.StartDate == "" || d.Date.EndDate == "" {
		return "", errors.ValidationError("date_condition", d.Date,
			"a date range condition is required")
	}
	if d.Date.StartDate > d.Date.EndDate {
		return "", errors.ValidationError("date_condition", d.Date,
			"start date must not be after end date")
	}

	selectClause := "*"
	if len(d.Columns) > 0 {
		quoted := make([]string, len(d.Columns))
		for i, col := range d.Columns {
			quoted[i] = QuoteIdentifier(col)
		}
		selectClause = strings.Join(quoted, ", ")
	}

	whereClauses := []string{
		fmt.Sprintf("%s BETWEEN '%s' AND '%s'",
			QuoteIdentifier(d.Date.Column),
			EscapeString(d.Date.StartDate),
			EscapeString(d.Date.EndDate)),
	}

	for _, cond := range d.Where {
		clause, err := renderCondition(QuoteIdentifier(cond.Column), cond.Operator, cond.Value)
		if err != nil {
			return "", err
		}
		whereClauses = append(whereClauses, "AND "+clause)
	}

	var orderBy string
	if len(d.OrderBy) > 0 {
		parts := make([]string, len(d.OrderBy))
		for i, cond := range d.OrderBy {
			parts[i] = QuoteIdentifier(cond.Column) + " " + sortDirection(cond.Direction)
		}
		orderBy = " ORDER BY " + strings.Join(parts, ", ")
	}

	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s%s",
		selectClause,
		QualifyName(d.Database, d.Schema, d.Table),
		strings.Join(whereClauses, " "),
		orderBy,
	)
	return sql, nil
}

// ApplyLimit appends a LIMIT clause unless the query already carries one
func ApplyLimit(sql string, limit int) string {
	if limit <= 0 {
		return sql
	}
	if strings.Contains(strings.ToUpper(sql), " LIMIT ") {
		return sql
	}
	return fmt.Sprintf("%s LIMIT %d", sql, limit)
}

// renderCondition formats a single predicate. LIKE values without an
// explicit wildcard are wrapped in %...%; IN values pass through as a
// parenthesized list; the NULL operators take no value.
func renderCondition(quotedCol, operator, value string) (string, error) {
	op := strings.ToUpper(strings.TrimSpace(operator))
	switch op {
	case "IS NULL", "IS NOT NULL":
		return quotedCol + " " + op, nil
	case "LIKE":
		v := value
		if !strings.HasPrefix(v, "%") && !strings.HasSuffix(v, "%") {
			v = "%" + v + "%"
		}
		return fmt.Sprintf("%s LIKE '%s'", quotedCol, EscapeString(v)), nil
	case "IN":
		if strings.TrimSpace(value) == "" {
			return "", errors.ValidationError("value", value, "IN requires a value list")
		}
		return fmt.Sprintf("%s IN (%s)", quotedCol, value), nil
	case "=", ">", "<", ">=", "<=", "<>":
		return fmt.Sprintf("%s %s '%s'", quotedCol, op, EscapeString(value)), nil
	default:
		return "", errors.ValidationError("operator", operator, "unsupported operator")
	}
}

func sortDirection(direction string) string {
	if strings.EqualFold(strings.TrimSpace(direction), "DESC") {
		return "DESC"
	}
	return "ASC"
}
