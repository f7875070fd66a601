package query

import (
	"fmt"
	"strings"

	"snowsearch/pkg/errors"
	"snowsearch/pkg/models"
)

// Join types offered by the ad-hoc builder
var JoinTypes = []string{"INNER JOIN", "LEFT JOIN", "RIGHT JOIN", "FULL OUTER JOIN"}

// Operators offered by the ad-hoc builder, a superset of SearchOperators
var JoinOperators = []string{"=", ">", "<", ">=", "<=", "<>", "LIKE", "IN", "IS NULL", "IS NOT NULL"}

// Aggregate functions offered for GROUP BY queries
var AggregateFuncs = []string{"COUNT", "SUM", "AVG", "MAX", "MIN", "COUNT_DISTINCT"}

// ColumnRef points at a column of one of the joined tables. Table is the
// 1-based table position, matching the t1/t2/t3 aliases.
type ColumnRef struct {
	Table int
	Name  string
}

// JoinTable is one participant in an ad-hoc join
type JoinTable struct {
	Name    string
	Columns []models.Column
}

// Join links a table to the one before it. LeftKey is the column on the
// preceding table, RightKey the column on the joined table.
type Join struct {
	Type     string
	LeftKey  string
	RightKey string
}

// JoinCondition is one WHERE predicate in an ad-hoc search
type JoinCondition struct {
	Column   ColumnRef
	Operator string
	Value    string
	LogicOp  string // AND or OR, ignored for the first condition
}

// Aggregate is one aggregate expression for a GROUP BY query.
// A column name of "*" with COUNT produces COUNT(*).
type Aggregate struct {
	Func   string
	Column ColumnRef
}

// JoinOrderBy sorts by a plain column or by an aggregate's alias
type JoinOrderBy struct {
	Column         *ColumnRef
	AggregateAlias string
	Direction      string
}

// JoinDefinition is the full form state of an ad-hoc search
type JoinDefinition struct {
	Database   string
	Schema     string
	Tables     []JoinTable // two or three
	Joins      []Join      // one per table after the first
	Selected   []ColumnRef // empty means all columns minus join keys
	Where      []JoinCondition
	GroupBy    []ColumnRef
	Aggregates []Aggregate
	OrderBy    []JoinOrderBy
}

// Build assembles the join query from the definition.
func (d JoinDefinition) Build() (string, error) {
	if err := d.validate(); err != nil {
		return "", err
	}

	selectClause, err := d.buildSelect()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(selectClause)
	sb.WriteString("\nFROM ")
	sb.WriteString(d.qualifiedTable(0))
	sb.WriteString(" t1")

	for i, join := range d.Joins {
		sb.WriteString(fmt.Sprintf("\n%s %s %s ON %s.%s = %s.%s",
			join.Type,
			d.qualifiedTable(i+1),
			alias(i+2),
			alias(i+1), QuoteIdentifier(join.LeftKey),
			alias(i+2), QuoteIdentifier(join.RightKey),
		))
	}

	if len(d.Where) > 0 {
		clauses := make([]string, 0, len(d.Where))
		for i, cond := range d.Where {
			clause, err := renderCondition(d.refSQL(cond.Column), cond.Operator, cond.Value)
			if err != nil {
				return "", err
			}
			if i > 0 {
				logic := strings.ToUpper(strings.TrimSpace(cond.LogicOp))
				if logic != "OR" {
					logic = "AND"
				}
				clause = logic + " " + clause
			}
			clauses = append(clauses, clause)
		}
		sb.WriteString("\nWHERE ")
		sb.WriteString(strings.Join(clauses, " "))
	}

	if len(d.GroupBy) > 0 {
		cols := make([]string, len(d.GroupBy))
		for i, ref := range d.GroupBy {
			cols[i] = d.refSQL(ref)
		}
		sb.WriteString("\nGROUP BY ")
		sb.WriteString(strings.Join(cols, ", "))
	}

	if len(d.OrderBy) > 0 {
		parts := make([]string, 0, len(d.OrderBy))
		for _, ob := range d.OrderBy {
			dir := sortDirection(ob.Direction)
			switch {
			case ob.AggregateAlias != "":
				parts = append(parts, QuoteIdentifier(ob.AggregateAlias)+" "+dir)
			case ob.Column != nil:
				parts = append(parts, d.refSQL(*ob.Column)+" "+dir)
			}
		}
		if len(parts) > 0 {
			sb.WriteString("\nORDER BY ")
			sb.WriteString(strings.Join(parts, ", "))
		}
	}

	return sb.String(), nil
}

func (d JoinDefinition) validate() error {
	if len(d.Tables) < 2 || len(d.Tables) > 3 {
		return errors.ValidationError("tables", len(d.Tables),
			"a join needs two or three tables")
	}
	if len(d.Joins) != len(d.Tables)-1 {
		return errors.ValidationError("joins", len(d.Joins),
			"each table after the first needs a join")
	}
	for i, join := range d.Joins {
		if !validJoinType(join.Type) {
			return errors.ValidationError("join_type", join.Type, "unsupported join type")
		}
		if join.LeftKey == "" || join.RightKey == "" {
			return errors.ValidationError("join_keys", join,
				fmt.Sprintf("join %d needs key columns on both sides", i+1))
		}
	}
	for _, agg := range d.Aggregates {
		if !validAggregate(agg.Func) {
			return errors.ValidationError("aggregate", agg.Func, "unsupported aggregate function")
		}
		if agg.Column.Name == "*" && agg.Func != "COUNT" {
			return errors.ValidationError("aggregate", agg.Func, "only COUNT accepts *")
		}
	}
	return nil
}

// buildSelect renders the SELECT clause. With grouping, the output is the
// grouping columns plus aggregate expressions. Without, the explicit
// selection or all columns minus join keys, with duplicate names aliased.
func (d JoinDefinition) buildSelect() (string, error) {
	if len(d.GroupBy) > 0 || len(d.Aggregates) > 0 {
		if len(d.Aggregates) == 0 {
			return "", errors.ValidationError("aggregates", nil,
				"GROUP BY requires at least one aggregate")
		}
		parts := make([]string, 0, len(d.GroupBy)+len(d.Aggregates))
		for _, ref := range d.GroupBy {
			parts = append(parts, d.refSQL(ref))
		}
		for _, agg := range d.Aggregates {
			parts = append(parts, d.aggregateSQL(agg))
		}
		return "SELECT " + strings.Join(parts, ",\n       "), nil
	}

	dups := d.duplicateColumnNames()

	refs := d.Selected
	if len(refs) == 0 {
		refs = d.defaultSelection()
	}

	parts := make([]string, 0, len(refs))
	for _, ref := range refs {
		expr := d.refSQL(ref)
		if dups[ref.Name] {
			aliasName := fmt.Sprintf("%s_%s", alias(ref.Table), ref.Name)
			expr += " AS " + QuoteIdentifier(aliasName)
		}
		parts = append(parts, expr)
	}
	if len(parts) == 0 {
		return "", errors.ValidationError("columns", nil, "no output columns")
	}
	return "SELECT " + strings.Join(parts, ",\n       "), nil
}

// defaultSelection is every column of every table except join keys
func (d JoinDefinition) defaultSelection() []ColumnRef {
	excluded := make(map[ColumnRef]bool)
	for i, join := range d.Joins {
		excluded[ColumnRef{Table: i + 1, Name: join.LeftKey}] = true
		excluded[ColumnRef{Table: i + 2, Name: join.RightKey}] = true
	}

	var refs []ColumnRef
	for ti, table := range d.Tables {
		for _, col := range table.Columns {
			ref := ColumnRef{Table: ti + 1, Name: col.Name}
			if excluded[ref] {
				continue
			}
			refs = append(refs, ref)
		}
	}
	return refs
}

func (d JoinDefinition) duplicateColumnNames() map[string]bool {
	seen := make(map[string]int)
	for _, table := range d.Tables {
		for _, col := range table.Columns {
			seen[col.Name]++
		}
	}
	dups := make(map[string]bool)
	for name, n := range seen {
		if n > 1 {
			dups[name] = true
		}
	}
	return dups
}

func (d JoinDefinition) aggregateSQL(agg Aggregate) string {
	if agg.Column.Name == "*" {
		return `COUNT(*) AS ` + QuoteIdentifier("count_all")
	}
	col := d.refSQL(agg.Column)
	aliasName := d.AggregateAlias(agg)
	if agg.Func == "COUNT_DISTINCT" {
		return fmt.Sprintf("COUNT(DISTINCT %s) AS %s", col, QuoteIdentifier(aliasName))
	}
	return fmt.Sprintf("%s(%s) AS %s", agg.Func, col, QuoteIdentifier(aliasName))
}

// AggregateAlias returns the deterministic output name for an aggregate,
// e.g. sum_ORDERS_AMOUNT or count_distinct_CUSTOMERS_ID. COUNT(*) is
// always count_all.
func (d JoinDefinition) AggregateAlias(agg Aggregate) string {
	if agg.Column.Name == "*" {
		return "count_all"
	}
	table := ""
	if agg.Column.Table >= 1 && agg.Column.Table <= len(d.Tables) {
		table = d.Tables[agg.Column.Table-1].Name
	}
	if agg.Func == "COUNT_DISTINCT" {
		return fmt.Sprintf("count_distinct_%s_%s", table, agg.Column.Name)
	}
	return fmt.Sprintf("%s_%s_%s", strings.ToLower(agg.Func), table, agg.Column.Name)
}

func (d JoinDefinition) refSQL(ref ColumnRef) string {
	return alias(ref.Table) + "." + QuoteIdentifier(ref.Name)
}

func (d JoinDefinition) qualifiedTable(idx int) string {
	return QualifyName(d.Database, d.Schema, d.Tables[idx].Name)
}

func alias(table int) string {
	return fmt.Sprintf("t%d", table)
}

func validJoinType(joinType string) bool {
	for _, t := range JoinTypes {
		if t == joinType {
			return true
		}
	}
	return false
}

func validAggregate(fn string) bool {
	for _, f := range AggregateFuncs {
		if f == fn {
			return true
		}
	}
	return false
}
