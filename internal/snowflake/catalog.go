package snowflake

import (
	"fmt"
	"strings"

	"snowsearch/internal/query"
	"snowsearch/pkg/models"
)

// Databases hidden from catalog listings
var excludedDatabases = map[string]bool{
	"SNOWFLAKE":             true,
	"SNOWFLAKE_SAMPLE_DATA": true,
}

// Schemas hidden from catalog listings
var excludedSchemas = map[string]bool{
	"INFORMATION_SCHEMA": true,
}

// Application bookkeeping tables hidden from catalog listings
var excludedTables = map[string]bool{
	"STANDARD_SEARCH_OBJECTS": true,
	"ADHOC_SEARCH_OBJECTS":    true,
	"ANNOUNCEMENTS":           true,
}

const tempTablePrefix = "SNOWPARK_TEMP_TABLE_"

// ListDatabases returns accessible databases minus system ones
func (s *Service) ListDatabases() ([]string, error) {
	names, err := s.showNames("SHOW DATABASES")
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}

	var databases []string
	for _, name := range names {
		if excludedDatabases[strings.ToUpper(name)] {
			continue
		}
		databases = append(databases, name)
	}
	return databases, nil
}

// ListSchemas returns schemas in a database minus INFORMATION_SCHEMA
func (s *Service) ListSchemas(database string) ([]string, error) {
	names, err := s.showNames(fmt.Sprintf("SHOW SCHEMAS IN DATABASE %s",
		query.QuoteIdentifier(database)))
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}

	var schemas []string
	for _, name := range names {
		if excludedSchemas[strings.ToUpper(name)] {
			continue
		}
		schemas = append(schemas, name)
	}
	return schemas, nil
}

// ListTables returns tables in a schema, hiding application bookkeeping
// tables and Snowpark temporary tables.
func (s *Service) ListTables(database, schema string) ([]string, error) {
	names, err := s.showNames(fmt.Sprintf("SHOW TABLES IN SCHEMA %s.%s",
		query.QuoteIdentifier(database), query.QuoteIdentifier(schema)))
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	var tables []string
	for _, name := range names {
		upper := strings.ToUpper(name)
		if excludedTables[upper] || strings.HasPrefix(upper, tempTablePrefix) {
			continue
		}
		tables = append(tables, name)
	}
	return tables, nil
}

// ListViews returns views in a schema
func (s *Service) ListViews(database, schema string) ([]string, error) {
	names, err := s.showNames(fmt.Sprintf("SHOW VIEWS IN SCHEMA %s.%s",
		query.QuoteIdentifier(database), query.QuoteIdentifier(schema)))
	if err != nil {
		return nil, fmt.Errorf("failed to list views: %w", err)
	}
	return names, nil
}

// ListRelations returns tables and views in a schema with kind labels
func (s *Service) ListRelations(database, schema string) ([]models.Relation, error) {
	tables, err := s.ListTables(database, schema)
	if err != nil {
		return nil, err
	}
	views, err := s.ListViews(database, schema)
	if err != nil {
		return nil, err
	}

	relations := make([]models.Relation, 0, len(tables)+len(views))
	for _, t := range tables {
		relations = append(relations, models.Relation{Name: t, Kind: models.RelationTable})
	}
	for _, v := range views {
		relations = append(relations, models.Relation{Name: v, Kind: models.RelationView})
	}
	return relations, nil
}

// DescribeTable returns the columns of a table
func (s *Service) DescribeTable(database, schema, table string) ([]models.Column, error) {
	if !s.connected {
		return nil, fmt.Errorf("not connected to database")
	}

	stmt := fmt.Sprintf("DESCRIBE TABLE %s", query.QualifyName(database, schema, table))
	rs, err := s.Query(stmt)
	if err != nil {
		return nil, fmt.Errorf("failed to describe table: %w", err)
	}

	nameIdx, typeIdx := -1, -1
	for i, col := range rs.Columns {
		switch strings.ToLower(col) {
		case "name":
			nameIdx = i
		case "type":
			typeIdx = i
		}
	}
	if nameIdx < 0 || typeIdx < 0 {
		return nil, fmt.Errorf("unexpected DESCRIBE TABLE output for %s", table)
	}

	columns := make([]models.Column, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		columns = append(columns, models.Column{
			Name: row[nameIdx],
			Type: row[typeIdx],
		})
	}
	return columns, nil
}

// TableExists reports whether a table exists in the given schema
func (s *Service) TableExists(database, schema, table string) (bool, error) {
	tables, err := s.ListTables(database, schema)
	if err != nil {
		return false, err
	}
	for _, t := range tables {
		if strings.EqualFold(t, table) {
			return true, nil
		}
	}
	return false, nil
}

// showNames runs a SHOW command and extracts the name column, which
// Snowflake places at index 1.
func (s *Service) showNames(stmt string) ([]string, error) {
	if !s.connected {
		return nil, fmt.Errorf("not connected to database")
	}

	rs, err := s.Query(stmt)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, row := range rs.Rows {
		if len(row) > 1 {
			names = append(names, row[1])
		}
	}
	return names, nil
}
