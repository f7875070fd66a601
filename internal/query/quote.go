package query

import "strings"

// QuoteIdentifier double-quotes an identifier, doubling any embedded quotes.
// Already-quoted identifiers pass through unchanged.
func QuoteIdentifier(identifier string) string {
	if identifier == "" {
		return identifier
	}
	identifier = strings.Trim(identifier, " \n\r\t")
	if strings.HasPrefix(identifier, `"`) && strings.HasSuffix(identifier, `"`) && len(identifier) > 1 {
		return identifier
	}
	escaped := strings.ReplaceAll(identifier, `"`, `""`)
	return `"` + escaped + `"`
}

// QualifyName builds a fully qualified, quoted object name
func QualifyName(database, schema, object string) string {
	return QuoteIdentifier(database) + "." + QuoteIdentifier(schema) + "." + QuoteIdentifier(object)
}

// EscapeString escapes a string literal value for embedding in SQL
func EscapeString(value string) string {
	return strings.ReplaceAll(value, "'", "''")
}

var dateTypes = []string{
	"DATE", "DATETIME", "TIMESTAMP", "TIMESTAMP_NTZ", "TIMESTAMP_LTZ", "TIMESTAMP_TZ",
	"TIME",
}

// IsDateType reports whether a column type is a date or time type
func IsDateType(dataType string) bool {
	if dataType == "" {
		return false
	}
	upper := strings.ToUpper(dataType)
	for _, t := range dateTypes {
		if strings.Contains(upper, t) {
			return true
		}
	}
	return false
}

var dateKeywords = []string{
	"DATE", "DT", "YMD", "YYYYMMDD",
	"_AT", "CREATED", "UPDATED", "REGISTERED", "TIMESTAMP",
}

// IsDateLikeColumn reports whether a column likely holds date data,
// by type or by naming convention. VARCHAR columns with date-suggestive
// names qualify so they can anchor the mandatory date range.
func IsDateLikeColumn(colName, dataType string) bool {
	if IsDateType(dataType) {
		return true
	}
	upper := strings.ToUpper(colName)
	for _, kw := range dateKeywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}

var numericTypes = []string{
	"NUMBER", "INT", "INTEGER", "BIGINT", "SMALLINT", "TINYINT",
	"FLOAT", "DOUBLE", "DECIMAL", "NUMERIC",
}

// IsNumericType reports whether a column type is numeric
func IsNumericType(dataType string) bool {
	if dataType == "" {
		return false
	}
	upper := strings.ToUpper(dataType)
	for _, t := range numericTypes {
		if strings.Contains(upper, t) {
			return true
		}
	}
	return false
}
