// Package store persists application objects (saved searches, ad-hoc
// searches, announcements) in the application schema of the warehouse.
package store

import (
	"database/sql"
	"fmt"

	"snowsearch/pkg/errors"
)

var appTableDDL = []string{
	`CREATE TABLE IF NOT EXISTS %s.STANDARD_SEARCH_OBJECTS (
	object_id VARCHAR(64) PRIMARY KEY,
	object_name VARCHAR(200) NOT NULL,
	description VARCHAR(1000),
	search_query VARCHAR(16777216) NOT NULL,
	is_favorite BOOLEAN DEFAULT FALSE,
	execution_count NUMBER DEFAULT 0,
	last_executed TIMESTAMP_NTZ,
	created_at TIMESTAMP_NTZ DEFAULT CURRENT_TIMESTAMP(),
	updated_at TIMESTAMP_NTZ DEFAULT CURRENT_TIMESTAMP()
)`,
	`CREATE TABLE IF NOT EXISTS %s.ADHOC_SEARCH_OBJECTS (
	object_id VARCHAR(64) PRIMARY KEY,
	object_name VARCHAR(200) NOT NULL,
	description VARCHAR(1000),
	table1_name VARCHAR(255),
	table2_name VARCHAR(255),
	join_type VARCHAR(30),
	join_key1 VARCHAR(255),
	join_key2 VARCHAR(255),
	search_query VARCHAR(16777216) NOT NULL,
	created_by VARCHAR(255),
	is_favorite BOOLEAN DEFAULT FALSE,
	execution_count NUMBER DEFAULT 0,
	last_executed TIMESTAMP_NTZ,
	created_at TIMESTAMP_NTZ DEFAULT CURRENT_TIMESTAMP(),
	updated_at TIMESTAMP_NTZ DEFAULT CURRENT_TIMESTAMP()
)`,
	`CREATE TABLE IF NOT EXISTS %s.ANNOUNCEMENTS (
	announcement_id VARCHAR(64) PRIMARY KEY,
	announcement_type VARCHAR(20) NOT NULL,
	title VARCHAR(200) NOT NULL,
	message VARCHAR(4000) NOT NULL,
	start_date DATE NOT NULL,
	end_date DATE NOT NULL,
	priority NUMBER DEFAULT 2,
	show_flag BOOLEAN DEFAULT TRUE,
	created_at TIMESTAMP_NTZ DEFAULT CURRENT_TIMESTAMP(),
	updated_at TIMESTAMP_NTZ DEFAULT CURRENT_TIMESTAMP()
)`,
}

// EnsureSchema creates the application tables if they do not exist.
// schema is the qualified application schema, e.g. APPLICATION_DB.APPLICATION_SCHEMA.
func EnsureSchema(db *sql.DB, schema string) error {
	for _, ddl := range appTableDDL {
		if _, err := db.Exec(fmt.Sprintf(ddl, schema)); err != nil {
			return errors.SQLError("Failed to create application table", ddl, err).
				WithContext("schema", schema).
				WithSuggestions(
					"Verify the application database and schema exist",
					"Check that your role can create tables in the application schema",
				)
		}
	}
	return nil
}
