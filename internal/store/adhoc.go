package store

import (
	"database/sql"
	"fmt"

	"snowsearch/pkg/errors"
	"snowsearch/pkg/models"
)

// AdhocStore persists ad-hoc join search definitions
type AdhocStore struct {
	db     *sql.DB
	schema string
}

// NewAdhocStore creates a store over the qualified application schema
func NewAdhocStore(db *sql.DB, schema string) *AdhocStore {
	return &AdhocStore{db: db, schema: schema}
}

func (s *AdhocStore) table() string {
	return s.schema + ".ADHOC_SEARCH_OBJECTS"
}

// Save inserts a new ad-hoc search object. created_by is stamped with
// CURRENT_USER() on the warehouse side.
func (s *AdhocStore) Save(obj models.AdhocSearchObject) error {
	joinType := obj.JoinType
	if joinType == "" {
		joinType = "INNER JOIN"
	}

	stmt := fmt.Sprintf(`INSERT INTO %s (
	object_id, object_name, description, table1_name, table2_name,
	join_type, join_key1, join_key2, search_query, created_by, is_favorite
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_USER(), ?)`, s.table())

	_, err := s.db.Exec(stmt,
		obj.ObjectID, obj.ObjectName, obj.Description,
		obj.Table1Name, obj.Table2Name,
		joinType, obj.JoinKey1, obj.JoinKey2,
		obj.SearchQuery, obj.IsFavorite,
	)
	if err != nil {
		return errors.SQLError("Failed to save ad-hoc search object", stmt, err).
			WithContext("object_name", obj.ObjectName)
	}
	return nil
}

// List returns all saved ad-hoc searches, newest first
func (s *AdhocStore) List() ([]models.AdhocSearchObject, error) {
	stmt := fmt.Sprintf(`SELECT object_id, object_name, description,
	table1_name, table2_name, join_type, join_key1, join_key2,
	search_query, created_by, is_favorite, execution_count, last_executed, created_at
FROM %s ORDER BY created_at DESC`, s.table())

	rows, err := s.db.Query(stmt)
	if err != nil {
		return nil, errors.SQLError("Failed to load ad-hoc search objects", stmt, err)
	}
	defer rows.Close()

	var objects []models.AdhocSearchObject
	for rows.Next() {
		var obj models.AdhocSearchObject
		var description, createdBy sql.NullString
		var lastExecuted sql.NullTime
		if err := rows.Scan(&obj.ObjectID, &obj.ObjectName, &description,
			&obj.Table1Name, &obj.Table2Name, &obj.JoinType, &obj.JoinKey1, &obj.JoinKey2,
			&obj.SearchQuery, &createdBy, &obj.IsFavorite, &obj.ExecutionCount,
			&lastExecuted, &obj.CreatedAt); err != nil {
			return nil, err
		}
		obj.Description = description.String
		obj.CreatedBy = createdBy.String
		if lastExecuted.Valid {
			t := lastExecuted.Time
			obj.LastExecuted = &t
		}
		objects = append(objects, obj)
	}
	return objects, rows.Err()
}

// RecordExecution bumps the execution counter and stamps last_executed
func (s *AdhocStore) RecordExecution(objectID string) error {
	stmt := fmt.Sprintf(`UPDATE %s
SET execution_count = execution_count + 1,
	last_executed = CURRENT_TIMESTAMP()
WHERE object_id = ?`, s.table())

	if _, err := s.db.Exec(stmt, objectID); err != nil {
		return errors.SQLError("Failed to record execution", stmt, err).
			WithContext("object_id", objectID)
	}
	return nil
}

// ToggleFavorite flips the favorite flag
func (s *AdhocStore) ToggleFavorite(objectID string) error {
	stmt := fmt.Sprintf(`UPDATE %s
SET is_favorite = NOT is_favorite,
	updated_at = CURRENT_TIMESTAMP()
WHERE object_id = ?`, s.table())

	if _, err := s.db.Exec(stmt, objectID); err != nil {
		return errors.SQLError("Failed to toggle favorite", stmt, err).
			WithContext("object_id", objectID)
	}
	return nil
}

// Delete removes an ad-hoc search object
func (s *AdhocStore) Delete(objectID string) error {
	stmt := fmt.Sprintf("DELETE FROM %s WHERE object_id = ?", s.table())
	if _, err := s.db.Exec(stmt, objectID); err != nil {
		return errors.SQLError("Failed to delete ad-hoc search object", stmt, err).
			WithContext("object_id", objectID)
	}
	return nil
}

// Count returns the number of saved ad-hoc searches
func (s *AdhocStore) Count() (int, error) {
	stmt := fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table())
	var n int
	if err := s.db.QueryRow(stmt).Scan(&n); err != nil {
		return 0, errors.SQLError("Failed to count ad-hoc search objects", stmt, err)
	}
	return n, nil
}
