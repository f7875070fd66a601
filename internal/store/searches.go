package store

import (
	"database/sql"
	"fmt"

	"snowsearch/pkg/errors"
	"snowsearch/pkg/models"
)

// SearchStore persists templated search definitions
type SearchStore struct {
	db     *sql.DB
	schema string
}

// NewSearchStore creates a store over the qualified application schema
func NewSearchStore(db *sql.DB, schema string) *SearchStore {
	return &SearchStore{db: db, schema: schema}
}

func (s *SearchStore) table() string {
	return s.schema + ".STANDARD_SEARCH_OBJECTS"
}

// Save inserts a new search object
func (s *SearchStore) Save(obj models.SearchObject) error {
	stmt := fmt.Sprintf(`INSERT INTO %s (
	object_id, object_name, description, search_query
) VALUES (?, ?, ?, ?)`, s.table())

	if _, err := s.db.Exec(stmt, obj.ObjectID, obj.ObjectName, obj.Description, obj.SearchQuery); err != nil {
		return errors.SQLError("Failed to save search object", stmt, err).
			WithContext("object_name", obj.ObjectName)
	}
	return nil
}

// List returns all saved searches, newest first
func (s *SearchStore) List() ([]models.SearchObject, error) {
	stmt := fmt.Sprintf(`SELECT object_id, object_name, description, search_query,
	is_favorite, execution_count, last_executed, created_at
FROM %s ORDER BY created_at DESC`, s.table())

	return s.query(stmt)
}

// ListFavorites returns favorited searches, newest first
func (s *SearchStore) ListFavorites() ([]models.SearchObject, error) {
	stmt := fmt.Sprintf(`SELECT object_id, object_name, description, search_query,
	is_favorite, execution_count, last_executed, created_at
FROM %s WHERE is_favorite = TRUE ORDER BY created_at DESC`, s.table())

	return s.query(stmt)
}

// Get fetches one search object by id
func (s *SearchStore) Get(objectID string) (*models.SearchObject, error) {
	stmt := fmt.Sprintf(`SELECT object_id, object_name, description, search_query,
	is_favorite, execution_count, last_executed, created_at
FROM %s WHERE object_id = ?`, s.table())

	objects, err := s.query(stmt, objectID)
	if err != nil {
		return nil, err
	}
	if len(objects) == 0 {
		return nil, errors.New(errors.ErrCodeObjectNotFound, "Search object not found").
			WithContext("object_id", objectID)
	}
	return &objects[0], nil
}

// RecordExecution bumps the execution counter and stamps last_executed
func (s *SearchStore) RecordExecution(objectID string) error {
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
func (s *SearchStore) ToggleFavorite(objectID string) error {
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

// Delete removes a search object
func (s *SearchStore) Delete(objectID string) error {
	stmt := fmt.Sprintf("DELETE FROM %s WHERE object_id = ?", s.table())
	if _, err := s.db.Exec(stmt, objectID); err != nil {
		return errors.SQLError("Failed to delete search object", stmt, err).
			WithContext("object_id", objectID)
	}
	return nil
}

// Count returns the number of saved searches
func (s *SearchStore) Count() (int, error) {
	stmt := fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table())
	var n int
	if err := s.db.QueryRow(stmt).Scan(&n); err != nil {
		return 0, errors.SQLError("Failed to count search objects", stmt, err)
	}
	return n, nil
}

func (s *SearchStore) query(stmt string, args ...interface{}) ([]models.SearchObject, error) {
	rows, err := s.db.Query(stmt, args...)
	if err != nil {
		return nil, errors.SQLError("Failed to load search objects", stmt, err)
	}
	defer rows.Close()

	var objects []models.SearchObject
	for rows.Next() {
		var obj models.SearchObject
		var description sql.NullString
		var lastExecuted sql.NullTime
		if err := rows.Scan(&obj.ObjectID, &obj.ObjectName, &description, &obj.SearchQuery,
			&obj.IsFavorite, &obj.ExecutionCount, &lastExecuted, &obj.CreatedAt); err != nil {
			return nil, err
		}
		obj.Description = description.String
		if lastExecuted.Valid {
			t := lastExecuted.Time
			obj.LastExecuted = &t
		}
		objects = append(objects, obj)
	}
	return objects, rows.Err()
}
