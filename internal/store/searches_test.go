package store

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snowsearch/pkg/models"
)

const testSchema = "APPLICATION_DB.APPLICATION_SCHEMA"

var searchColumns = []string{
	"object_id", "object_name", "description", "search_query",
	"is_favorite", "execution_count", "last_executed", "created_at",
}

func TestSearchStoreSave(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO APPLICATION_DB.APPLICATION_SCHEMA.STANDARD_SEARCH_OBJECTS").
		WithArgs("obj_1", "daily orders", "orders for the day", "SELECT 1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewSearchStore(db, testSchema)
	err = store.Save(models.SearchObject{
		ObjectID:    "obj_1",
		ObjectName:  "daily orders",
		Description: "orders for the day",
		SearchQuery: "SELECT 1",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchStoreList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	executed := time.Date(2026, 8, 2, 9, 30, 0, 0, time.UTC)

	rows := sqlmock.NewRows(searchColumns).
		AddRow("obj_2", "newer", nil, "SELECT 2", false, 0, nil, created.Add(time.Hour)).
		AddRow("obj_1", "older", "desc", "SELECT 1", true, 5, executed, created)

	mock.ExpectQuery("SELECT object_id, object_name, description, search_query").
		WillReturnRows(rows)

	store := NewSearchStore(db, testSchema)
	objects, err := store.List()
	require.NoError(t, err)
	require.Len(t, objects, 2)

	assert.Equal(t, "obj_2", objects[0].ObjectID)
	assert.Empty(t, objects[0].Description)
	assert.Nil(t, objects[0].LastExecuted)

	assert.Equal(t, "obj_1", objects[1].ObjectID)
	assert.True(t, objects[1].IsFavorite)
	assert.Equal(t, 5, objects[1].ExecutionCount)
	require.NotNil(t, objects[1].LastExecuted)
	assert.Equal(t, executed, *objects[1].LastExecuted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchStoreGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT object_id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(searchColumns))

	store := NewSearchStore(db, testSchema)
	_, err = store.Get("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSearchStoreRecordExecution(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE APPLICATION_DB.APPLICATION_SCHEMA.STANDARD_SEARCH_OBJECTS").
		WithArgs("obj_1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewSearchStore(db, testSchema)
	require.NoError(t, store.RecordExecution("obj_1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchStoreToggleFavorite(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("SET is_favorite = NOT is_favorite").
		WithArgs("obj_1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewSearchStore(db, testSchema)
	require.NoError(t, store.ToggleFavorite("obj_1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchStoreCount(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	store := NewSearchStore(db, testSchema)
	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}
