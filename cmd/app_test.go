package cmd

import (
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snowsearch/internal/snowflake"
	"snowsearch/pkg/models"
)

func newTestApp(t *testing.T) (*app, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &app{
		cfg:     &models.Config{},
		service: snowflake.NewServiceWithDB(db),
	}, mock
}

func TestRunWithPreflightProceedsWhenCountFails(t *testing.T) {
	a, mock := newTestApp(t)

	// Some statements cannot be wrapped in SELECT COUNT(*); the query
	// itself still runs.
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM`).
		WillReturnError(fmt.Errorf("unsupported subquery"))
	mock.ExpectQuery("SELECT").
		WillReturnRows(sqlmock.NewRows([]string{"ID"}).AddRow("1"))

	rs, err := a.runWithPreflight("SELECT * FROM t")
	require.NoError(t, err)
	assert.Equal(t, 1, rs.RowCount())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunWithPreflightSkipsWarningBelowThreshold(t *testing.T) {
	a, mock := newTestApp(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM`).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT"}).AddRow("10"))
	mock.ExpectQuery("SELECT").
		WillReturnRows(sqlmock.NewRows([]string{"ID"}).AddRow("1"))

	rs, err := a.runWithPreflight("SELECT * FROM t")
	require.NoError(t, err)
	assert.Equal(t, 1, rs.RowCount())
}
