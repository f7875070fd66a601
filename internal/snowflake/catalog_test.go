package snowflake

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snowsearch/pkg/models"
)

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewServiceWithDB(db), mock
}

// SHOW commands return the object name in the second column
func showRows(names ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"created_on", "name"})
	for _, n := range names {
		rows.AddRow("2026-01-01", n)
	}
	return rows
}

func TestListDatabasesExcludesSystemDatabases(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery("SHOW DATABASES").
		WillReturnRows(showRows("SNOWFLAKE", "SALES_DB", "SNOWFLAKE_SAMPLE_DATA", "ANALYTICS_DB"))

	databases, err := svc.ListDatabases()
	require.NoError(t, err)
	assert.Equal(t, []string{"SALES_DB", "ANALYTICS_DB"}, databases)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSchemasExcludesInformationSchema(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery("SHOW SCHEMAS IN DATABASE").
		WillReturnRows(showRows("INFORMATION_SCHEMA", "PUBLIC", "STAGING"))

	schemas, err := svc.ListSchemas("SALES_DB")
	require.NoError(t, err)
	assert.Equal(t, []string{"PUBLIC", "STAGING"}, schemas)
}

func TestListTablesExcludesAppAndTempTables(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery("SHOW TABLES IN SCHEMA").
		WillReturnRows(showRows(
			"ORDERS",
			"STANDARD_SEARCH_OBJECTS",
			"ADHOC_SEARCH_OBJECTS",
			"ANNOUNCEMENTS",
			"SNOWPARK_TEMP_TABLE_ABC123",
			"CUSTOMERS",
		))

	tables, err := svc.ListTables("SALES_DB", "PUBLIC")
	require.NoError(t, err)
	assert.Equal(t, []string{"ORDERS", "CUSTOMERS"}, tables)
}

func TestListRelationsLabelsKinds(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery("SHOW TABLES IN SCHEMA").
		WillReturnRows(showRows("ORDERS"))
	mock.ExpectQuery("SHOW VIEWS IN SCHEMA").
		WillReturnRows(showRows("ORDER_SUMMARY_V"))

	relations, err := svc.ListRelations("SALES_DB", "PUBLIC")
	require.NoError(t, err)
	require.Len(t, relations, 2)
	assert.Equal(t, models.Relation{Name: "ORDERS", Kind: models.RelationTable}, relations[0])
	assert.Equal(t, models.Relation{Name: "ORDER_SUMMARY_V", Kind: models.RelationView}, relations[1])
	assert.Equal(t, "[TABLE] ORDERS", relations[0].Label())
}

func TestDescribeTable(t *testing.T) {
	svc, mock := newTestService(t)

	rows := sqlmock.NewRows([]string{"name", "type", "kind", "null?"}).
		AddRow("ORDER_ID", "NUMBER(38,0)", "COLUMN", "N").
		AddRow("ORDER_DATE", "DATE", "COLUMN", "Y")
	mock.ExpectQuery("DESCRIBE TABLE").WillReturnRows(rows)

	columns, err := svc.DescribeTable("SALES_DB", "PUBLIC", "ORDERS")
	require.NoError(t, err)
	assert.Equal(t, []models.Column{
		{Name: "ORDER_ID", Type: "NUMBER(38,0)"},
		{Name: "ORDER_DATE", Type: "DATE"},
	}, columns)
}

func TestTableExists(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery("SHOW TABLES IN SCHEMA").
		WillReturnRows(showRows("ORDERS", "CUSTOMERS"))

	exists, err := svc.TableExists("SALES_DB", "PUBLIC", "orders")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCatalogRequiresConnection(t *testing.T) {
	svc := NewService(Config{})

	_, err := svc.ListDatabases()
	assert.Error(t, err)
}
