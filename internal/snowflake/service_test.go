package snowflake

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConfig(t *testing.T) {
	valid := Config{
		Account:   "xy12345.ap-northeast-1",
		Username:  "analyst",
		Password:  "secret",
		Warehouse: "COMPUTE_WH",
		Role:      "SYSADMIN",
	}
	assert.NoError(t, ValidateConfig(valid))

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing account", func(c *Config) { c.Account = "" }},
		{"missing username", func(c *Config) { c.Username = "" }},
		{"missing password", func(c *Config) { c.Password = "" }},
		{"missing warehouse", func(c *Config) { c.Warehouse = "" }},
		{"missing role", func(c *Config) { c.Role = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.Error(t, ValidateConfig(cfg))
		})
	}
}

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name     string
		script   string
		expected int
	}{
		{"single statement", "SELECT 1", 1},
		{"two statements", "SELECT 1; SELECT 2", 2},
		{"trailing semicolon", "SELECT 1;", 1},
		{"semicolon in string", "SELECT 'a;b'; SELECT 2", 2},
		{"semicolon in quoted identifier", `SELECT ";" FROM t; SELECT 2`, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			statements := splitStatements(tt.script)
			var nonEmpty int
			for _, s := range statements {
				if len(s) > 0 && s != " " {
					nonEmpty++
				}
			}
			assert.Equal(t, tt.expected, nonEmpty)
		})
	}
}

func TestStripTrailingSemicolon(t *testing.T) {
	assert.Equal(t, "SELECT 1", stripTrailingSemicolon("SELECT 1;"))
	assert.Equal(t, "SELECT 1", stripTrailingSemicolon("  SELECT 1  "))
	assert.Equal(t, "SELECT 1", stripTrailingSemicolon("SELECT 1"))
}

func TestQueryCollectsResultSet(t *testing.T) {
	svc, mock := newTestService(t)

	rows := sqlmock.NewRows([]string{"ID", "NAME"}).
		AddRow(int64(1), "alpha").
		AddRow(int64(2), nil)
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	rs, err := svc.Query(`SELECT "ID", "NAME" FROM t`)
	require.NoError(t, err)
	assert.Equal(t, []string{"ID", "NAME"}, rs.Columns)
	require.Equal(t, 2, rs.RowCount())
	assert.Equal(t, []string{"1", "alpha"}, rs.Rows[0])
	assert.Equal(t, "", rs.Rows[1][1])
}

func TestCountRowsWrapsQuery(t *testing.T) {
	svc, mock := newTestService(t)

	rows := sqlmock.NewRows([]string{"COUNT"}).AddRow("42")
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM`).WillReturnRows(rows)

	n, err := svc.CountRows("SELECT * FROM t;")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}

func TestExecuteScriptRunsInTransaction(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE a").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE b").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := svc.ExecuteScript("CREATE TABLE a (x INT); CREATE TABLE b (y INT)")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTableAs(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectExec("CREATE OR REPLACE TABLE APP.S.WORK AS SELECT").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.CreateTableAs("APP.S.WORK", "SELECT 1;")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecRequiresConnection(t *testing.T) {
	svc := NewService(Config{})
	assert.Error(t, svc.Exec("SELECT 1"))
}
