package snowflake

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateScheduledTask(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectExec("CREATE OR REPLACE TASK .* WAREHOUSE = .* SCHEDULE = 'USING CRON 0 6 \\* \\* \\* UTC' AS CREATE OR REPLACE TABLE").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.CreateScheduledTask("APP_DB", "APP_SCHEMA", "adhoc_daily", "COMPUTE_WH",
		"0 6 * * *", "CREATE OR REPLACE TABLE t AS SELECT 1;")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateScheduledTaskRequiresCron(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.CreateScheduledTask("APP_DB", "APP_SCHEMA", "adhoc_daily", "COMPUTE_WH",
		"", "SELECT 1")
	assert.Error(t, err)
}

func TestTaskStateChanges(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectExec("ALTER TASK .* RESUME").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("ALTER TASK .* SUSPEND").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DROP TASK IF EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, svc.ResumeTask("APP_DB", "APP_SCHEMA", "adhoc_daily"))
	require.NoError(t, svc.SuspendTask("APP_DB", "APP_SCHEMA", "adhoc_daily"))
	require.NoError(t, svc.DropTask("APP_DB", "APP_SCHEMA", "adhoc_daily"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListTasksFiltersByPrefix(t *testing.T) {
	svc, mock := newTestService(t)

	rows := sqlmock.NewRows([]string{"created_on", "name", "state", "schedule"}).
		AddRow("2026-01-01", "ADHOC_DAILY", "started", "USING CRON 0 6 * * * UTC").
		AddRow("2026-01-01", "HOUSEKEEPING", "suspended", "USING CRON 0 0 * * * UTC").
		AddRow("2026-01-01", "ADHOC_WEEKLY", "suspended", "USING CRON 0 6 * * 1 UTC")
	mock.ExpectQuery("SHOW TASKS IN SCHEMA").WillReturnRows(rows)

	tasks, err := svc.ListTasks("APP_DB", "APP_SCHEMA", "adhoc_")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "ADHOC_DAILY", tasks[0].Name)
	assert.Equal(t, "started", tasks[0].State)
	assert.Equal(t, "ADHOC_WEEKLY", tasks[1].Name)
}
