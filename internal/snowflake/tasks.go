package snowflake

import (
	"fmt"
	"strings"

	"snowsearch/internal/query"
	"snowsearch/pkg/errors"
)

// TaskInfo describes a scheduled task
type TaskInfo struct {
	Name     string
	State    string
	Schedule string
}

// CreateScheduledTask creates a task that refreshes a work table on a
// CRON schedule. The task name is derived from the table name.
func (s *Service) CreateScheduledTask(database, schema, taskName, warehouse, cron, statement string) error {
	if cron == "" {
		return errors.ValidationError("schedule", cron, "CRON expression is required")
	}

	stmt := fmt.Sprintf(
		"CREATE OR REPLACE TASK %s WAREHOUSE = %s SCHEDULE = 'USING CRON %s UTC' AS %s",
		query.QualifyName(database, schema, taskName),
		query.QuoteIdentifier(warehouse),
		cron,
		stripTrailingSemicolon(statement),
	)
	if err := s.Exec(stmt); err != nil {
		return errors.Wrap(err, errors.ErrCodeTaskCreate, "Failed to create task").
			WithContext("task", taskName)
	}
	return nil
}

// ResumeTask enables a suspended task
func (s *Service) ResumeTask(database, schema, taskName string) error {
	stmt := fmt.Sprintf("ALTER TASK %s RESUME", query.QualifyName(database, schema, taskName))
	if err := s.Exec(stmt); err != nil {
		return errors.Wrap(err, errors.ErrCodeTaskControl, "Failed to resume task").
			WithContext("task", taskName)
	}
	return nil
}

// SuspendTask pauses a running task
func (s *Service) SuspendTask(database, schema, taskName string) error {
	stmt := fmt.Sprintf("ALTER TASK %s SUSPEND", query.QualifyName(database, schema, taskName))
	if err := s.Exec(stmt); err != nil {
		return errors.Wrap(err, errors.ErrCodeTaskControl, "Failed to suspend task").
			WithContext("task", taskName)
	}
	return nil
}

// DropTask removes a task
func (s *Service) DropTask(database, schema, taskName string) error {
	stmt := fmt.Sprintf("DROP TASK IF EXISTS %s", query.QualifyName(database, schema, taskName))
	return s.Exec(stmt)
}

// ListTasks returns tasks in a schema, optionally filtered by name prefix
func (s *Service) ListTasks(database, schema, prefix string) ([]TaskInfo, error) {
	if !s.connected {
		return nil, fmt.Errorf("not connected to database")
	}

	stmt := fmt.Sprintf("SHOW TASKS IN SCHEMA %s.%s",
		query.QuoteIdentifier(database), query.QuoteIdentifier(schema))
	rs, err := s.Query(stmt)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	nameIdx, stateIdx, schedIdx := -1, -1, -1
	for i, col := range rs.Columns {
		switch strings.ToLower(col) {
		case "name":
			nameIdx = i
		case "state":
			stateIdx = i
		case "schedule":
			schedIdx = i
		}
	}
	if nameIdx < 0 {
		return nil, fmt.Errorf("unexpected SHOW TASKS output")
	}

	var tasks []TaskInfo
	for _, row := range rs.Rows {
		name := row[nameIdx]
		if prefix != "" && !strings.HasPrefix(strings.ToUpper(name), strings.ToUpper(prefix)) {
			continue
		}
		task := TaskInfo{Name: name}
		if stateIdx >= 0 {
			task.State = row[stateIdx]
		}
		if schedIdx >= 0 {
			task.Schedule = row[schedIdx]
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}
