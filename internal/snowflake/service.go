package snowflake

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/snowflakedb/gosnowflake"

	"snowsearch/pkg/errors"
	"snowsearch/pkg/models"
)

// Service provides Snowflake database operations
type Service struct {
	db             *sql.DB
	config         Config
	connected      bool
	errorHandler   *errors.ErrorHandler
	circuitBreaker *errors.CircuitBreaker
}

// Config holds Snowflake connection configuration
type Config struct {
	Account   string
	Username  string
	Password  string
	Database  string
	Schema    string
	Warehouse string
	Role      string
	Timeout   time.Duration
}

// ConfigFromModel builds a connection Config from the application config,
// parsing the timeout string and falling back to 30s when unset or invalid.
func ConfigFromModel(cfg models.Snowflake, password string) Config {
	timeout := 30 * time.Second
	if cfg.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Timeout); err == nil && d > 0 {
			timeout = d
		}
	}
	return Config{
		Account:   cfg.Account,
		Username:  cfg.Username,
		Password:  password,
		Database:  cfg.Database,
		Schema:    cfg.Schema,
		Warehouse: cfg.Warehouse,
		Role:      cfg.Role,
		Timeout:   timeout,
	}
}

// NewService creates a new Snowflake service
func NewService(config Config) *Service {
	return &Service{
		config:         config,
		errorHandler:   errors.GetGlobalErrorHandler(),
		circuitBreaker: errors.NewCircuitBreaker("snowflake", 5, 30*time.Second),
	}
}

// NewServiceWithDB wraps an existing connection, used by tests
func NewServiceWithDB(db *sql.DB) *Service {
	return &Service{
		db:             db,
		connected:      true,
		errorHandler:   errors.GetGlobalErrorHandler(),
		circuitBreaker: errors.NewCircuitBreaker("snowflake", 5, 30*time.Second),
	}
}

// Connect establishes a connection to Snowflake
func (s *Service) Connect() error {
	if s.connected {
		return nil
	}

	// Use circuit breaker for connection attempts
	return s.circuitBreaker.Execute(context.Background(), func() error {
		return errors.RetryWithBackoff(context.Background(), func(ctx context.Context) error {
			dsn := fmt.Sprintf("%s:%s@%s/%s/%s?warehouse=%s&role=%s",
				s.config.Username,
				s.config.Password,
				s.config.Account,
				s.config.Database,
				s.config.Schema,
				s.config.Warehouse,
				s.config.Role,
			)

			db, err := sql.Open("snowflake", dsn)
			if err != nil {
				return errors.ConnectionError("Failed to open Snowflake connection", err).
					WithContext("account", s.config.Account).
					WithContext("warehouse", s.config.Warehouse)
			}

			// Set connection pool settings
			db.SetMaxOpenConns(10)
			db.SetMaxIdleConns(5)
			db.SetConnMaxLifetime(10 * time.Minute)

			connCtx, cancel := s.getContext()
			defer cancel()

			if err := db.PingContext(connCtx); err != nil {
				db.Close()

				if strings.Contains(err.Error(), "authentication") {
					return errors.New(errors.ErrCodeAuthenticationFailed, "Authentication failed").
						WithContext("user", s.config.Username).
						WithSuggestions(
							"Verify your username and password",
							"Check if your account is locked",
							"Run 'snowsearch setup' to update stored credentials",
						)
				}

				return errors.ConnectionError("Failed to connect to Snowflake", err).
					WithContext("account", s.config.Account).
					AsRecoverable()
			}

			s.db = db
			s.connected = true
			return nil
		})
	})
}

// Close closes the database connection
func (s *Service) Close() error {
	if !s.connected {
		return nil
	}

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}

	s.connected = false
	return nil
}

// Exec runs a single statement that returns no rows
func (s *Service) Exec(query string, args ...interface{}) error {
	if !s.connected {
		return errors.New(errors.ErrCodeConnectionFailed, "Not connected to database").
			WithSuggestions("Call Connect() before executing SQL")
	}

	ctx, cancel := s.getContext()
	defer cancel()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errors.SQLError("Failed to execute statement", query, err)
	}
	return nil
}

// ExecuteScript executes a multi-statement SQL script in a transaction
func (s *Service) ExecuteScript(script string) error {
	if !s.connected {
		return errors.New(errors.ErrCodeConnectionFailed, "Not connected to database").
			WithSuggestions("Call Connect() before executing SQL")
	}

	ctx, cancel := s.getContext()
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSQLTransaction, "Failed to begin transaction")
	}

	txHandler := s.errorHandler.NewTransactionHandler(tx.Rollback)

	return txHandler.Execute(func() error {
		statements := splitStatements(script)

		for i, stmt := range statements {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}

			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				sqlErr := errors.SQLError(
					fmt.Sprintf("Failed to execute statement %d", i+1),
					stmt,
					err,
				).WithContext("statement_index", i+1).
					WithContext("total_statements", len(statements))

				errStr := err.Error()
				if strings.Contains(errStr, "does not exist") || strings.Contains(errStr, "not found") {
					sqlErr.Code = errors.ErrCodeSQLObjectNotFound
					sqlErr.WithSuggestions(
						"Verify the object exists in the target database/schema",
						"Check for typos in object names",
						"Ensure you have the correct permissions",
					)
				}

				return sqlErr
			}
		}

		if err := tx.Commit(); err != nil {
			return errors.Wrap(err, errors.ErrCodeSQLTransaction, "Failed to commit transaction")
		}

		return nil
	})
}

// Query runs a query and collects the full result set
func (s *Service) Query(query string, args ...interface{}) (*ResultSet, error) {
	if !s.connected {
		return nil, fmt.Errorf("not connected to database")
	}

	ctx, cancel := s.getContext()
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.SQLError("Query failed", query, err)
	}
	defer rows.Close()

	return collectRows(rows)
}

// QueryRow runs a query expected to return a single scalar value
func (s *Service) QueryRow(query string, args ...interface{}) (string, error) {
	rs, err := s.Query(query, args...)
	if err != nil {
		return "", err
	}
	if len(rs.Rows) == 0 || len(rs.Rows[0]) == 0 {
		return "", fmt.Errorf("query returned no rows")
	}
	return rs.Rows[0][0], nil
}

// CountRows returns the number of rows a query would produce
func (s *Service) CountRows(query string) (int64, error) {
	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM (%s)", stripTrailingSemicolon(query))
	val, err := s.QueryRow(countSQL)
	if err != nil {
		return 0, err
	}

	var n int64
	if _, err := fmt.Sscanf(val, "%d", &n); err != nil {
		return 0, fmt.Errorf("unexpected count value %q: %w", val, err)
	}
	return n, nil
}

// CreateTableAs materializes a query into a table
func (s *Service) CreateTableAs(qualifiedName, query string) error {
	stmt := fmt.Sprintf("CREATE OR REPLACE TABLE %s AS %s",
		qualifiedName, stripTrailingSemicolon(query))
	return s.Exec(stmt)
}

// TestConnection tests the database connection
func (s *Service) TestConnection() error {
	if !s.connected {
		if err := s.Connect(); err != nil {
			return err
		}
	}

	ctx, cancel := s.getContext()
	defer cancel()

	return s.db.PingContext(ctx)
}

// GetDB returns the underlying database connection
func (s *Service) GetDB() *sql.DB {
	return s.db
}

// Helper methods

func (s *Service) getContext() (context.Context, context.CancelFunc) {
	timeout := s.config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}

func stripTrailingSemicolon(query string) string {
	return strings.TrimSuffix(strings.TrimSpace(query), ";")
}

func splitStatements(script string) []string {
	// Splits on semicolons not within quoted strings
	var statements []string
	var current strings.Builder
	inString := false
	stringChar := rune(0)

	for i, char := range script {
		if !inString {
			if char == '\'' || char == '"' {
				inString = true
				stringChar = char
			} else if char == ';' {
				if i == 0 || script[i-1] != '\\' {
					statements = append(statements, current.String())
					current.Reset()
					continue
				}
			}
		} else {
			if char == stringChar && (i == 0 || script[i-1] != '\\') {
				inString = false
			}
		}
		current.WriteRune(char)
	}

	if current.Len() > 0 {
		statements = append(statements, current.String())
	}

	return statements
}

// ValidateConfig validates the Snowflake configuration
func ValidateConfig(config Config) error {
	if config.Account == "" {
		return fmt.Errorf("account is required")
	}
	if config.Username == "" {
		return fmt.Errorf("username is required")
	}
	if config.Password == "" {
		return fmt.Errorf("password is required")
	}
	if config.Warehouse == "" {
		return fmt.Errorf("warehouse is required")
	}
	if config.Role == "" {
		return fmt.Errorf("role is required")
	}
	return nil
}
