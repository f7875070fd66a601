package models

type Config struct {
	Snowflake Snowflake `yaml:"snowflake"`
	App       App       `yaml:"app"`
	Bootstrap Bootstrap `yaml:"bootstrap"`
	Search    Search    `yaml:"search"`
}

type Snowflake struct {
	Account   string `yaml:"account"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	Role      string `yaml:"role"`
	Warehouse string `yaml:"warehouse"`
	Database  string `yaml:"database"`
	Schema    string `yaml:"schema"`
	Timeout   string `yaml:"timeout"` // Connection timeout, e.g. "30s"
}

// App locates the application schema holding saved searches and announcements.
type App struct {
	Database string `yaml:"database"` // Default "APPLICATION_DB"
	Schema   string `yaml:"schema"`   // Default "APPLICATION_SCHEMA"
}

// Bootstrap configures the optional setup-SQL repository.
type Bootstrap struct {
	GitURL string `yaml:"git_url"`
	Branch string `yaml:"branch"`
	Path   string `yaml:"path"` // Subdirectory within the repo holding setup SQL
}

// Search holds defaults applied to query execution.
type Search struct {
	DefaultLimit int `yaml:"default_limit"` // Rows fetched unless overridden, default 100
	WarnRows     int `yaml:"warn_rows"`     // Pre-flight count warning threshold, default 5000
}

// QualifiedAppSchema returns the DB.SCHEMA prefix for application tables.
func (a App) QualifiedAppSchema() string {
	db := a.Database
	if db == "" {
		db = "APPLICATION_DB"
	}
	schema := a.Schema
	if schema == "" {
		schema = "APPLICATION_SCHEMA"
	}
	return db + "." + schema
}
