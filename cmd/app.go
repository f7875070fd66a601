package cmd

import (
	"fmt"

	"snowsearch/internal/config"
	"snowsearch/internal/security"
	"snowsearch/internal/snowflake"
	"snowsearch/internal/store"
	"snowsearch/internal/ui"
	"snowsearch/pkg/errors"
	"snowsearch/pkg/models"
)

// app bundles the connected service and stores used by every page command
type app struct {
	cfg      *models.Config
	service  *snowflake.Service
	searches *store.SearchStore
	adhoc    *store.AdhocStore
	notices  *store.AnnouncementStore
}

// connectApp loads configuration, resolves the stored password and opens
// the warehouse connection.
func connectApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.Snowflake.Account == "" {
		return nil, errors.New(errors.ErrCodeConfigNotFound, "SnowSearch is not configured").
			WithSuggestions("Run 'snowsearch setup' first")
	}

	password := cfg.Snowflake.Password
	if password == "" {
		creds, err := security.NewCredentialStore()
		if err != nil {
			return nil, err
		}
		password, err = creds.GetPassword(cfg.Snowflake.Account, cfg.Snowflake.Username)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeCredentialStore,
				"No stored password found").
				WithSuggestions("Run 'snowsearch setup' to store credentials")
		}
	}

	connCfg := snowflake.ConfigFromModel(cfg.Snowflake, password)
	if err := snowflake.ValidateConfig(connCfg); err != nil {
		return nil, errors.ConfigError(err.Error(), "snowflake")
	}

	service := snowflake.NewService(connCfg)
	if err := service.Connect(); err != nil {
		return nil, err
	}

	schema := cfg.App.QualifiedAppSchema()
	db := service.GetDB()
	return &app{
		cfg:      cfg,
		service:  service,
		searches: store.NewSearchStore(db, schema),
		adhoc:    store.NewAdhocStore(db, schema),
		notices:  store.NewAnnouncementStore(db, schema),
	}, nil
}

// Close releases the warehouse connection
func (a *app) Close() {
	if a.service != nil {
		a.service.Close()
	}
}

// defaultLimit returns the configured row limit
func (a *app) defaultLimit() int {
	if a.cfg.Search.DefaultLimit > 0 {
		return a.cfg.Search.DefaultLimit
	}
	return 100
}

// warnRows returns the pre-flight count warning threshold
func (a *app) warnRows() int {
	if a.cfg.Search.WarnRows > 0 {
		return a.cfg.Search.WarnRows
	}
	return 5000
}

// selectDatabaseSchema walks the user through database and schema selection,
// defaulting to the configured data context.
func (a *app) selectDatabaseSchema() (string, string, error) {
	databases, err := a.service.ListDatabases()
	if err != nil {
		return "", "", err
	}
	if len(databases) == 0 {
		return "", "", errors.New(errors.ErrCodeCatalogUnavailable, "No accessible databases").
			WithSuggestions("Check your role's privileges")
	}

	database, err := ui.SearchableSelect("Database:", databases)
	if err != nil {
		return "", "", err
	}

	schemas, err := a.service.ListSchemas(database)
	if err != nil {
		return "", "", err
	}
	if len(schemas) == 0 {
		return "", "", errors.New(errors.ErrCodeCatalogUnavailable,
			fmt.Sprintf("No schemas in database %s", database))
	}

	schema, err := ui.SearchableSelect("Schema:", schemas)
	if err != nil {
		return "", "", err
	}
	return database, schema, nil
}

// selectRelation presents tables and views of a schema with kind labels
// and returns the chosen relation name.
func (a *app) selectRelation(database, schema string) (string, error) {
	relations, err := a.service.ListRelations(database, schema)
	if err != nil {
		return "", err
	}
	if len(relations) == 0 {
		return "", errors.New(errors.ErrCodeCatalogUnavailable,
			fmt.Sprintf("No tables or views in %s.%s", database, schema))
	}

	labels := make([]string, len(relations))
	byLabel := make(map[string]string, len(relations))
	for i, rel := range relations {
		labels[i] = rel.Label()
		byLabel[rel.Label()] = rel.Name
	}

	label, err := ui.SearchableSelect("Table or view:", labels)
	if err != nil {
		return "", err
	}
	return byLabel[label], nil
}

// runWithPreflight counts the rows a query would return, warns above the
// configured threshold, then executes and renders the result.
func (a *app) runWithPreflight(sql string) (*snowflake.ResultSet, error) {
	count, err := a.service.CountRows(sql)
	if err != nil {
		ui.ShowWarning(fmt.Sprintf("Could not check the result size: %v", err))
	} else if count > int64(a.warnRows()) {
		ui.ShowWarning(fmt.Sprintf("Query matches %d rows (threshold %d)", count, a.warnRows()))
		proceed, err := ui.Confirm("Run anyway?", false)
		if err != nil {
			return nil, err
		}
		if !proceed {
			return nil, errors.New(errors.ErrCodeValidationFailed, "Cancelled").
				WithSeverity(errors.SeverityInfo)
		}
	}

	return a.service.Query(sql)
}
