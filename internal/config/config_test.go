package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snowsearch/pkg/models"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("SNOWSEARCH_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "APPLICATION_DB", cfg.App.Database)
	assert.Equal(t, "APPLICATION_SCHEMA", cfg.App.Schema)
	assert.Equal(t, 100, cfg.Search.DefaultLimit)
	assert.Equal(t, 5000, cfg.Search.WarnRows)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SNOWSEARCH_CONFIG", filepath.Join(dir, "config.yaml"))

	cfg := Default()
	cfg.Snowflake = models.Snowflake{
		Account:   "xy12345.us-east-1",
		Username:  "analyst",
		Role:      "SYSADMIN",
		Warehouse: "COMPUTE_WH",
		Database:  "BANK_DB",
		Schema:    "BANK_SCHEMA",
		Timeout:   "45s",
	}
	cfg.Bootstrap.GitURL = "https://example.com/setup-sql.git"
	cfg.Bootstrap.Branch = "main"

	require.NoError(t, Save(cfg))
	assert.True(t, Exists())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, cfg.Snowflake, loaded.Snowflake)
	assert.Equal(t, cfg.Bootstrap, loaded.Bootstrap)
}

func TestSaveCreatesRestrictivePermissions(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "nested", "config.yaml")
	t.Setenv("SNOWSEARCH_CONFIG", file)

	require.NoError(t, Save(Default()))

	info, err := os.Stat(file)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestQualifiedAppSchemaDefaults(t *testing.T) {
	assert.Equal(t, "APPLICATION_DB.APPLICATION_SCHEMA", models.App{}.QualifiedAppSchema())
	assert.Equal(t, "MYDB.MYSCHEMA", models.App{Database: "MYDB", Schema: "MYSCHEMA"}.QualifiedAppSchema())
}
