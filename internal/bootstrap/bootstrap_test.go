package bootstrap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snowsearch/pkg/models"
)

type recordingExecutor struct {
	scripts []string
	failOn  string
}

func (r *recordingExecutor) ExecuteScript(script string) error {
	if r.failOn != "" && script == r.failOn {
		return assert.AnError
	}
	r.scripts = append(r.scripts, script)
	return nil
}

func writeScripts(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0600))
	}
}

func TestCollectScriptsSortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	writeScripts(t, dir, map[string]string{
		"002_tables.sql": "b",
		"001_schema.sql": "a",
		"010_grants.SQL": "c",
		"README.md":      "ignored",
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

	scripts, err := CollectScripts(dir, "")
	require.NoError(t, err)
	require.Len(t, scripts, 3)
	assert.Equal(t, "001_schema.sql", filepath.Base(scripts[0]))
	assert.Equal(t, "002_tables.sql", filepath.Base(scripts[1]))
	assert.Equal(t, "010_grants.SQL", filepath.Base(scripts[2]))
}

func TestCollectScriptsSubPath(t *testing.T) {
	dir := t.TempDir()
	writeScripts(t, filepath.Join(dir, "setup"), map[string]string{"001.sql": "x"})

	scripts, err := CollectScripts(dir, "setup")
	require.NoError(t, err)
	require.Len(t, scripts, 1)
}

func TestCollectScriptsRejectsTraversal(t *testing.T) {
	_, err := CollectScripts(t.TempDir(), "../escape")
	assert.Error(t, err)
}

func TestApplyRunsScriptsInOrder(t *testing.T) {
	dir := t.TempDir()
	writeScripts(t, dir, map[string]string{
		"002.sql": "CREATE TABLE B (X NUMBER)",
		"001.sql": "CREATE TABLE A (X NUMBER)",
	})

	exec := &recordingExecutor{}
	svc := NewService()
	applied, err := svc.Apply(exec, dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"001.sql", "002.sql"}, applied)
	assert.Equal(t, []string{
		"CREATE TABLE A (X NUMBER)",
		"CREATE TABLE B (X NUMBER)",
	}, exec.scripts)
}

func TestApplyStopsOnFailure(t *testing.T) {
	dir := t.TempDir()
	writeScripts(t, dir, map[string]string{
		"001.sql": "ok",
		"002.sql": "boom",
		"003.sql": "never",
	})

	exec := &recordingExecutor{failOn: "boom"}
	svc := NewService()
	applied, err := svc.Apply(exec, dir, "")
	require.Error(t, err)
	assert.Equal(t, []string{"001.sql"}, applied)
	assert.NotContains(t, exec.scripts, "never")
}

func TestApplyEmptyDir(t *testing.T) {
	exec := &recordingExecutor{}
	svc := NewService()
	_, err := svc.Apply(exec, t.TempDir(), "")
	assert.Error(t, err)
}

func TestSyncRequiresURL(t *testing.T) {
	svc := NewService()
	_, err := svc.Sync(models.Bootstrap{})
	assert.Error(t, err)
}
