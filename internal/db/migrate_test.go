package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindMigrationsDirWalksUp(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, migrationsDirName), 0o755))
	nested := filepath.Join(root, "cmd", "finance-app")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	t.Chdir(nested)

	path, err := findMigrationsDir(migrationsDirName)
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(filepath.Join(root, migrationsDirName))
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFindMigrationsDirMissing(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := findMigrationsDir("no-such-migrations-dir-for-test")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMigrationFilesSortedSQLOnly(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_b.sql", "0001_a.sql", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "0003_dir.sql"), 0o755))

	files, err := migrationFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_a.sql", "0002_b.sql"}, files)
}

func TestPendingMigrationsSkipsApplied(t *testing.T) {
	files := []string{"0001_accounts.sql", "0002_expenses.sql", "0003_weekly_analyses.sql"}
	done := map[string]struct{}{"0001_accounts.sql": {}}

	assert.Equal(t, []string{"0002_expenses.sql", "0003_weekly_analyses.sql"}, pendingMigrations(files, done))
	assert.Empty(t, pendingMigrations(files[:1], done))
}
