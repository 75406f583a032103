package db

import (
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studytracker/backend/migrations"
)

func TestRunMigrationsIsIdempotent(t *testing.T) {
	database, err := OpenSQLite(filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	applied, err := RunMigrations(database, migrations.FS)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_init.sql"}, applied)

	applied, err = RunMigrations(database, migrations.FS)
	require.NoError(t, err)
	assert.Empty(t, applied)

	var n int
	require.NoError(t, database.QueryRow(`SELECT COUNT(1) FROM sqlite_master WHERE name = 'study_sessions'`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestRunMigrationsRollsBackFailedFile(t *testing.T) {
	database, err := OpenSQLite(filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	source := fstest.MapFS{
		"0001_ok.sql":  {Data: []byte(`CREATE TABLE a (x INTEGER);`)},
		"0002_bad.sql": {Data: []byte(`CREATE TABLE b (;`)},
		"README.md":    {Data: []byte(`ignored`)},
	}
	applied, err := RunMigrations(database, source)
	require.Error(t, err)
	assert.Equal(t, []string{"0001_ok.sql"}, applied)

	var n int
	require.NoError(t, database.QueryRow(`SELECT COUNT(1) FROM schema_migrations`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestForeignKeysAreEnforced(t *testing.T) {
	database, err := OpenSQLite(filepath.Join(t.TempDir(), "fk.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	var enabled int
	require.NoError(t, database.QueryRow(`PRAGMA foreign_keys`).Scan(&enabled))
	assert.Equal(t, 1, enabled)
}
