package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) string {
	t.Helper()
	return "sqlite://" + filepath.Join(t.TempDir(), "test.db")
}

func TestOpen_UnsupportedScheme(t *testing.T) {
	_, err := Open("mysql://localhost/db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database scheme")
}

func TestOpen_InvalidURL(t *testing.T) {
	_, err := Open("://nope")
	assert.Error(t, err)
}

func TestMigrateUp_Idempotent(t *testing.T) {
	db, err := Open(openTestDB(t))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, MigrateUp(db))
	require.NoError(t, MigrateUp(db))

	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM schema_migrations"))
	assert.Equal(t, 1, count)

	var tables []string
	require.NoError(t, db.Select(&tables, "SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name"))
	for _, table := range []string{"forms", "form_sections", "form_fields", "leads", "submissions", "email_templates", "email_rules", "email_logs", "jobs"} {
		assert.Contains(t, tables, table)
	}
}

func TestMigrateUp_ChecksumMismatch(t *testing.T) {
	db, err := Open(openTestDB(t))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, MigrateUp(db))
	_, err = db.Exec("UPDATE schema_migrations SET checksum = 'tampered'")
	require.NoError(t, err)

	err = MigrateUp(db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum mismatch")
}

func TestQueries_NamedStatements(t *testing.T) {
	db, err := Open(openTestDB(t))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, MigrateUp(db))

	q, err := LoadQueries(db)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = q.Exec(ctx, "delete-form", "missing")
	assert.NoError(t, err)

	_, err = q.Exec(ctx, "no-such-query")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query not found")
}

func TestInTx_RollsBackOnError(t *testing.T) {
	db, err := Open(openTestDB(t))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, MigrateUp(db))

	q, err := LoadQueries(db)
	require.NoError(t, err)

	ctx := context.Background()
	err = q.InTx(ctx, func(tx *Tx) error {
		if _, err := tx.Exec(ctx, "create-form", "f1", "Form", "form", "", "2026-01-01 00:00:00", "2026-01-01 00:00:00"); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM forms"))
	assert.Equal(t, 0, count)
}

func TestSqliteDSN_AddsPragmas(t *testing.T) {
	db, err := Open(openTestDB(t))
	require.NoError(t, err)
	defer db.Close()

	var fk int
	require.NoError(t, db.Get(&fk, "PRAGMA foreign_keys"))
	assert.Equal(t, 1, fk)
}
