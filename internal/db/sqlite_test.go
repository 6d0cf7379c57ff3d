package db

import (
	"path/filepath"
	"strings"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	write := buildDSN("/tmp/admin.sqlite", "write")
	read := buildDSN("/tmp/admin.sqlite", "read")

	for _, dsn := range []string{write, read} {
		assert.True(t, strings.HasPrefix(dsn, "file:/tmp/admin.sqlite?"))
		assert.Contains(t, dsn, "_journal_mode=WAL")
		assert.Contains(t, dsn, "_busy_timeout=5000")
		assert.Contains(t, dsn, "_synchronous=NORMAL")
		assert.Contains(t, dsn, "_foreign_keys=on")
	}
	// Only the write pool takes the immediate transaction lock.
	assert.Contains(t, write, "_txlock=immediate")
	assert.NotContains(t, read, "_txlock")
}

func TestOpenSQLite_RejectsUnknownMode(t *testing.T) {
	_, err := OpenSQLite(filepath.Join(t.TempDir(), "admin.db"), "append", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid SQLite mode")
}

func TestOpenSQLite_AppliesPragmas(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "admin.db"), "write", 0)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	var journalMode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", strings.ToLower(journalMode))

	var busyTimeout int
	require.NoError(t, db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
	assert.Equal(t, 5000, busyTimeout)

	var fk int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)

	// The write pool is single-connection so writers serialize.
	assert.Equal(t, 1, db.Stats().MaxOpenConnections)
}

func TestOpenSQLite_ReadPoolSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "admin.db")
	wdb, err := OpenSQLite(path, "write", 0)
	require.NoError(t, err)
	wdb.Close()

	db, err := OpenSQLite(path, "read", 0)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// Zero falls back to the default read pool size.
	assert.Equal(t, 4, db.Stats().MaxOpenConnections)
}

func TestOpenSQLite_InvalidPath(t *testing.T) {
	_, err := OpenSQLite("/nonexistent/dir/admin.db", "write", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping sqlite")
}

func TestOpenSQLitePair_WritesVisibleToReadPool(t *testing.T) {
	writeDB, readDB := OpenTestSQLite(t)

	_, err := writeDB.Exec(
		`INSERT INTO accounts (id, name) VALUES ('acc-1', 'Northside Clinic')`)
	require.NoError(t, err)

	var name string
	require.NoError(t, readDB.QueryRow(
		`SELECT name FROM accounts WHERE id = 'acc-1'`).Scan(&name))
	assert.Equal(t, "Northside Clinic", name)
}

// Concurrent writers and readers must not surface SQLITE_BUSY: the single
// write connection serializes writers and busy_timeout covers readers that
// land mid-checkpoint.
func TestOpenSQLitePair_ConcurrentAccess(t *testing.T) {
	writeDB, readDB := OpenTestSQLite(t)

	_, err := writeDB.Exec(`INSERT INTO accounts (id, name) VALUES ('acc-1', 'c')`)
	require.NoError(t, err)

	var wg sync.WaitGroup
	writeErrs := make([]error, 20)
	readErrs := make([]error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(idx int) {
			defer wg.Done()
			_, writeErrs[idx] = writeDB.Exec(
				`UPDATE accounts SET name = name || 'x' WHERE id = 'acc-1'`)
		}(i)
		go func(idx int) {
			defer wg.Done()
			var name string
			readErrs[idx] = readDB.QueryRow(
				`SELECT name FROM accounts WHERE id = 'acc-1'`).Scan(&name)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 20; i++ {
		assert.NoError(t, writeErrs[i], "writer %d", i)
		assert.NoError(t, readErrs[i], "reader %d", i)
	}

	var name string
	require.NoError(t, readDB.QueryRow(
		`SELECT name FROM accounts WHERE id = 'acc-1'`).Scan(&name))
	assert.Len(t, name, 21)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	writeDB, _ := OpenTestSQLite(t)

	// OpenTestSQLite already migrated; a second run is a no-op.
	require.NoError(t, RunMigrations(writeDB))

	var n int
	require.NoError(t, writeDB.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'admin_audit'`).Scan(&n))
	assert.Equal(t, 1, n)
}
