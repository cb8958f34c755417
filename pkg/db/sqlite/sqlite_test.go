package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathFromURL(t *testing.T) {
	assert.Equal(t, "/tmp/x.db", PathFromURL("sqlite:///tmp/x.db"))
	assert.Equal(t, "rel.db", PathFromURL("sqlite://rel.db"))
	assert.Equal(t, "/tmp/y.db", PathFromURL("/tmp/y.db"))
}

func TestOpenAppliesPragmas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.db")
	db, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer db.Close()

	var fk int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestOpenMemory(t *testing.T) {
	db, err := Open(context.Background(), MemoryPath)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec("create table t (a integer)")
	require.NoError(t, err)
	_, err = db.Exec("insert into t values (1)")
	require.NoError(t, err)
	var n int
	require.NoError(t, db.QueryRow("select count(*) from t").Scan(&n))
	assert.Equal(t, 1, n)
	assert.Empty(t, BackingFiles(MemoryPath))
}
