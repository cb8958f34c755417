package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "modernc.org/sqlite"
)

const MemoryPath = ":memory:"

var pragmas = []string{
	"foreign_keys(1)",
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
}

// DSN builds the modernc connection string for path
func DSN(path string) string {
	q := url.Values{}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	if path == MemoryPath {
		// WAL is not available for in-memory databases
		q = url.Values{}
		q.Add("_pragma", pragmas[0])
		return "file::memory:?" + q.Encode()
	}
	return fmt.Sprintf("file:%s?%s", path, q.Encode())
}

// PathFromURL accepts "sqlite:///abs/path", "sqlite://rel/path" or a bare path
func PathFromURL(s string) string {
	switch {
	case strings.HasPrefix(s, "sqlite://"):
		return strings.TrimPrefix(s, "sqlite://")
	case strings.HasPrefix(s, "file:"):
		return strings.TrimPrefix(s, "file:")
	default:
		return s
	}
}

// Open opens the database at path and verifies the connection.
// In-memory databases are restricted to a single connection.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", DSN(path))
	if err != nil {
		return nil, err
	}
	if path == MemoryPath {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// BackingFiles returns the files SQLite uses for path
func BackingFiles(path string) []string {
	if path == MemoryPath {
		return nil
	}
	return []string{path, path + "-wal", path + "-shm"}
}
