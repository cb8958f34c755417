// Package testdb provides postgres locations for store tests
package testdb

import (
	"context"
	"os"
	"testing"

	tcpg "github.com/mpapenbr/simresults-indexer/testsupport/tcpostgres"
)

// PostgresURL returns the url of a postgres test database.
// TESTDB_URL points to an existing server, SRI_TEST_POSTGRES=1 starts a
// container. Without either the test is skipped.
func PostgresURL(t *testing.T) string {
	t.Helper()
	if url := os.Getenv("TESTDB_URL"); url != "" {
		return url
	}
	if os.Getenv("SRI_TEST_POSTGRES") != "1" {
		t.Skip("postgres tests disabled, set SRI_TEST_POSTGRES=1 or TESTDB_URL")
	}
	url, err := tcpg.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return url
}
