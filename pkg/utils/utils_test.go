//nolint:funlen // by design
package utils

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFromDBURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"with port", "postgresql://user:pw@db.local:6543/sri", "db.local:6543"},
		{"default port", "postgresql://user:pw@db.local/sri", "db.local:5432"},
		{"short scheme", "postgres://db.local:5433/sri?sslmode=disable", "db.local:5433"},
		{"sqlite path", "/home/me/.sri/results.db", ""},
		{"sqlite url", "sqlite:///tmp/x.db", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractFromDBURL(tt.url))
		})
	}
}

func TestFileFingerprint(t *testing.T) {
	mtime := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	a := FileFingerprint("/r/a.xml", 100, mtime)
	assert.Len(t, a, 64)
	assert.Equal(t, a, FileFingerprint("/r/a.xml", 100, mtime))
	assert.NotEqual(t, a, FileFingerprint("/r/a.xml", 101, mtime))
	assert.NotEqual(t, a, FileFingerprint("/r/a.xml", 100, mtime.Add(time.Second)))
	assert.NotEqual(t, a, FileFingerprint("/r/b.xml", 100, mtime))
}

func TestHashStringsSeparator(t *testing.T) {
	assert.NotEqual(t, HashStrings("ab", "c"), HashStrings("a", "bc"))
}

func TestWaitForTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	assert.NoError(t, WaitForTCP(context.Background(), ln.Addr().String(), time.Second))

	addr := ln.Addr().String()
	ln.Close()
	assert.Error(t, WaitForTCP(context.Background(), addr, 300*time.Millisecond))
}
