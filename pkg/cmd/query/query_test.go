package query

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/simresults-indexer/pkg/config"
	"github.com/mpapenbr/simresults-indexer/pkg/model"
	"github.com/mpapenbr/simresults-indexer/pkg/service"
)

func TestWriteFileTable(t *testing.T) {
	buf := &bytes.Buffer{}
	files := []*model.ResultFile{
		{
			Path:       "/results/2024_05_01_spa.xml",
			TrackVenue: "Spa",
			DateTime:   time.Date(2024, 5, 1, 20, 0, 0, 0, time.Local).Unix(),
			Size:       2048,
			IndexedAt:  time.Now(),
		},
		{Path: "/results/unknown.xml", Size: 10, IndexedAt: time.Now()},
	}
	require.NoError(t, writeFileTable(buf, files))
	out := buf.String()
	assert.Contains(t, out, "FILE")
	assert.Contains(t, out, "2024_05_01_spa.xml")
	assert.Contains(t, out, "2024-05-01 20:00:00")
	assert.Contains(t, out, "2.0 kB")
	assert.Contains(t, out, "unknown.xml")
}

func TestWriteInfo(t *testing.T) {
	buf := &bytes.Buffer{}
	info := &service.Info{
		Settings: &config.Settings{PilotNames: "Jane Doe", ResultsFolder: "/results"},
		Store: &model.StoreStats{
			Backend: "sqlite", Location: ":memory:", Degraded: true,
			Files: 1200, Laps: 45000, SizeBytes: 3_000_000,
		},
	}
	require.NoError(t, writeInfo(buf, info))
	out := buf.String()
	assert.Contains(t, out, "Jane Doe")
	assert.Contains(t, out, "in-memory fallback")
	assert.Contains(t, out, "1,200")
	assert.Contains(t, out, "45,000")
	assert.Contains(t, out, "3.0 MB")
}

func TestAbsPath(t *testing.T) {
	got := absPath("some/file.xml")
	assert.True(t, filepath.IsAbs(got))
	assert.Equal(t, "/abs/file.xml", absPath("/abs/file.xml"))
}
