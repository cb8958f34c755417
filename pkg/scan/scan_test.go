//nolint:funlen // test code
package scan

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/simresults-indexer/pkg/model"
	"github.com/mpapenbr/simresults-indexer/testsupport/sampledata"
)

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	sampledata.Write(t, dir, "a.xml", sampledata.RaceFile(1))
	sampledata.Write(t, dir, "sub/b.XML", sampledata.RaceFile(2))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	files, err := ListFiles(dir, ".xml")
	require.NoError(t, err)
	slices.Sort(files)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.xml"),
		filepath.Join(dir, "sub", "b.XML"),
	}, files)

	_, err = ListFiles(filepath.Join(dir, "missing"), ".xml")
	assert.Error(t, err)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	good := sampledata.Write(t, dir, "good.xml", sampledata.RaceFile(1700000000))
	bad := filepath.Join(dir, "bad.xml")
	require.NoError(t, os.WriteFile(bad, []byte("<RaceResults><Race>"), 0o600))

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"good", good, false},
		{"malformed", bad, true},
		{"missing", filepath.Join(dir, "gone.xml"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sf := ReadFile(tt.path)
			assert.Equal(t, tt.path, sf.Path)
			if tt.wantErr {
				assert.Error(t, sf.Err)
				assert.Nil(t, sf.Root)
				return
			}
			require.NoError(t, sf.Err)
			assert.NotNil(t, sf.Root)
			assert.Positive(t, sf.Size)
			assert.False(t, sf.MTime.IsZero())
		})
	}
}

func TestScanDir(t *testing.T) {
	dir := t.TempDir()
	for i, name := range []string{"a.xml", "b.xml", "c.xml", "d.xml"} {
		sampledata.Write(t, dir, name, sampledata.RaceFile(int64(1700000000+i)))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.xml"), []byte("nope"), 0o600))

	s := NewScanner(WithWorkers(2))
	files, err := s.ScanDir(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, files, 5)
	failed := 0
	for _, f := range files {
		if f.Err != nil {
			failed++
		}
	}
	assert.Equal(t, 1, failed)
}

func TestScanCanceled(t *testing.T) {
	dir := t.TempDir()
	sampledata.Write(t, dir, "a.xml", sampledata.RaceFile(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	files, err := NewScanner().ScanDir(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, files)
}

func TestSortByEventDate(t *testing.T) {
	dir := t.TempDir()
	older := ReadFile(sampledata.Write(t, dir, "older.xml", sampledata.RaceFile(1600000000)))
	newer := ReadFile(sampledata.Write(t, dir, "newer.xml", sampledata.RaceFile(1700000000)))
	undated := ReadFile(sampledata.Write(t, dir, "undated.xml", sampledata.RaceFile(0)))

	files := []model.ScannedFile{older, undated, newer}
	SortByEventDate(files)
	// undated falls back to its mtime, which is now
	assert.Equal(t, []string{undated.Path, newer.Path, older.Path},
		[]string{files[0].Path, files[1].Path, files[2].Path})
}

func TestWithExtension(t *testing.T) {
	assert.Equal(t, ".xml", NewScanner(WithExtension("")).extension)
	assert.Equal(t, ".res", NewScanner(WithExtension("res")).extension)
	assert.Equal(t, ".res", NewScanner(WithExtension(".res")).extension)
}
