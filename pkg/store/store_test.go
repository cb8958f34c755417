//nolint:funlen,dupl // test code
package store

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/simresults-indexer/pkg/model"
	"github.com/mpapenbr/simresults-indexer/pkg/repository"
	"github.com/mpapenbr/simresults-indexer/testsupport/testdb"
)

func sampleRecord(path string, drivers ...string) *model.FileRecord {
	sess := &model.Session{
		Seq:               0,
		Name:              "Race",
		Type:              model.SessionRace,
		DateTime:          1700000000,
		LapsConfigured:    3,
		MinutesConfigured: model.NaN(),
		DriverCount:       len(drivers),
		Stream: &model.StreamBlob{
			Data:          []byte("<Stream><Incident et=\"1.0\">x</Incident></Stream>"),
			Incidents:     1,
			DriverChanges: 0,
		},
	}
	for i, name := range drivers {
		sess.Drivers = append(sess.Drivers, &model.Driver{
			Name:            name,
			AllDrivers:      []string{name},
			OverallPosition: model.Float(i + 1),
			ClassPosition:   model.NaN(),
			LapsCount:       2,
			BestLapTime:     model.Float(90 + i),
			BestLapNum:      2,
			VehicleClass:    "GT3",
			Pitstops:        model.NaN(),
			FinishTime:      model.NaN(),
			Laps: []*model.Lap{
				{LapNum: 1, LapTime: model.NaN(), Sector1: 30, Sector2: model.NaN(),
					Sector3: model.NaN(), FuelUsed: model.NaN(), TopSpeed: 270},
				{LapNum: 2, LapTime: model.Float(90 + i), Sector1: 30, Sector2: 30,
					Sector3: model.Float(30 + i), FuelUsed: 2.5, TopSpeed: 280, IsPit: true},
			},
		})
	}
	return &model.FileRecord{
		File: &model.ResultFile{
			Path:        path,
			Fingerprint: "fp-" + path,
			Size:        1234,
			MTime:       time.UnixMilli(1700000000123),
			IndexedAt:   time.UnixMilli(1700000001000),
			TrackVenue:  "Spa",
			TrackCourse: "Spa GP",
			TrackLength: model.NaN(),
			DateTime:    1700000000,
		},
		Sessions: []*model.Session{sess},
	}
}

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db", "index.db")
	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestReplaceFileRoundTrip(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()
	require.NoError(t, s.ReplaceFile(ctx, sampleRecord("/r/a.xml", "D1", "D2")))

	rec, err := s.GetByPath(ctx, "/r/a.xml")
	require.NoError(t, err)
	assert.Equal(t, "Spa GP", rec.File.TrackCourse)
	assert.True(t, rec.File.TrackLength.IsNaN())
	assert.Equal(t, int64(1700000000123), rec.File.MTime.UnixMilli())
	require.Len(t, rec.Sessions, 1)
	sess := rec.Sessions[0]
	assert.Equal(t, model.SessionRace, sess.Type)
	assert.Equal(t, model.Float(3), sess.LapsConfigured)
	assert.True(t, sess.MinutesConfigured.IsNaN())
	require.NotNil(t, sess.Stream)
	assert.Equal(t, 1, sess.Stream.Incidents)
	assert.Contains(t, string(sess.Stream.Data), "Incident")

	require.Len(t, sess.Drivers, 2)
	d := sess.Drivers[0]
	assert.Equal(t, "D1", d.Name)
	assert.Equal(t, []string{"D1"}, d.AllDrivers)
	assert.True(t, d.ClassPosition.IsNaN())
	assert.Equal(t, model.Float(1), d.OverallPosition)
	require.Len(t, d.Laps, 2)
	assert.True(t, d.Laps[0].LapTime.IsNaN())
	assert.Equal(t, model.Float(90), d.Laps[1].LapTime)
	assert.True(t, d.Laps[1].IsPit)
	assert.False(t, d.Laps[0].IsPit)
}

func TestReplaceFileReplaces(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()
	require.NoError(t, s.ReplaceFile(ctx, sampleRecord("/r/a.xml", "D1", "D2")))
	require.NoError(t, s.ReplaceFile(ctx, sampleRecord("/r/a.xml", "D3")))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Files)
	assert.Equal(t, int64(1), stats.Sessions)
	assert.Equal(t, int64(1), stats.Drivers)
	assert.Equal(t, int64(2), stats.Laps)
	assert.Equal(t, int64(1), stats.Streams)
	assert.Positive(t, stats.SizeBytes)
	assert.Equal(t, "sqlite", stats.Backend)

	rec, err := s.GetByPath(ctx, "/r/a.xml")
	require.NoError(t, err)
	assert.Equal(t, "D3", rec.Sessions[0].Drivers[0].Name)
}

func TestFingerprint(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()
	_, found, err := s.Fingerprint(ctx, "/r/a.xml")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.ReplaceFile(ctx, sampleRecord("/r/a.xml", "D1")))
	fp, found, err := s.Fingerprint(ctx, "/r/a.xml")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "fp-/r/a.xml", fp)
}

func TestGetByPathUnknown(t *testing.T) {
	s, _ := openTemp(t)
	_, err := s.GetByPath(context.Background(), "/nope.xml")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetDates(context.Background(), "/nope.xml")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAllAndDates(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()
	older := sampleRecord("/r/old.xml", "D1")
	older.File.DateTime = 1600000000
	require.NoError(t, s.ReplaceFile(ctx, older))
	require.NoError(t, s.ReplaceFile(ctx, sampleRecord("/r/new.xml", "D1")))

	files, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "/r/new.xml", files[0].Path)
	assert.Equal(t, "/r/old.xml", files[1].Path)

	dates, err := s.GetDates(ctx, "/r/old.xml")
	require.NoError(t, err)
	assert.Equal(t, int64(1600000000), dates.DateTime)

	recs, err := s.LoadRecords(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Nil(t, recs[0].Sessions[0].Stream)
	assert.Len(t, recs[0].Sessions[0].Drivers[0].Laps, 2)
}

func TestPrune(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()
	for _, p := range []string{"/r/a.xml", "/r/b.xml", "/r/c.xml"} {
		require.NoError(t, s.ReplaceFile(ctx, sampleRecord(p, "D1")))
	}
	exists := func(p string) bool { return p == "/r/b.xml" }

	n, err := s.Prune(ctx, exists)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.Prune(ctx, exists)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Files)
	assert.Equal(t, int64(1), stats.Sessions)
	assert.Equal(t, int64(2), stats.Laps)
}

func TestPruneCountsCommittedOnly(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()
	require.NoError(t, s.ReplaceFile(ctx, sampleRecord("/r/a.xml", "D1")))

	failingCommit := func(ctx context.Context, fn func(q repository.Querier) error) error {
		tx, err := s.db.BeginTx(ctx, nil)
		require.NoError(t, err)
		require.NoError(t, fn(repository.Wrap(tx, s.dialect)))
		require.NoError(t, tx.Rollback())
		return errors.New("commit: disk I/O error")
	}
	n, err := pruneFile(ctx, failingCommit, "/r/a.xml")
	assert.EqualError(t, err, "commit: disk I/O error")
	assert.Equal(t, 0, n)

	_, err = s.GetByPath(ctx, "/r/a.xml")
	require.NoError(t, err)

	n, err = pruneFile(ctx, s.write, "/r/a.xml")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestReset(t *testing.T) {
	s, path := openTemp(t)
	ctx := context.Background()
	require.NoError(t, s.ReplaceFile(ctx, sampleRecord("/r/a.xml", "D1")))
	require.NoError(t, s.Reset(ctx))

	_, err := os.Stat(path)
	require.NoError(t, err)
	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Files)

	require.NoError(t, s.ReplaceFile(ctx, sampleRecord("/r/a.xml", "D1")))
	_, found, err := s.Fingerprint(ctx, "/r/a.xml")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestResetMemory(t *testing.T) {
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()
	require.NoError(t, s.ReplaceFile(ctx, sampleRecord("/r/a.xml", "D1")))
	require.NoError(t, s.Reset(ctx))
	files, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestOpenOrDegrade(t *testing.T) {
	// a regular file blocks the database directory
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	s, err := OpenOrDegrade(context.Background(), filepath.Join(blocker, "sub", "index.db"))
	require.NoError(t, err)
	defer s.Close()
	assert.True(t, s.Degraded())
	assert.Equal(t, ":memory:", s.Location())

	require.NoError(t, s.ReplaceFile(context.Background(), sampleRecord("/r/a.xml", "D1")))
	stats, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.Degraded)
	assert.Equal(t, int64(1), stats.Files)
}

func TestClosed(t *testing.T) {
	s, _ := openTemp(t)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	_, _, err := s.Fingerprint(context.Background(), "/r/a.xml")
	assert.True(t, errors.Is(err, ErrClosed))
	assert.ErrorIs(t, s.ReplaceFile(context.Background(), sampleRecord("/x", "D1")), ErrClosed)
}

func TestSchemaVersion(t *testing.T) {
	s, _ := openTemp(t)
	v, dirty, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)
	assert.False(t, dirty)
}

func TestConcurrentWrites(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()
	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := filepath.Join("/r", string(rune('a'+i%5))+".xml")
			errs <- s.ReplaceFile(ctx, sampleRecord(p, "D1", "D2"))
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.Files)
	assert.Equal(t, int64(10), stats.Drivers)
}

func TestPostgres(t *testing.T) {
	url := testdb.PostgresURL(t)
	ctx := context.Background()
	s, err := Open(ctx, url, WithWaitForServices(10*time.Second))
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Reset(ctx))

	rec := sampleRecord("/r/a.xml", "D1", "D2")
	require.NoError(t, s.ReplaceFile(ctx, rec))
	require.NoError(t, s.ReplaceFile(ctx, rec))
	got, err := s.GetByPath(ctx, "/r/a.xml")
	require.NoError(t, err)
	require.Len(t, got.Sessions[0].Drivers, 2)
	assert.True(t, math.IsNaN(float64(got.Sessions[0].Drivers[0].ClassPosition)))

	n, err := s.Prune(ctx, func(string) bool { return false })
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "postgres", stats.Backend)
	assert.Equal(t, int64(0), stats.Laps)
}
