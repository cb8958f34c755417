//nolint:funlen // test code
package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/assert/cmp"

	gta "gotest.tools/v3/assert"

	"github.com/mpapenbr/simresults-indexer/pkg/model"
	"github.com/mpapenbr/simresults-indexer/pkg/notify"
	"github.com/mpapenbr/simresults-indexer/pkg/processing/extract"
	"github.com/mpapenbr/simresults-indexer/pkg/scan"
	"github.com/mpapenbr/simresults-indexer/pkg/store"
	"github.com/mpapenbr/simresults-indexer/testsupport/sampledata"
)

type recorder struct {
	events []notify.Event
}

func (r *recorder) Notify(_ context.Context, ev notify.Event) error {
	r.events = append(r.events, ev)
	return nil
}

func setup(t *testing.T, opts ...Option) (*Indexer, *store.Store, string) {
	t.Helper()
	s, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	defaults := []Option{WithStore(s), WithPilots(extract.NewPilotMatcher("D1, D2"))}
	idx := New(append(defaults, opts...)...)
	return idx, s, t.TempDir()
}

func counts(t *testing.T, s *store.Store) *model.StoreStats {
	t.Helper()
	st, err := s.Stats(context.Background())
	require.NoError(t, err)
	st.SizeBytes = 0
	return st
}

func TestIndexFileTwiceIsNoop(t *testing.T) {
	idx, s, dir := setup(t)
	ctx := context.Background()
	path := sampledata.Write(t, dir, "race.xml", sampledata.RaceFile(1700000000))

	o, err := idx.IndexFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, Indexed, o)
	before := counts(t, s)
	assert.Equal(t, int64(1), before.Files)
	assert.Equal(t, int64(2), before.Sessions)
	assert.Equal(t, int64(4), before.Drivers)

	o, err = idx.IndexFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, Skipped, o)
	assert.Equal(t, before, counts(t, s))
}

func TestIndexFileChangedReplaces(t *testing.T) {
	idx, s, dir := setup(t)
	ctx := context.Background()
	path := sampledata.Write(t, dir, "race.xml", sampledata.RaceFile(1700000000))
	_, err := idx.IndexFile(ctx, path)
	require.NoError(t, err)

	f := sampledata.RaceFile(1700000000)
	f.Sessions = f.Sessions[1:] // race only
	sampledata.Write(t, dir, "race.xml", f)
	// make sure the fingerprint changes even on coarse mtime resolution
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))

	o, err := idx.IndexFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, Indexed, o)
	c := counts(t, s)
	assert.Equal(t, int64(1), c.Files)
	assert.Equal(t, int64(1), c.Sessions)
	assert.Equal(t, int64(2), c.Drivers)
	assert.Equal(t, int64(6), c.Laps)
}

func TestIndexStoresAllSessionsInOrder(t *testing.T) {
	idx, s, dir := setup(t)
	ctx := context.Background()
	path := sampledata.Write(t, dir, "race.xml", sampledata.RaceFile(1700000000))
	_, err := idx.IndexFile(ctx, path)
	require.NoError(t, err)

	rec, err := s.GetByPath(ctx, path)
	require.NoError(t, err)
	gta.Assert(t, cmp.Len(rec.Sessions, 2))
	assert.Equal(t, "Qualify", rec.Sessions[0].Name)
	assert.Equal(t, model.SessionQualifying, rec.Sessions[0].Type)
	assert.Equal(t, "Race", rec.Sessions[1].Name)
	assert.Equal(t, model.SessionRace, rec.Sessions[1].Type)
	assert.Equal(t, "Spa-Francorchamps GP", rec.File.TrackCourse)
	assert.Equal(t, int64(1700000000), rec.File.DateTime)

	race := rec.Sessions[1]
	require.Len(t, race.Drivers, 2)
	d1 := race.Drivers[0]
	assert.Equal(t, "D1", d1.Name)
	assert.Equal(t, model.Float(126), d1.BestLapTime)
	assert.Equal(t, model.Float(2), d1.BestLapNum)
	require.Len(t, d1.Laps, 3)
	assert.Equal(t, 3, d1.Laps[2].LapNum)
	assert.True(t, race.Drivers[1].Laps[2].LapTime.IsNaN())
}

func TestPilotFilter(t *testing.T) {
	idx, s, dir := setup(t, WithPilots(extract.NewPilotMatcher(" d2 ")))
	ctx := context.Background()
	path := sampledata.Write(t, dir, "race.xml", sampledata.RaceFile(1700000000))
	_, err := idx.IndexFile(ctx, path)
	require.NoError(t, err)

	rec, err := s.GetByPath(ctx, path)
	require.NoError(t, err)
	for _, sess := range rec.Sessions {
		require.Len(t, sess.Drivers, 1)
		assert.Equal(t, "D2", sess.Drivers[0].Name)
		assert.Equal(t, 2, sess.DriverCount)
	}
}

func TestNoPilotsStoresNoDrivers(t *testing.T) {
	idx, s, dir := setup(t, WithPilots(nil))
	ctx := context.Background()
	path := sampledata.Write(t, dir, "race.xml", sampledata.RaceFile(1700000000))
	_, err := idx.IndexFile(ctx, path)
	require.NoError(t, err)

	c := counts(t, s)
	assert.Equal(t, int64(2), c.Sessions)
	assert.Equal(t, int64(0), c.Drivers)
	assert.Equal(t, int64(0), c.Laps)
	rec, err := s.GetByPath(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Sessions[1].DriverCount)
}

func TestLapsWithoutNumberAreDiscarded(t *testing.T) {
	idx, s, dir := setup(t)
	ctx := context.Background()
	f := sampledata.File{
		Course: "Monza", DateTime: 1700000000,
		Sessions: []sampledata.Session{{
			Key: "Race",
			Drivers: []sampledata.Driver{{
				Name: "D1", Class: "GT3", Position: 1, ClassPosition: 1,
				Laps: []sampledata.Lap{{Time: "90.5"}, {Time: "91.0"}, {Num: 3, Time: "89.2"}},
			}},
		}},
	}
	path := sampledata.Write(t, dir, "bare.xml", f)
	_, err := idx.IndexFile(ctx, path)
	require.NoError(t, err)

	rec, err := s.GetByPath(ctx, path)
	require.NoError(t, err)
	require.Len(t, rec.Sessions[0].Drivers, 1)
	d := rec.Sessions[0].Drivers[0]
	require.Len(t, d.Laps, 1)
	assert.Equal(t, 3, d.Laps[0].LapNum)
	assert.Equal(t, model.Float(89.2), d.Laps[0].LapTime)
	// metrics still use every lap time
	assert.Equal(t, model.Float(89.2), d.BestLapTime)
}

func TestPilotFilterMatchesAliases(t *testing.T) {
	idx, s, dir := setup(t, WithPilots(extract.NewPilotMatcher("Bob")))
	ctx := context.Background()
	f := sampledata.File{
		Course: "Monza", DateTime: 1700000000,
		Sessions: []sampledata.Session{{
			Key: "Race",
			Stream: []string{
				`<DriverChange et="100.0">Slot=0 Vehicle="Car #7" Old="Alice" New="Bob"</DriverChange>`,
			},
			Drivers: []sampledata.Driver{
				{Name: "Alice", VehName: "Car #7", Class: "GT3", Position: 1, ClassPosition: 1,
					Laps: sampledata.Laps("100.0")},
				{Name: "Carl", VehName: "Car #8", Class: "GT3", Position: 2, ClassPosition: 2,
					Laps: sampledata.Laps("101.0")},
			},
		}},
	}
	path := sampledata.Write(t, dir, "swap.xml", f)
	_, err := idx.IndexFile(ctx, path)
	require.NoError(t, err)

	rec, err := s.GetByPath(ctx, path)
	require.NoError(t, err)
	require.Len(t, rec.Sessions[0].Drivers, 1)
	d := rec.Sessions[0].Drivers[0]
	assert.Equal(t, "Alice", d.Name)
	assert.Equal(t, []string{"Alice", "Bob"}, d.AllDrivers)
	require.NotNil(t, rec.Sessions[0].Stream)
	assert.Equal(t, 1, rec.Sessions[0].Stream.DriverChanges)
}

func TestIndexNonResultDocument(t *testing.T) {
	idx, s, dir := setup(t)
	ctx := context.Background()
	path := filepath.Join(dir, "other.xml")
	require.NoError(t, os.WriteFile(path, []byte("<Settings><A>1</A></Settings>"), 0o600))

	o, err := idx.IndexFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, Indexed, o)
	rec, err := s.GetByPath(ctx, path)
	require.NoError(t, err)
	assert.Empty(t, rec.Sessions)
}

func TestIndexAllReport(t *testing.T) {
	rec := &recorder{}
	idx, _, dir := setup(t, WithNotifier(rec))
	sampledata.Write(t, dir, "a.xml", sampledata.RaceFile(1700000000))
	sampledata.Write(t, dir, "b.xml", sampledata.RaceFile(1700000100))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.xml"), []byte("<x"), 0o600))

	files, err := scan.NewScanner().ScanDir(context.Background(), dir)
	require.NoError(t, err)

	rep, err := idx.IndexAll(context.Background(), files)
	require.NoError(t, err)
	assert.NotEmpty(t, rep.RunID)
	assert.Equal(t, 3, rep.Total)
	assert.Equal(t, 2, rep.Indexed)
	assert.Equal(t, 1, rep.Failed)
	require.Len(t, rep.Errors, 1)
	assert.Equal(t, filepath.Join(dir, "broken.xml"), rep.Errors[0].Path)
	assert.Len(t, rec.events, 2)

	rep, err = idx.IndexAll(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Skipped)
	assert.Equal(t, 0, rep.Indexed)
}

func TestPrune(t *testing.T) {
	idx, s, dir := setup(t)
	ctx := context.Background()
	paths := []string{}
	for _, name := range []string{"a.xml", "b.xml", "c.xml", "d.xml"} {
		p := sampledata.Write(t, dir, name, sampledata.RaceFile(1700000000))
		_, err := idx.IndexFile(ctx, p)
		require.NoError(t, err)
		paths = append(paths, p)
	}
	require.NoError(t, os.Remove(paths[0]))
	require.NoError(t, os.Remove(paths[2]))

	n, err := idx.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, int64(2), counts(t, s).Files)

	n, err = idx.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestReset(t *testing.T) {
	rec := &recorder{}
	idx, s, dir := setup(t, WithNotifier(rec))
	ctx := context.Background()
	path := sampledata.Write(t, dir, "a.xml", sampledata.RaceFile(1700000000))
	_, err := idx.IndexFile(ctx, path)
	require.NoError(t, err)

	require.NoError(t, idx.Reset(ctx))
	assert.Equal(t, int64(0), counts(t, s).Files)
	assert.Equal(t, notify.KindStoreReset, rec.events[len(rec.events)-1].Kind)

	o, err := idx.IndexFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, Indexed, o)
}

type failingStore struct{ Store }

func (failingStore) Fingerprint(context.Context, string) (string, bool, error) {
	return "", false, nil
}

func (failingStore) ReplaceFile(context.Context, *model.FileRecord) error {
	return errors.New("disk full")
}

func TestReplaceFailureIsReported(t *testing.T) {
	idx := New(WithStore(failingStore{}))
	dir := t.TempDir()
	path := sampledata.Write(t, dir, "a.xml", sampledata.RaceFile(1700000000))
	o, err := idx.IndexFile(context.Background(), path)
	assert.Equal(t, Failed, o)
	assert.EqualError(t, err, "disk full")
}

func TestNoStore(t *testing.T) {
	idx := New()
	_, err := idx.Prune(context.Background())
	assert.ErrorIs(t, err, ErrNoStore)
	assert.ErrorIs(t, idx.Reset(context.Background()), ErrNoStore)
}
