package store

import (
	"context"
	"errors"
	"os"

	"github.com/mpapenbr/simresults-indexer/pkg/db/migrate"
	"github.com/mpapenbr/simresults-indexer/pkg/db/sqlite"
	"github.com/mpapenbr/simresults-indexer/pkg/model"
	"github.com/mpapenbr/simresults-indexer/pkg/repository"
	"github.com/mpapenbr/simresults-indexer/pkg/repository/driver"
	"github.com/mpapenbr/simresults-indexer/pkg/repository/lap"
	"github.com/mpapenbr/simresults-indexer/pkg/repository/resultfile"
	"github.com/mpapenbr/simresults-indexer/pkg/repository/session"
	"github.com/mpapenbr/simresults-indexer/pkg/repository/stream"
)

// Fingerprint returns the stored fingerprint of path
func (s *Store) Fingerprint(ctx context.Context, path string) (fp string, found bool, err error) {
	err = s.read(func(q repository.Querier) error {
		fp, found, err = resultfile.LoadFingerprint(ctx, q, path)
		return err
	})
	return fp, found, err
}

// GetByPath loads a file with all sessions, drivers, laps and streams.
// Returns ErrNotFound for unknown paths.
func (s *Store) GetByPath(ctx context.Context, path string) (rec *model.FileRecord, err error) {
	err = s.read(func(q repository.Querier) error {
		rec, err = loadRecord(ctx, q, path, true)
		return err
	})
	return rec, err
}

// ListAll returns all indexed files, most recent event first
func (s *Store) ListAll(ctx context.Context) (ret []*model.ResultFile, err error) {
	err = s.read(func(q repository.Querier) error {
		ret, err = resultfile.LoadAll(ctx, q)
		return err
	})
	return ret, err
}

// LoadRecords loads every file with its derived data, skipping stream blobs
func (s *Store) LoadRecords(ctx context.Context) (ret []*model.FileRecord, err error) {
	err = s.read(func(q repository.Querier) error {
		files, err := resultfile.LoadAll(ctx, q)
		if err != nil {
			return err
		}
		for _, f := range files {
			rec, err := loadRecord(ctx, q, f.Path, false)
			if err != nil {
				return err
			}
			ret = append(ret, rec)
		}
		return nil
	})
	return ret, err
}

// GetDates returns the event and modification times of path
func (s *Store) GetDates(ctx context.Context, path string) (*model.FileDates, error) {
	var f *model.ResultFile
	err := s.read(func(q repository.Querier) error {
		var err error
		f, err = resultfile.LoadByPath(ctx, q, path)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &model.FileDates{
		Path:       f.Path,
		DateTime:   f.DateTime,
		TimeString: f.TimeString,
		MTime:      f.MTime,
	}, nil
}

// Stats returns row counts and the storage size
func (s *Store) Stats(ctx context.Context) (*model.StoreStats, error) {
	ret := &model.StoreStats{
		Backend:  s.Backend(),
		Location: s.Location(),
		Degraded: s.degraded,
	}
	err := s.read(func(q repository.Querier) error {
		var err error
		for _, c := range []struct {
			dest  *int64
			count func(context.Context, repository.Querier) (int64, error)
		}{
			{&ret.Files, resultfile.Count},
			{&ret.Sessions, session.Count},
			{&ret.Drivers, driver.Count},
			{&ret.Laps, lap.Count},
			{&ret.Streams, stream.Count},
		} {
			if *c.dest, err = c.count(ctx, q); err != nil {
				return err
			}
		}
		ret.SizeBytes, err = s.sizeBytes(ctx, q)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *Store) sizeBytes(ctx context.Context, q repository.Querier) (int64, error) {
	if s.dialect == repository.Postgres {
		var size int64
		err := q.QueryRow(ctx, "select pg_database_size(current_database())").Scan(&size)
		return size, err
	}
	var total int64
	for _, f := range sqlite.BackingFiles(s.path) {
		fi, err := os.Stat(f)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return 0, err
		}
		total += fi.Size()
	}
	return total, nil
}

//nolint:whitespace // can't make both editor and linter happy
func loadRecord(
	ctx context.Context, q repository.Querier, path string, withStream bool,
) (*model.FileRecord, error) {
	f, err := resultfile.LoadByPath(ctx, q, path)
	if err != nil {
		return nil, err
	}
	sessions, err := session.LoadByFile(ctx, q, f.ID)
	if err != nil {
		return nil, err
	}
	for _, sess := range sessions {
		if sess.Drivers, err = driver.LoadBySession(ctx, q, sess.ID); err != nil {
			return nil, err
		}
		for _, d := range sess.Drivers {
			if d.Laps, err = lap.LoadByDriver(ctx, q, d.ID); err != nil {
				return nil, err
			}
		}
		if !withStream {
			continue
		}
		sess.Stream, err = stream.LoadBySession(ctx, q, sess.ID)
		if errors.Is(err, repository.ErrNotFound) {
			sess.Stream = nil
			continue
		}
		if err != nil {
			return nil, err
		}
	}
	return &model.FileRecord{File: f, Sessions: sessions}, nil
}

// SchemaVersion returns the applied migration version
func (s *Store) SchemaVersion() (version uint, dirty bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return 0, false, ErrClosed
	}
	return migrate.Version(s.db, s.dialect)
}
