package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/mpapenbr/simresults-indexer/log"
	"github.com/mpapenbr/simresults-indexer/pkg/db/migrate"
	"github.com/mpapenbr/simresults-indexer/pkg/db/sqlite"
	"github.com/mpapenbr/simresults-indexer/pkg/repository"
)

// tables in drop order
var tables = []string{
	"stream_blob", "lap", "driver", "session", "result_file", "schema_migrations",
}

// Reset removes all indexed data and recreates an empty schema.
// Running reads and writes finish before the store is reset.
func (s *Store) Reset(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrClosed
	}
	var err error
	switch {
	case s.dialect == repository.Postgres:
		err = s.resetPostgres(ctx)
	case s.path == sqlite.MemoryPath:
		err = s.reopen(ctx)
	default:
		err = s.resetSqliteFile(ctx)
	}
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	s.l.Info("store reset", log.String("location", s.Location()))
	return nil
}

func (s *Store) resetPostgres(ctx context.Context) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, t := range tables {
		if _, err = tx.ExecContext(ctx, "drop table if exists "+t+" cascade"); err != nil {
			rollbackWithError(tx, &err)
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	return migrate.Up(s.db, s.dialect)
}

func (s *Store) resetSqliteFile(ctx context.Context) error {
	if err := s.db.Close(); err != nil {
		s.l.Warn("closing database", log.ErrorField(err))
	}
	s.db = nil
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxElapsedTime = 5 * time.Second
	for _, f := range sqlite.BackingFiles(s.path) {
		err := backoff.Retry(func() error {
			err := os.Remove(f)
			if err == nil || errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}, backoff.WithContext(bo, ctx))
		if err != nil {
			return err
		}
		bo.Reset()
	}
	return s.reopen(ctx)
}

// reopen replaces the handle with a freshly migrated one
func (s *Store) reopen(ctx context.Context) error {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.l.Warn("closing database", log.ErrorField(err))
		}
		s.db = nil
	}
	db, err := s.connect(ctx)
	if err != nil {
		return err
	}
	s.db = db
	return nil
}
