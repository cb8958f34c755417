// Package store persists indexed result files in SQLite or PostgreSQL.
//
// All mutations are serialized. Reads may run concurrently with each other
// and with writes. Reset swaps the underlying handle and waits for running
// operations to finish.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mpapenbr/simresults-indexer/log"
	"github.com/mpapenbr/simresults-indexer/pkg/db/migrate"
	"github.com/mpapenbr/simresults-indexer/pkg/db/postgres"
	"github.com/mpapenbr/simresults-indexer/pkg/db/sqlite"
	"github.com/mpapenbr/simresults-indexer/pkg/repository"
	"github.com/mpapenbr/simresults-indexer/pkg/utils"
)

var (
	ErrClosed   = errors.New("store is closed")
	ErrNotFound = repository.ErrNotFound
)

type (
	Option func(*Store)
	Store  struct {
		location  string
		dialect   repository.Dialect
		path      string // sqlite file path or sqlite.MemoryPath
		degraded  bool
		waitFor   time.Duration
		telemetry bool
		sqlLog    *log.Logger
		l         *log.Logger

		mu      sync.RWMutex // guards db
		writeMu sync.Mutex   // serializes mutations
		db      *sql.DB
	}
)

func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		s.l = l
	}
}

// WithSQLLogger logs each postgres statement on debug level
func WithSQLLogger(l *log.Logger) Option {
	return func(s *Store) {
		s.sqlLog = l
	}
}

// WithTelemetry traces postgres statements via OpenTelemetry
func WithTelemetry(enabled bool) Option {
	return func(s *Store) {
		s.telemetry = enabled
	}
}

// WithWaitForServices waits up to d for a postgres server to accept connections
func WithWaitForServices(d time.Duration) Option {
	return func(s *Store) {
		s.waitFor = d
	}
}

func newStore(location string, opts ...Option) *Store {
	s := &Store{location: location, l: log.Default().Named("store")}
	for _, opt := range opts {
		opt(s)
	}
	if postgres.IsURL(location) {
		s.dialect = repository.Postgres
	} else {
		s.dialect = repository.SQLite
		s.path = sqlite.PathFromURL(location)
	}
	return s
}

// Open connects to location and applies pending migrations.
// location is a sqlite file path, a sqlite:// url, ":memory:" or a
// postgresql:// url.
func Open(ctx context.Context, location string, opts ...Option) (*Store, error) {
	s := newStore(location, opts...)
	db, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	s.db = db
	s.l.Info("store opened",
		log.String("backend", string(s.dialect)),
		log.String("location", s.Location()))
	return s, nil
}

// OpenOrDegrade opens location and falls back to an in-memory database if
// that fails. The returned store reports Degraded() in that case.
func OpenOrDegrade(ctx context.Context, location string, opts ...Option) (*Store, error) {
	s, err := Open(ctx, location, opts...)
	if err == nil {
		return s, nil
	}
	fallback := newStore(sqlite.MemoryPath, opts...)
	fallback.l.Error("could not open store, using in-memory database",
		log.String("location", location), log.ErrorField(err))
	db, memErr := fallback.connect(ctx)
	if memErr != nil {
		return nil, errors.Join(err, memErr)
	}
	fallback.db = db
	fallback.degraded = true
	return fallback, nil
}

func (s *Store) connect(ctx context.Context) (*sql.DB, error) {
	var db *sql.DB
	var err error
	switch s.dialect {
	case repository.Postgres:
		db, err = s.connectPostgres(ctx)
	default:
		if s.path != sqlite.MemoryPath {
			if err = os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
				return nil, err
			}
		}
		db, err = sqlite.Open(ctx, s.path)
	}
	if err != nil {
		return nil, err
	}
	if err := migrate.Up(db, s.dialect); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (s *Store) connectPostgres(ctx context.Context) (*sql.DB, error) {
	if s.waitFor > 0 {
		if addr := utils.ExtractFromDBURL(s.location); addr != "" {
			if err := utils.WaitForTCP(ctx, addr, s.waitFor); err != nil {
				return nil, err
			}
		}
	}
	var opts []postgres.ConfigOption
	switch {
	case s.telemetry:
		opts = append(opts, postgres.WithOtlpTracer())
	case s.sqlLog != nil:
		opts = append(opts, postgres.WithTracer(s.sqlLog, log.DebugLevel))
	}
	return postgres.Open(ctx, s.location, opts...)
}

// Degraded reports whether the store runs on the in-memory fallback
func (s *Store) Degraded() bool { return s.degraded }

func (s *Store) Backend() string { return string(s.dialect) }

// Location returns the store location with credentials removed
func (s *Store) Location() string {
	if s.dialect == repository.Postgres {
		if u, err := url.Parse(s.location); err == nil {
			return u.Redacted()
		}
		return "postgres"
	}
	return s.path
}

// Close releases the database handle. Calling Close twice is safe.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// read runs fn with a shared lock on the handle
func (s *Store) read(fn func(q repository.Querier) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return ErrClosed
	}
	return fn(repository.Wrap(s.db, s.dialect))
}

// write runs fn inside a transaction. Mutations are serialized.
func (s *Store) write(ctx context.Context, fn func(q repository.Querier) error) (err error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return ErrClosed
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err = fn(repository.Wrap(tx, s.dialect)); err != nil {
		rollbackWithError(tx, &err)
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if rErr := rb.Rollback(); rErr != nil && *err == nil {
		*err = rErr
	}
}
