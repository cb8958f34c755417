package migrate

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/mpapenbr/simresults-indexer/log"
	"github.com/mpapenbr/simresults-indexer/pkg/repository"
)

//go:embed migrations
var migrations embed.FS

// Up applies all pending migrations of the dialect to db
func Up(db *sql.DB, d repository.Dialect) error {
	m, err := newMigrate(db, d)
	if err != nil {
		return err
	}
	// m is not closed, this would close db as well
	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// Version returns the current schema version, 0 if nothing was applied yet
func Version(db *sql.DB, d repository.Dialect) (version uint, dirty bool, err error) {
	m, err := newMigrate(db, d)
	if err != nil {
		return 0, false, err
	}
	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func newMigrate(db *sql.DB, d repository.Dialect) (*migrate.Migrate, error) {
	source, err := iofs.New(migrations, "migrations/"+string(d))
	if err != nil {
		return nil, err
	}
	var driver database.Driver
	switch d {
	case repository.SQLite:
		driver, err = sqlite.WithInstance(db, &sqlite.Config{})
	case repository.Postgres:
		driver, err = pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	default:
		return nil, fmt.Errorf("unsupported dialect %q", d)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s driver: %w", d, err)
	}
	m, err := migrate.NewWithInstance("iofs", source, string(d), driver)
	if err != nil {
		return nil, err
	}
	m.Log = &migrateLogger{l: log.Default().Named("migrate")}
	return m, nil
}

type migrateLogger struct {
	l *log.Logger
}

func (m *migrateLogger) Printf(format string, v ...any) {
	m.l.Debug(fmt.Sprintf(format, v...))
}

func (m *migrateLogger) Verbose() bool {
	return m.l.Enabled(log.DebugLevel)
}
