package resultfile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mpapenbr/simresults-indexer/pkg/model"
	"github.com/mpapenbr/simresults-indexer/pkg/repository"
)

// Upsert inserts or updates the row for f.Path and returns its id.
// The id of an existing row is kept.
func Upsert(ctx context.Context, conn repository.Querier, f *model.ResultFile) (int64, error) {
	row := conn.QueryRow(ctx, `
	insert into result_file (path, fingerprint, size, mtime, indexed_at,
		game_version, track_venue, track_course, track_event, track_length,
		date_time, time_string)
	values (?,?,?,?,?,?,?,?,?,?,?,?)
	on conflict (path) do update set
		fingerprint=excluded.fingerprint, size=excluded.size, mtime=excluded.mtime,
		indexed_at=excluded.indexed_at, game_version=excluded.game_version,
		track_venue=excluded.track_venue, track_course=excluded.track_course,
		track_event=excluded.track_event, track_length=excluded.track_length,
		date_time=excluded.date_time, time_string=excluded.time_string
	returning id
	`,
		f.Path, f.Fingerprint, f.Size, f.MTime.UnixMilli(), f.IndexedAt.UnixMilli(),
		f.GameVersion, f.TrackVenue, f.TrackCourse, f.TrackEvent,
		repository.NullFloat(f.TrackLength), f.DateTime, f.TimeString)
	if err := row.Scan(&f.ID); err != nil {
		return 0, err
	}
	return f.ID, nil
}

func LoadByPath(ctx context.Context, conn repository.Querier, path string) (*model.ResultFile, error) {
	row := conn.QueryRow(ctx, fmt.Sprintf("%s where path=?", selector), path)
	f, err := scan(row)
	if err != nil {
		return nil, repository.NotFound(err)
	}
	return f, nil
}

// LoadAll returns all files, most recent event first
func LoadAll(ctx context.Context, conn repository.Querier) (ret []*model.ResultFile, err error) {
	var rows *sql.Rows
	if rows, err = conn.Query(ctx,
		fmt.Sprintf("%s order by coalesce(date_time,0) desc, path", selector)); err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		f, err := scan(rows)
		if err != nil {
			return nil, err
		}
		ret = append(ret, f)
	}
	return ret, rows.Err()
}

// LoadFingerprint returns the stored fingerprint of path
//
//nolint:whitespace // can't make both editor and linter happy
func LoadFingerprint(ctx context.Context, conn repository.Querier, path string) (
	fp string, found bool, err error,
) {
	err = conn.QueryRow(ctx, "select fingerprint from result_file where path=?", path).
		Scan(&fp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return fp, true, nil
}

func LoadPaths(ctx context.Context, conn repository.Querier) ([]string, error) {
	rows, err := conn.Query(ctx, "select path from result_file order by path")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ret := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		ret = append(ret, p)
	}
	return ret, rows.Err()
}

// deletes the file and everything derived from it, returns number of rows deleted.
func DeleteByPath(ctx context.Context, conn repository.Querier, path string) (int, error) {
	res, err := conn.Exec(ctx, "delete from result_file where path=?", path)
	if err != nil {
		return 0, err
	}
	return repository.RowsAffected(res), nil
}

func Count(ctx context.Context, conn repository.Querier) (int64, error) {
	return repository.CountRows(ctx, conn, "result_file")
}

// little helper
const selector = string(`
select id, path, fingerprint, size, mtime, indexed_at,
	coalesce(game_version,''), coalesce(track_venue,''), coalesce(track_course,''),
	coalesce(track_event,''), track_length, coalesce(date_time,0), coalesce(time_string,'')
from result_file
`)

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*model.ResultFile, error) {
	var f model.ResultFile
	var mtime, indexedAt int64
	var trackLength sql.NullFloat64
	if err := row.Scan(&f.ID, &f.Path, &f.Fingerprint, &f.Size, &mtime, &indexedAt,
		&f.GameVersion, &f.TrackVenue, &f.TrackCourse, &f.TrackEvent, &trackLength,
		&f.DateTime, &f.TimeString); err != nil {
		return nil, err
	}
	f.MTime = time.UnixMilli(mtime)
	f.IndexedAt = time.UnixMilli(indexedAt)
	f.TrackLength = repository.FloatOf(trackLength)
	return &f, nil
}
