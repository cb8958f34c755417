package session

import (
	"context"
	"database/sql"

	"github.com/mpapenbr/simresults-indexer/pkg/model"
	"github.com/mpapenbr/simresults-indexer/pkg/repository"
)

func Create(ctx context.Context, conn repository.Querier, s *model.Session) (int64, error) {
	row := conn.QueryRow(ctx, `
	insert into session (file_id, seq, name, type, date_time, time_string,
		laps_configured, minutes_configured, driver_count)
	values (?,?,?,?,?,?,?,?,?)
	returning id
	`, s.FileID, s.Seq, s.Name, string(s.Type), s.DateTime, s.TimeString,
		repository.NullInt(s.LapsConfigured), repository.NullInt(s.MinutesConfigured),
		s.DriverCount)
	if err := row.Scan(&s.ID); err != nil {
		return 0, err
	}
	return s.ID, nil
}

// LoadByFile returns the sessions of a file in document order
func LoadByFile(ctx context.Context, conn repository.Querier, fileID int64) ([]*model.Session, error) {
	rows, err := conn.Query(ctx, `
	select id, file_id, seq, name, type, coalesce(date_time,0), coalesce(time_string,''),
		laps_configured, minutes_configured, driver_count
	from session where file_id=? order by seq`, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ret := []*model.Session{}
	for rows.Next() {
		var s model.Session
		var typ string
		var laps, minutes sql.NullInt64
		if err := rows.Scan(&s.ID, &s.FileID, &s.Seq, &s.Name, &typ, &s.DateTime,
			&s.TimeString, &laps, &minutes, &s.DriverCount); err != nil {
			return nil, err
		}
		s.Type = model.SessionType(typ)
		s.LapsConfigured = repository.FloatOfInt(laps)
		s.MinutesConfigured = repository.FloatOfInt(minutes)
		ret = append(ret, &s)
	}
	return ret, rows.Err()
}

// deletes all sessions of a file, returns number of rows deleted.
func DeleteByFile(ctx context.Context, conn repository.Querier, fileID int64) (int, error) {
	res, err := conn.Exec(ctx, "delete from session where file_id=?", fileID)
	if err != nil {
		return 0, err
	}
	return repository.RowsAffected(res), nil
}

func Count(ctx context.Context, conn repository.Querier) (int64, error) {
	return repository.CountRows(ctx, conn, "session")
}
