package lap

import (
	"context"
	"database/sql"

	"github.com/mpapenbr/simresults-indexer/pkg/model"
	"github.com/mpapenbr/simresults-indexer/pkg/repository"
)

// CreateBatch stores laps for driverID
func CreateBatch(ctx context.Context, conn repository.Querier, driverID int64, laps []*model.Lap) error {
	for _, l := range laps {
		l.DriverID = driverID
		row := conn.QueryRow(ctx, `
		insert into lap (driver_id, lap_num, lap_time, sector1, sector2, sector3,
			fuel_used, top_speed, is_pit)
		values (?,?,?,?,?,?,?,?,?)
		returning id`,
			driverID, l.LapNum, repository.NullFloat(l.LapTime),
			repository.NullFloat(l.Sector1), repository.NullFloat(l.Sector2),
			repository.NullFloat(l.Sector3), repository.NullFloat(l.FuelUsed),
			repository.NullFloat(l.TopSpeed), repository.BoolInt(l.IsPit))
		if err := row.Scan(&l.ID); err != nil {
			return err
		}
	}
	return nil
}

func LoadByDriver(ctx context.Context, conn repository.Querier, driverID int64) ([]*model.Lap, error) {
	rows, err := conn.Query(ctx, `
	select id, driver_id, lap_num, lap_time, sector1, sector2, sector3,
		fuel_used, top_speed, is_pit
	from lap where driver_id=? order by lap_num, id`, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ret := []*model.Lap{}
	for rows.Next() {
		var l model.Lap
		var lapTime, s1, s2, s3, fuel, speed sql.NullFloat64
		var isPit int
		if err := rows.Scan(&l.ID, &l.DriverID, &l.LapNum, &lapTime, &s1, &s2, &s3,
			&fuel, &speed, &isPit); err != nil {
			return nil, err
		}
		l.LapTime = repository.FloatOf(lapTime)
		l.Sector1 = repository.FloatOf(s1)
		l.Sector2 = repository.FloatOf(s2)
		l.Sector3 = repository.FloatOf(s3)
		l.FuelUsed = repository.FloatOf(fuel)
		l.TopSpeed = repository.FloatOf(speed)
		l.IsPit = isPit != 0
		ret = append(ret, &l)
	}
	return ret, rows.Err()
}

func Count(ctx context.Context, conn repository.Querier) (int64, error) {
	return repository.CountRows(ctx, conn, "lap")
}
