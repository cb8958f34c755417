package driver

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mpapenbr/simresults-indexer/pkg/model"
	"github.com/mpapenbr/simresults-indexer/pkg/repository"
)

func Create(ctx context.Context, conn repository.Querier, d *model.Driver) (int64, error) {
	allDrivers, err := json.Marshal(d.AllDrivers)
	if err != nil {
		return 0, err
	}
	row := conn.QueryRow(ctx, `
	insert into driver (session_id, name, all_drivers, is_player,
		overall_position, class_position, finish_status, laps_count,
		best_lap_time, best_lap_num, vehicle_name, car_type, vehicle_class,
		vehicle_number, team_name, pitstops, finish_time)
	values (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	returning id
	`, d.SessionID, d.Name, string(allDrivers), repository.BoolInt(d.IsPlayer),
		repository.NullInt(d.OverallPosition), repository.NullInt(d.ClassPosition),
		d.FinishStatus, repository.NullInt(d.LapsCount),
		repository.NullFloat(d.BestLapTime), repository.NullInt(d.BestLapNum),
		d.VehicleName, d.CarType, d.VehicleClass, d.VehicleNumber, d.TeamName,
		repository.NullInt(d.Pitstops), repository.NullFloat(d.FinishTime))
	if err := row.Scan(&d.ID); err != nil {
		return 0, err
	}
	return d.ID, nil
}

//nolint:funlen // by design
func LoadBySession(ctx context.Context, conn repository.Querier, sessionID int64) ([]*model.Driver, error) {
	rows, err := conn.Query(ctx, `
	select id, session_id, name, coalesce(all_drivers,'[]'), is_player,
		overall_position, class_position, coalesce(finish_status,''), laps_count,
		best_lap_time, best_lap_num, coalesce(vehicle_name,''), coalesce(car_type,''),
		coalesce(vehicle_class,''), coalesce(vehicle_number,''), coalesce(team_name,''),
		pitstops, finish_time
	from driver where session_id=? order by id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ret := []*model.Driver{}
	for rows.Next() {
		var d model.Driver
		var allDrivers string
		var isPlayer int
		var overall, class, laps, bestNum, pitstops sql.NullInt64
		var bestTime, finishTime sql.NullFloat64
		if err := rows.Scan(&d.ID, &d.SessionID, &d.Name, &allDrivers, &isPlayer,
			&overall, &class, &d.FinishStatus, &laps, &bestTime, &bestNum,
			&d.VehicleName, &d.CarType, &d.VehicleClass, &d.VehicleNumber,
			&d.TeamName, &pitstops, &finishTime); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(allDrivers), &d.AllDrivers); err != nil {
			return nil, err
		}
		d.IsPlayer = isPlayer != 0
		d.OverallPosition = repository.FloatOfInt(overall)
		d.ClassPosition = repository.FloatOfInt(class)
		d.LapsCount = repository.FloatOfInt(laps)
		d.BestLapTime = repository.FloatOf(bestTime)
		d.BestLapNum = repository.FloatOfInt(bestNum)
		d.Pitstops = repository.FloatOfInt(pitstops)
		d.FinishTime = repository.FloatOf(finishTime)
		ret = append(ret, &d)
	}
	return ret, rows.Err()
}

func Count(ctx context.Context, conn repository.Querier) (int64, error) {
	return repository.CountRows(ctx, conn, "driver")
}
