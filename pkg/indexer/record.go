package indexer

import (
	"math"

	"github.com/mpapenbr/simresults-indexer/log"
	"github.com/mpapenbr/simresults-indexer/pkg/model"
	"github.com/mpapenbr/simresults-indexer/pkg/processing/extract"
)

// buildRecord converts a decoded file into the rows to store
func (i *Indexer) buildRecord(sf *model.ScannedFile) *model.FileRecord {
	rec := &model.FileRecord{
		File: &model.ResultFile{
			Path:        sf.Path,
			Fingerprint: Fingerprint(sf.Path, sf.Size, sf.MTime),
			Size:        sf.Size,
			MTime:       sf.MTime,
			IndexedAt:   i.now(),
			TrackLength: model.NaN(),
		},
		Sessions: []*model.Session{},
	}
	meta, sessions, ok := i.extractor.ExtractAll(sf.Root)
	if !ok {
		i.l.Warn("no race results found", log.String("path", sf.Path))
		return rec
	}
	f := rec.File
	f.GameVersion = meta.GameVersion
	f.TrackVenue = meta.TrackVenue
	f.TrackCourse = meta.TrackCourse
	f.TrackEvent = meta.TrackEvent
	f.TrackLength = model.Float(meta.TrackLength)
	f.DateTime = meta.DateTime
	f.TimeString = meta.TimeString

	for seq, s := range sessions {
		rec.Sessions = append(rec.Sessions, i.convertSession(seq, s))
	}
	return rec
}

func (i *Indexer) convertSession(seq int, s *extract.Session) *model.Session {
	ret := &model.Session{
		Seq:               seq,
		Name:              s.Key,
		Type:              s.Type,
		DateTime:          s.DateTime,
		TimeString:        s.TimeString,
		LapsConfigured:    model.Float(s.LapsConfigured),
		MinutesConfigured: model.Float(s.MinutesConfigured),
		DriverCount:       len(s.Drivers),
		Drivers:           []*model.Driver{},
	}
	for _, d := range s.Drivers {
		if !i.pilots.Match(d) {
			continue
		}
		ret.Drivers = append(ret.Drivers, i.convertDriver(d))
	}
	if s.Stream != nil {
		data, err := s.Stream.Node.Bytes()
		if err != nil {
			i.l.Warn("could not serialize stream",
				log.String("session", s.Key), log.ErrorField(err))
		} else {
			ret.Stream = &model.StreamBlob{
				Data:          data,
				DriverChanges: len(s.Stream.DriverChanges),
				Incidents:     s.Stream.Incidents,
				Penalties:     s.Stream.Penalties,
			}
		}
	}
	return ret
}

func (i *Indexer) convertDriver(d *extract.Driver) *model.Driver {
	ret := &model.Driver{
		Name:            d.Name,
		AllDrivers:      d.AllDrivers,
		IsPlayer:        d.IsPlayer,
		OverallPosition: model.Float(d.Position),
		ClassPosition:   model.Float(d.ClassPosition),
		FinishStatus:    d.FinishStatus,
		LapsCount:       model.Float(d.LapsCount),
		BestLapTime:     model.Float(d.BestLapSec),
		BestLapNum:      model.Float(d.BestLapNum),
		VehicleName:     d.VehicleName,
		CarType:         d.CarType,
		VehicleClass:    d.VehicleClass,
		VehicleNumber:   d.CarNumber,
		TeamName:        d.TeamName,
		Pitstops:        model.Float(d.Pitstops),
		FinishTime:      model.Float(d.FinishTime),
		Laps:            make([]*model.Lap, 0, len(d.Laps)),
	}
	if ret.AllDrivers == nil {
		ret.AllDrivers = []string{d.Name}
	}
	for _, l := range d.Laps {
		// laps are keyed by their number, laps without one are not stored
		if math.IsNaN(l.Num) || math.IsInf(l.Num, 0) || l.Num != math.Trunc(l.Num) ||
			l.Num < 0 || l.Num > math.MaxInt32 {
			i.l.Debug("skipping lap without lap number",
				log.String("driver", d.Name), log.Float64("time", l.TimeSec))
			continue
		}
		ret.Laps = append(ret.Laps, &model.Lap{
			LapNum:   int(l.Num),
			LapTime:  model.Float(l.TimeSec),
			Sector1:  model.Float(l.S1),
			Sector2:  model.Float(l.S2),
			Sector3:  model.Float(l.S3),
			FuelUsed: model.Float(l.FuelUsed),
			TopSpeed: model.Float(l.TopSpeed),
			IsPit:    l.Pit,
		})
	}
	return ret
}
