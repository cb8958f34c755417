// Package stats aggregates driver, track and vehicle statistics over a set
// of result files.
package stats

import (
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"

	"github.com/mpapenbr/simresults-indexer/log"
	"github.com/mpapenbr/simresults-indexer/pkg/model"
	"github.com/mpapenbr/simresults-indexer/pkg/processing/extract"
)

type (
	// Entry is the statistics view of one result file: its picked session
	Entry struct {
		Path        string
		MTime       time.Time
		Size        int64
		Track       string
		TrackVenue  string
		TrackCourse string
		DateTime    int64 // unix seconds of the session, mtime if unknown
		SessionKey  string
		SessionType model.SessionType
		HasRace     bool
		Drivers     []*DriverEntry
	}
	DriverEntry struct {
		Name          string
		AllDrivers    []string
		DisplayName   string
		Class         string
		Vehicle       string
		VehicleName   string
		Position      float64
		ClassPosition float64
		BestLap       float64
		AvgLap        float64
		TopSpeed      float64
		Laps          int
		LapTimes      []float64 // valid lap times only
	}
	// RecordLoader provides stored file records
	RecordLoader interface {
		LoadRecords(ctx context.Context) ([]*model.FileRecord, error)
	}
)

// IsRace reports whether the picked session of a race file is the race itself
func (e *Entry) IsRace() bool {
	return e.HasRace && e.SessionType == model.SessionRace
}

// FromScanned builds entries from decoded files. Files which failed to
// read or do not contain race results are skipped.
func FromScanned(files []model.ScannedFile) []*Entry {
	l := log.Default().Named("stats")
	ret := make([]*Entry, 0, len(files))
	for i := range files {
		e, err := entryFromScanned(&files[i])
		if err != nil {
			l.Warn("skipping file", log.String("path", files[i].Path), log.ErrorField(err))
			continue
		}
		if e != nil {
			ret = append(ret, e)
		}
	}
	return ret
}

func entryFromScanned(sf *model.ScannedFile) (ret *Entry, err error) {
	defer func() {
		if r := recover(); r != nil {
			ret, err = nil, fmt.Errorf("extract: %v", r)
		}
	}()
	if sf.Err != nil {
		return nil, sf.Err
	}
	root := extract.ResolveRoot(sf.Root)
	if root == nil {
		return nil, nil
	}
	s := extract.ExtractSession(sf.Root)
	ret = &Entry{
		Path:        sf.Path,
		MTime:       sf.MTime,
		Size:        sf.Size,
		Track:       s.Meta.Track(),
		TrackVenue:  s.Meta.TrackVenue,
		TrackCourse: s.Meta.TrackCourse,
		DateTime:    s.DateTime,
		SessionKey:  s.Key,
		SessionType: s.Type,
		HasRace:     extract.HasRace(root),
	}
	if ret.DateTime == 0 {
		ret.DateTime = sf.MTime.Unix()
	}
	for _, d := range s.Drivers {
		ret.Drivers = append(ret.Drivers, &DriverEntry{
			Name:          d.Name,
			AllDrivers:    d.AllDrivers,
			DisplayName:   d.DisplayName,
			Class:         d.Class(),
			Vehicle:       d.VehicleID(),
			VehicleName:   d.VehicleName,
			Position:      d.Position,
			ClassPosition: d.ClassPosition,
			BestLap:       d.BestLapSec,
			AvgLap:        d.AvgLapSec,
			TopSpeed:      d.TopSpeedMax,
			Laps:          len(d.Laps),
			LapTimes: lo.FilterMap(d.Laps, func(l extract.Lap, _ int) (float64, bool) {
				return l.TimeSec, l.Valid()
			}),
		})
	}
	return ret, nil
}

// FromStore builds entries from the stored records. The picked session of
// a file is the most significant session holding drivers.
func FromStore(ctx context.Context, loader RecordLoader) ([]*Entry, error) {
	recs, err := loader.LoadRecords(ctx)
	if err != nil {
		return nil, err
	}
	ret := make([]*Entry, 0, len(recs))
	for _, rec := range recs {
		ret = append(ret, entryFromRecord(rec))
	}
	return ret, nil
}

func entryFromRecord(rec *model.FileRecord) *Entry {
	f := rec.File
	meta := extract.Meta{TrackVenue: f.TrackVenue, TrackCourse: f.TrackCourse}
	ret := &Entry{
		Path:        f.Path,
		MTime:       f.MTime,
		Size:        f.Size,
		Track:       meta.Track(),
		TrackVenue:  f.TrackVenue,
		TrackCourse: f.TrackCourse,
		DateTime:    f.EventTime().Unix(),
		SessionType: model.SessionUnknown,
		HasRace: lo.ContainsBy(rec.Sessions, func(s *model.Session) bool {
			return s.Type == model.SessionRace
		}),
	}
	candidates := lo.Filter(rec.Sessions, func(s *model.Session, _ int) bool {
		return len(s.Drivers) > 0
	})
	if len(candidates) == 0 {
		return ret
	}
	slices.SortStableFunc(candidates, func(a, b *model.Session) int {
		return extract.SessionPriority(b.Name) - extract.SessionPriority(a.Name)
	})
	s := candidates[0]
	ret.SessionKey = s.Name
	ret.SessionType = s.Type
	if s.DateTime > 0 {
		ret.DateTime = s.DateTime
	}
	for _, d := range s.Drivers {
		ret.Drivers = append(ret.Drivers, driverFromModel(d))
	}
	return ret
}

func driverFromModel(d *model.Driver) *DriverEntry {
	ret := &DriverEntry{
		Name:          d.Name,
		AllDrivers:    d.AllDrivers,
		Class:         d.VehicleClass,
		VehicleName:   d.VehicleName,
		Position:      float64(d.OverallPosition),
		ClassPosition: float64(d.ClassPosition),
		BestLap:       float64(d.BestLapTime),
		AvgLap:        math.NaN(),
		TopSpeed:      math.NaN(),
		Laps:          len(d.Laps),
	}
	if ret.Class == "" {
		ret.Class = "unknown"
	}
	ex := &extract.Driver{CarType: d.CarType, TeamName: d.TeamName, CarNumber: d.VehicleNumber}
	ret.Vehicle = ex.VehicleID()
	names := d.AllDrivers
	if len(names) == 0 {
		names = []string{d.Name}
	}
	ret.DisplayName = joinNames(names)
	speeds := []float64{}
	for _, l := range d.Laps {
		if validTime(float64(l.LapTime)) {
			ret.LapTimes = append(ret.LapTimes, float64(l.LapTime))
		}
		if validTime(float64(l.TopSpeed)) {
			speeds = append(speeds, float64(l.TopSpeed))
		}
	}
	if len(ret.LapTimes) > 0 {
		ret.AvgLap = mean(ret.LapTimes)
	}
	if len(speeds) > 0 {
		ret.TopSpeed = floats.Max(speeds)
	}
	return ret
}
