package stats

import (
	"cmp"
	"slices"

	"github.com/samber/lo"

	"github.com/mpapenbr/simresults-indexer/pkg/model"
	"github.com/mpapenbr/simresults-indexer/pkg/processing/extract"
)

type (
	ClassTally struct {
		Wins    int `json:"wins"`
		Podiums int `json:"podiums"`
	}
	SessionSummary struct {
		Path          string            `json:"path"`
		Track         string            `json:"track"`
		Session       string            `json:"session"`
		Type          model.SessionType `json:"type"`
		DateTime      int64             `json:"dateTime"`
		Driver        string            `json:"driver"`
		Class         string            `json:"class"`
		Vehicle       string            `json:"vehicle"`
		Position      model.Float       `json:"position"`
		ClassPosition model.Float       `json:"classPosition"`
		BestLap       model.Float       `json:"bestLap"`
		AvgLap        model.Float       `json:"avgLap"`
		TopSpeed      model.Float       `json:"topSpeed"`
		Laps          int               `json:"laps"`
	}
	DriverStats struct {
		Pilots         []string               `json:"pilots"`
		TotalSessions  int                    `json:"totalSessions"`
		TotalRaces     int                    `json:"totalRaces"`
		Wins           int                    `json:"wins"`
		Podiums        int                    `json:"podiums"`
		BestLap        model.Float            `json:"bestLap"`
		TopSpeed       model.Float            `json:"topSpeed"`
		PodiumsByClass map[string]*ClassTally `json:"podiumsByClass"`
		Sessions       []*SessionSummary      `json:"sessions"`
	}
)

// tracked returns the first driver of e matching pilots. Without pilots
// nothing is tracked.
func tracked(e *Entry, pilots *extract.PilotMatcher) *DriverEntry {
	d, _ := lo.Find(e.Drivers, func(d *DriverEntry) bool { return matches(pilots, d) })
	return d
}

func matches(pilots *extract.PilotMatcher, d *DriverEntry) bool {
	return pilots.MatchName(d.Name) || lo.ContainsBy(d.AllDrivers, pilots.MatchName)
}

// participants returns the drivers of e accounted for track and vehicle
// statistics. Without pilots nobody is accounted.
func participants(e *Entry, pilots *extract.PilotMatcher) []*DriverEntry {
	if pilots.Empty() {
		return nil
	}
	return lo.Filter(e.Drivers, func(d *DriverEntry, _ int) bool { return matches(pilots, d) })
}

// Driver computes the statistics of the tracked pilots.
// A file counts as race if it contains a race session block. Wins and
// podiums are only counted if the picked session is that race.
func Driver(entries []*Entry, pilots *extract.PilotMatcher) *DriverStats {
	ret := &DriverStats{
		Pilots:         pilots.Names(),
		BestLap:        model.NaN(),
		TopSpeed:       model.NaN(),
		PodiumsByClass: map[string]*ClassTally{},
		Sessions:       []*SessionSummary{},
	}
	if ret.Pilots == nil {
		ret.Pilots = []string{}
	}
	for _, e := range entries {
		d := tracked(e, pilots)
		if d == nil {
			continue
		}
		ret.TotalSessions++
		if e.HasRace {
			ret.TotalRaces++
		}
		if validTime(d.BestLap) && (!ret.BestLap.Valid() || d.BestLap < float64(ret.BestLap)) {
			ret.BestLap = model.Float(d.BestLap)
		}
		if validTime(d.TopSpeed) && (!ret.TopSpeed.Valid() || d.TopSpeed > float64(ret.TopSpeed)) {
			ret.TopSpeed = model.Float(d.TopSpeed)
		}
		if e.IsRace() && finite(d.ClassPosition) && d.ClassPosition >= 1 && d.ClassPosition <= 3 {
			tally, ok := ret.PodiumsByClass[d.Class]
			if !ok {
				tally = &ClassTally{}
				ret.PodiumsByClass[d.Class] = tally
			}
			tally.Podiums++
			ret.Podiums++
			if d.ClassPosition == 1 {
				tally.Wins++
				ret.Wins++
			}
		}
		ret.Sessions = append(ret.Sessions, summary(e, d))
	}
	slices.SortStableFunc(ret.Sessions, func(a, b *SessionSummary) int {
		if c := cmp.Compare(b.DateTime, a.DateTime); c != 0 {
			return c
		}
		return cmp.Compare(a.Path, b.Path)
	})
	return ret
}

func summary(e *Entry, d *DriverEntry) *SessionSummary {
	return &SessionSummary{
		Path:          e.Path,
		Track:         e.Track,
		Session:       e.SessionKey,
		Type:          e.SessionType,
		DateTime:      e.DateTime,
		Driver:        d.DisplayName,
		Class:         d.Class,
		Vehicle:       d.Vehicle,
		Position:      model.Float(d.Position),
		ClassPosition: model.Float(d.ClassPosition),
		BestLap:       model.Float(d.BestLap),
		AvgLap:        model.Float(d.AvgLap),
		TopSpeed:      model.Float(d.TopSpeed),
		Laps:          d.Laps,
	}
}
