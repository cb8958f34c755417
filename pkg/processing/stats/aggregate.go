package stats

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/mpapenbr/simresults-indexer/pkg/model"
)

// Aggregate accumulates sessions and laps of a track or vehicle
type Aggregate struct {
	Sessions    int         `json:"sessions"`
	LastSession int64       `json:"lastSession"`
	BestLap     model.Float `json:"bestLap"`
	AvgLap      model.Float `json:"avgLap"`
	TopSpeed    model.Float `json:"topSpeed"`
	TotalLaps   int         `json:"totalLaps"`

	lapTimes []float64
	counted  map[string]bool
}

func newAggregate() *Aggregate {
	return &Aggregate{
		BestLap:  model.NaN(),
		AvgLap:   model.NaN(),
		TopSpeed: model.NaN(),
		counted:  map[string]bool{},
	}
}

// add accounts d of e. A session is counted once per aggregate even if
// several tracked drivers took part.
func (a *Aggregate) add(e *Entry, d *DriverEntry) {
	if !a.counted[e.Path] {
		a.counted[e.Path] = true
		a.Sessions++
		a.LastSession = max(a.LastSession, e.DateTime)
	}
	a.TotalLaps += d.Laps
	a.lapTimes = append(a.lapTimes, d.LapTimes...)
	if validTime(d.BestLap) && (!a.BestLap.Valid() || d.BestLap < float64(a.BestLap)) {
		a.BestLap = model.Float(d.BestLap)
	}
	if validTime(d.TopSpeed) && (!a.TopSpeed.Valid() || d.TopSpeed > float64(a.TopSpeed)) {
		a.TopSpeed = model.Float(d.TopSpeed)
	}
}

// finish computes the average over all pooled lap times
func (a *Aggregate) finish() {
	if len(a.lapTimes) > 0 {
		a.AvgLap = model.Float(mean(a.lapTimes))
	}
	a.lapTimes = nil
	a.counted = nil
}

func mean(v []float64) float64 {
	return stat.Mean(v, nil)
}

func validTime(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func joinNames(names []string) string {
	return strings.Join(names, " / ")
}
