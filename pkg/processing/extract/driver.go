package extract

import (
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/mpapenbr/simresults-indexer/pkg/xmltree"
)

// num parses a decimal number, NaN if s is not numeric
func num(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func attrNum(n *xmltree.Node, name string) float64 {
	v, ok := n.Attr(name)
	if !ok {
		return math.NaN()
	}
	return num(v)
}

func (e *Extractor) extractDriver(n *xmltree.Node) (*Driver, bool) {
	name := strings.TrimSpace(n.TextOf("Name"))
	if name == "" {
		return nil, false
	}
	d := &Driver{
		Name:            name,
		IsPlayer:        n.TextOf("isPlayer") == "1",
		Position:        num(n.TextOf("Position")),
		ClassPosition:   num(n.TextOf("ClassPosition")),
		GridPos:         num(n.TextOf("GridPos")),
		ClassGridPos:    num(n.TextOf("ClassGridPos")),
		FinishStatus:    n.TextOf("FinishStatus"),
		LapsCount:       num(n.TextOf("Laps")),
		Pitstops:        num(n.TextOf("Pitstops")),
		FinishTime:      num(n.TextOf("FinishTime")),
		VehicleName:     n.TextOf("VehName"),
		CarType:         n.TextOf("CarType"),
		VehicleClass:    n.TextOf("CarClass"),
		CarNumber:       n.TextOf("CarNumber"),
		TeamName:        n.TextOf("TeamName"),
		BestLapDeclared: num(n.TextOf("BestLapTime")),
		Laps:            ParseLaps(n.Children("Lap")),
	}
	for _, s := range n.Children("Swap") {
		if v := strings.TrimSpace(s.Text); v != "" {
			d.Swaps = append(d.Swaps, v)
		}
	}
	ComputeMetrics(d)
	return d, true
}

// ParseLaps converts lap elements. Elements without attributes are treated
// as a bare lap time without lap number.
func ParseLaps(nodes []*xmltree.Node) []Lap {
	ret := make([]Lap, 0, len(nodes))
	prevFuel := math.NaN()
	for _, n := range nodes {
		if !n.HasAttrs() {
			ret = append(ret, Lap{
				Num: nan(), TimeSec: num(n.Text),
				S1: nan(), S2: nan(), S3: nan(),
				TopSpeed: nan(), Fuel: nan(), FuelUsed: nan(),
				Position: nan(), Elapsed: nan(),
			})
			continue
		}
		l := Lap{
			Num:      attrNum(n, "num"),
			TimeSec:  num(n.Text),
			S1:       attrNum(n, "s1"),
			S2:       attrNum(n, "s2"),
			S3:       attrNum(n, "s3"),
			TopSpeed: attrNum(n, "topspeed"),
			Fuel:     attrNum(n, "fuel"),
			FuelUsed: attrNum(n, "fuelUsed"),
			Position: attrNum(n, "p"),
			Elapsed:  attrNum(n, "et"),
		}
		if v, ok := n.Attr("pit"); ok && v == "1" {
			l.Pit = true
		}
		if math.IsNaN(l.FuelUsed) && finite(prevFuel) && finite(l.Fuel) && prevFuel >= l.Fuel {
			l.FuelUsed = prevFuel - l.Fuel
		}
		prevFuel = l.Fuel
		ret = append(ret, l)
	}
	return ret
}

// ComputeMetrics derives best, average and top speed values from the laps.
// A valid declared best lap time takes precedence over the derived one.
func ComputeMetrics(d *Driver) {
	times := []float64{}
	d.BestLapSec = math.NaN()
	d.BestLapNum = math.NaN()
	d.TopSpeedMax = math.NaN()
	bestDerived := math.Inf(1)
	bestNum := math.NaN()
	for _, l := range d.Laps {
		if l.Valid() {
			times = append(times, l.TimeSec)
			if l.TimeSec < bestDerived {
				bestDerived = l.TimeSec
				bestNum = l.Num
			}
		}
		if finite(l.TopSpeed) && l.TopSpeed > 0 &&
			(math.IsNaN(d.TopSpeedMax) || l.TopSpeed > d.TopSpeedMax) {
			d.TopSpeedMax = l.TopSpeed
		}
	}
	d.ValidLaps = len(times)
	switch {
	case validTime(d.BestLapDeclared):
		d.BestLapSec = d.BestLapDeclared
		d.BestLapNum = lapNumOf(d.Laps, d.BestLapDeclared, bestNum)
	case len(times) > 0:
		d.BestLapSec = bestDerived
		d.BestLapNum = bestNum
	}
	d.AvgLapSec = math.NaN()
	d.LapStdDev = math.NaN()
	if len(times) > 0 {
		d.AvgLapSec = stat.Mean(times, nil)
	}
	if len(times) > 1 {
		d.LapStdDev = stat.StdDev(times, nil)
	}
}

func lapNumOf(laps []Lap, t, fallback float64) float64 {
	for _, l := range laps {
		if l.Valid() && math.Abs(l.TimeSec-t) < 1e-6 {
			return l.Num
		}
	}
	return fallback
}
