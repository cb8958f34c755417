package stats

import (
	"cmp"
	"slices"

	"github.com/mpapenbr/simresults-indexer/pkg/processing/extract"
)

type (
	VehicleStats struct {
		Vehicle string `json:"vehicle"`
		*Aggregate
	}
	ClassVehicles struct {
		Class    string          `json:"class"`
		Vehicles []*VehicleStats `json:"vehicles"`
	}
)

// Vehicles aggregates per vehicle class and vehicle. Within a class the
// vehicles are sorted by session count, most used first. An empty class
// selects all classes.
func Vehicles(entries []*Entry, pilots *extract.PilotMatcher, class string) []*ClassVehicles {
	byClass := map[string]map[string]*VehicleStats{}
	for _, e := range entries {
		for _, d := range participants(e, pilots) {
			if class != "" && d.Class != class {
				continue
			}
			vehicles, ok := byClass[d.Class]
			if !ok {
				vehicles = map[string]*VehicleStats{}
				byClass[d.Class] = vehicles
			}
			vs, ok := vehicles[d.Vehicle]
			if !ok {
				vs = &VehicleStats{Vehicle: d.Vehicle, Aggregate: newAggregate()}
				vehicles[d.Vehicle] = vs
			}
			vs.add(e, d)
		}
	}
	ret := make([]*ClassVehicles, 0, len(byClass))
	for c, vehicles := range byClass {
		cv := &ClassVehicles{Class: c}
		for _, vs := range vehicles {
			vs.finish()
			cv.Vehicles = append(cv.Vehicles, vs)
		}
		slices.SortFunc(cv.Vehicles, func(a, b *VehicleStats) int {
			if x := cmp.Compare(b.Sessions, a.Sessions); x != 0 {
				return x
			}
			return cmp.Compare(a.Vehicle, b.Vehicle)
		})
		ret = append(ret, cv)
	}
	classRank := extract.New().ClassRank
	slices.SortFunc(ret, func(a, b *ClassVehicles) int {
		if x := cmp.Compare(classRank(a.Class), classRank(b.Class)); x != 0 {
			return x
		}
		return cmp.Compare(a.Class, b.Class)
	})
	return ret
}
