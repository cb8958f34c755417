package extract

import (
	"cmp"
	"math"
	"slices"
	"strings"
)

// ClassRank returns the presentation rank of class, unknown classes last
func (e *Extractor) ClassRank(class string) int {
	for i, c := range e.classPriority {
		if c == class {
			return i
		}
	}
	for i, c := range e.classPriority {
		if strings.EqualFold(c, class) {
			return i
		}
	}
	return len(e.classPriority)
}

// SortDrivers orders drivers by class priority, then class position if both
// are known, else by best lap. The sort is stable.
func (e *Extractor) SortDrivers(drivers []*Driver) {
	slices.SortStableFunc(drivers, func(a, b *Driver) int {
		if c := cmp.Compare(e.ClassRank(a.VehicleClass), e.ClassRank(b.VehicleClass)); c != 0 {
			return c
		}
		if finite(a.ClassPosition) && finite(b.ClassPosition) {
			return cmp.Compare(a.ClassPosition, b.ClassPosition)
		}
		return cmp.Compare(lapKey(a.BestLapSec), lapKey(b.BestLapSec))
	})
}

func SortDrivers(drivers []*Driver) {
	std.SortDrivers(drivers)
}

func lapKey(v float64) float64 {
	if validTime(v) {
		return v
	}
	return math.Inf(1)
}
