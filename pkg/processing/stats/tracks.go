package stats

import (
	"cmp"
	"slices"

	"github.com/mpapenbr/simresults-indexer/pkg/processing/extract"
)

type TrackStats struct {
	Track string `json:"track"`
	*Aggregate
	ByClass map[string]*Aggregate `json:"byClass"`
}

// Tracks aggregates sessions per track, and per vehicle class within each
// track. Average lap times pool all valid laps of the track.
func Tracks(entries []*Entry, pilots *extract.PilotMatcher) []*TrackStats {
	return trackStats(entries, pilots, func(*DriverEntry) bool { return true })
}

// VehicleTracks is Tracks restricted to one vehicle of one class
func VehicleTracks(entries []*Entry, pilots *extract.PilotMatcher, vehicle, class string) []*TrackStats {
	return trackStats(entries, pilots, func(d *DriverEntry) bool {
		return d.Vehicle == vehicle && d.Class == class
	})
}

func trackStats(entries []*Entry, pilots *extract.PilotMatcher, keep func(*DriverEntry) bool) []*TrackStats {
	byTrack := map[string]*TrackStats{}
	for _, e := range entries {
		for _, d := range participants(e, pilots) {
			if !keep(d) {
				continue
			}
			ts, ok := byTrack[e.Track]
			if !ok {
				ts = &TrackStats{Track: e.Track, Aggregate: newAggregate(), ByClass: map[string]*Aggregate{}}
				byTrack[e.Track] = ts
			}
			ts.add(e, d)
			ca, ok := ts.ByClass[d.Class]
			if !ok {
				ca = newAggregate()
				ts.ByClass[d.Class] = ca
			}
			ca.add(e, d)
		}
	}
	ret := make([]*TrackStats, 0, len(byTrack))
	for _, ts := range byTrack {
		ts.finish()
		for _, ca := range ts.ByClass {
			ca.finish()
		}
		ret = append(ret, ts)
	}
	slices.SortFunc(ret, func(a, b *TrackStats) int {
		if c := cmp.Compare(b.Sessions, a.Sessions); c != 0 {
			return c
		}
		return cmp.Compare(a.Track, b.Track)
	})
	return ret
}
