package extract

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/mpapenbr/simresults-indexer/pkg/xmltree"
)

var driverChangeRe = regexp.MustCompile(
	`Slot=(\d+)\s+Vehicle="([^"]*)"\s+Old="([^"]*)"\s+New="([^"]*)"`)

// ParseDriverChange parses a stream entry like
// Slot=3 Vehicle="Car #12" Old="A" New="B"
func ParseDriverChange(s string) (DriverChange, bool) {
	m := driverChangeRe.FindStringSubmatch(s)
	if m == nil {
		return DriverChange{}, false
	}
	slot, _ := strconv.Atoi(m[1])
	return DriverChange{
		Slot:    slot,
		Vehicle: strings.TrimSpace(m[2]),
		Old:     strings.TrimSpace(m[3]),
		New:     strings.TrimSpace(m[4]),
	}, true
}

// ParseStream collects driver changes and counts incidents and penalties.
func ParseStream(n *xmltree.Node) *Stream {
	if n == nil {
		return nil
	}
	s := &Stream{Node: n}
	for _, c := range n.Nodes {
		switch c.Name {
		case "DriverChange":
			if dc, ok := ParseDriverChange(c.Text); ok {
				dc.Elapsed = attrNum(c, "et")
				s.DriverChanges = append(s.DriverChanges, dc)
			}
		case "Incident":
			s.Incidents++
		case "Penalty":
			s.Penalties++
		}
	}
	return s
}

// BuildAliases merges driver names per vehicle from the change log and the
// swap lists of the drivers. Names keep the order of first appearance.
func BuildAliases(changes []DriverChange, drivers []*Driver) map[string][]string {
	ret := map[string][]string{}
	add := func(vehicle, name string) {
		if vehicle == "" || name == "" {
			return
		}
		if !slices.Contains(ret[vehicle], name) {
			ret[vehicle] = append(ret[vehicle], name)
		}
	}
	for _, c := range changes {
		add(c.Vehicle, c.Old)
		add(c.Vehicle, c.New)
	}
	for _, d := range drivers {
		for _, s := range d.Swaps {
			add(d.VehicleKey(), s)
		}
	}
	return ret
}

// ApplyAliases fills AllDrivers and DisplayName of each driver
func ApplyAliases(drivers []*Driver, aliases map[string][]string) {
	for _, d := range drivers {
		names := slices.Clone(aliases[d.VehicleKey()])
		if !slices.Contains(names, d.Name) {
			names = append(names, d.Name)
		}
		d.AllDrivers = names
		d.DisplayName = strings.Join(names, " / ")
	}
}
