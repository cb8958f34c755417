package extract

import "strings"

// PilotMatcher decides whether a driver entry belongs to the tracked pilots.
// Names are compared case insensitive after trimming.
type PilotMatcher struct {
	names map[string]bool
	raw   []string
}

// NewPilotMatcher accepts names, each of which may itself be a comma
// separated list.
func NewPilotMatcher(names ...string) *PilotMatcher {
	p := &PilotMatcher{names: map[string]bool{}}
	for _, entry := range names {
		for _, n := range strings.Split(entry, ",") {
			if n = strings.TrimSpace(n); n != "" {
				key := normalize(n)
				if !p.names[key] {
					p.names[key] = true
					p.raw = append(p.raw, n)
				}
			}
		}
	}
	return p
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (p *PilotMatcher) Empty() bool { return p == nil || len(p.names) == 0 }

// Names returns the configured names in input order
func (p *PilotMatcher) Names() []string {
	if p == nil {
		return nil
	}
	return p.raw
}

// String returns the canonical pilot list
func (p *PilotMatcher) String() string { return strings.Join(p.Names(), ",") }

func (p *PilotMatcher) MatchName(name string) bool {
	return !p.Empty() && p.names[normalize(name)]
}

// Match checks the driver name and all known aliases of the driver's car
func (p *PilotMatcher) Match(d *Driver) bool {
	if p.MatchName(d.Name) {
		return true
	}
	for _, n := range d.AllDrivers {
		if p.MatchName(n) {
			return true
		}
	}
	return false
}

// Find returns the first matching driver of s
func (p *PilotMatcher) Find(s *Session) *Driver {
	if s == nil {
		return nil
	}
	for _, d := range s.Drivers {
		if p.Match(d) {
			return d
		}
	}
	return nil
}
