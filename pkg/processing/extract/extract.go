// Package extract turns decoded result documents into typed sessions.
package extract

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/mpapenbr/simresults-indexer/log"
	"github.com/mpapenbr/simresults-indexer/pkg/model"
	"github.com/mpapenbr/simresults-indexer/pkg/xmltree"
)

// DefaultClassPriority orders vehicle classes for presentation
var DefaultClassPriority = []string{"Hyper", "LMP2_ELMS", "LMP2", "LMP3", "GT3", "GTE"}

var knownSessionKey = regexp.MustCompile(
	`^(Practice[1-4]?|Qualify[1-4]?|Qualifying[1-4]?|Warmup|Race[1-3]?)$`)

type (
	Option    func(*Extractor)
	Extractor struct {
		classPriority []string
		l             *log.Logger
	}
)

func WithClassPriority(classes []string) Option {
	return func(e *Extractor) {
		e.classPriority = classes
	}
}

func WithLogger(l *log.Logger) Option {
	return func(e *Extractor) {
		e.l = l
	}
}

func New(opts ...Option) *Extractor {
	ret := &Extractor{classPriority: DefaultClassPriority}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

var std = New()

func (e *Extractor) logger() *log.Logger {
	if e.l != nil {
		return e.l
	}
	return log.Default().Named("extract")
}

// ResolveRoot locates the race result root of a decoded document.
// It accepts rFactorXML/RaceResults and a bare RaceResults.
func ResolveRoot(doc *xmltree.Node) *xmltree.Node {
	if doc == nil {
		return nil
	}
	if r := doc.Path("rFactorXML", "RaceResults"); r != nil {
		return r
	}
	if r := doc.Child("RaceResults"); r != nil {
		return r
	}
	if doc.Name == "RaceResults" {
		return doc
	}
	return nil
}

// SessionPriority ranks session blocks: race > qualifying > practice > warmup.
func SessionPriority(key string) int {
	switch model.ClassifySession(key) {
	case model.SessionRace:
		return 100
	case model.SessionQualifying:
		return 80
	case model.SessionPractice:
		return 60
	case model.SessionWarmup:
		return 50
	default:
		return 10
	}
}

// SessionKeys returns the session blocks of root in document order.
// A block qualifies if it is a well known session name or holds drivers.
func SessionKeys(root *xmltree.Node) []string {
	ret := []string{}
	for _, key := range root.Keys() {
		if knownSessionKey.MatchString(key) || hasDrivers(root.Child(key)) {
			ret = append(ret, key)
		}
	}
	return ret
}

func hasDrivers(n *xmltree.Node) bool {
	return n.Child("Driver") != nil
}

// PickSession chooses the most significant session block holding drivers.
// Ties keep document order. Returns "" if no block holds drivers.
func PickSession(root *xmltree.Node) string {
	candidates := []string{}
	for _, key := range root.Keys() {
		if hasDrivers(root.Child(key)) {
			candidates = append(candidates, key)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	slices.SortStableFunc(candidates, func(a, b string) int {
		return SessionPriority(b) - SessionPriority(a)
	})
	return candidates[0]
}

// HasRace reports whether root contains a race type session block
func HasRace(root *xmltree.Node) bool {
	for _, key := range SessionKeys(root) {
		if model.ClassifySession(key) == model.SessionRace {
			return true
		}
	}
	return false
}

// ExtractSession extracts the picked session of doc.
// Returns nil if doc has no race result root.
func ExtractSession(doc *xmltree.Node) *Session {
	return std.ExtractSession(doc)
}

// ExtractAll extracts every session block of doc in document order.
// The bool result is false if doc has no race result root.
func ExtractAll(doc *xmltree.Node) (Meta, []*Session, bool) {
	return std.ExtractAll(doc)
}

func (e *Extractor) ExtractSession(doc *xmltree.Node) *Session {
	root := ResolveRoot(doc)
	if root == nil {
		return nil
	}
	meta := ExtractMeta(root)
	key := PickSession(root)
	if key == "" {
		return &Session{Type: model.SessionUnknown, Meta: meta, DateTime: meta.DateTime,
			TimeString: meta.TimeString, LapsConfigured: nan(), MinutesConfigured: nan()}
	}
	return e.extractBlock(root, key, meta)
}

func (e *Extractor) ExtractAll(doc *xmltree.Node) (Meta, []*Session, bool) {
	root := ResolveRoot(doc)
	if root == nil {
		return Meta{}, nil, false
	}
	meta := ExtractMeta(root)
	ret := []*Session{}
	for _, key := range SessionKeys(root) {
		ret = append(ret, e.extractBlock(root, key, meta))
	}
	return meta, ret, true
}

func ExtractMeta(root *xmltree.Node) Meta {
	return Meta{
		GameVersion: root.TextOf("GameVersion"),
		TrackVenue:  root.TextOf("TrackVenue"),
		TrackCourse: root.TextOf("TrackCourse"),
		TrackEvent:  root.TextOf("TrackEvent"),
		TrackLength: num(root.TextOf("TrackLength")),
		DateTime:    unixSeconds(root.TextOf("DateTime")),
		TimeString:  root.TextOf("TimeString"),
	}
}

func (e *Extractor) extractBlock(root *xmltree.Node, key string, meta Meta) *Session {
	block := root.Child(key)
	s := &Session{
		Key:               key,
		Type:              model.ClassifySession(key),
		Meta:              meta,
		DateTime:          unixSeconds(block.TextOf("DateTime")),
		TimeString:        block.TextOf("TimeString"),
		LapsConfigured:    num(block.TextOf("Laps")),
		MinutesConfigured: num(block.TextOf("Minutes")),
		MostLapsCompleted: num(block.TextOf("MostLapsCompleted")),
		Stream:            ParseStream(block.Child("Stream")),
	}
	if s.DateTime == 0 {
		s.DateTime = meta.DateTime
	}
	if s.TimeString == "" {
		s.TimeString = meta.TimeString
	}
	for _, dn := range block.Children("Driver") {
		d, ok := e.extractDriver(dn)
		if !ok {
			e.logger().Debug("skipping driver without name", log.String("session", key))
			continue
		}
		s.Drivers = append(s.Drivers, d)
	}
	ApplyAliases(s.Drivers, BuildAliases(s.Stream.driverChanges(), s.Drivers))
	e.SortDrivers(s.Drivers)
	return s
}

func unixSeconds(s string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
