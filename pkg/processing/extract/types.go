package extract

import (
	"math"

	"github.com/mpapenbr/simresults-indexer/pkg/model"
	"github.com/mpapenbr/simresults-indexer/pkg/xmltree"
)

// Meta holds the file level information of a result document
type Meta struct {
	GameVersion string
	TrackVenue  string
	TrackCourse string
	TrackEvent  string
	TrackLength float64
	DateTime    int64 // unix seconds, 0 if unknown
	TimeString  string
}

// Track returns the track key: course, falling back to venue.
func (m Meta) Track() string {
	switch {
	case m.TrackCourse != "":
		return m.TrackCourse
	case m.TrackVenue != "":
		return m.TrackVenue
	default:
		return "unknown"
	}
}

type Session struct {
	Key               string
	Type              model.SessionType
	Meta              Meta
	DateTime          int64
	TimeString        string
	LapsConfigured    float64
	MinutesConfigured float64
	MostLapsCompleted float64
	Drivers           []*Driver
	Stream            *Stream
}

// Driver is one entry of a session. Numeric fields are NaN when unknown.
type Driver struct {
	Name          string
	IsPlayer      bool
	Position      float64
	ClassPosition float64
	GridPos       float64
	ClassGridPos  float64
	FinishStatus  string
	LapsCount     float64
	Pitstops      float64
	FinishTime    float64
	VehicleName   string
	CarType       string
	VehicleClass  string
	CarNumber     string
	TeamName      string
	Swaps         []string
	Laps          []Lap

	BestLapDeclared float64
	BestLapSec      float64
	BestLapNum      float64
	AvgLapSec       float64
	LapStdDev       float64
	TopSpeedMax     float64
	ValidLaps       int
	AllDrivers      []string
	DisplayName     string
}

// VehicleKey identifies the car of a driver within a session
func (d *Driver) VehicleKey() string {
	switch {
	case d.VehicleName != "":
		return d.VehicleName
	case d.CarNumber != "":
		return "#" + d.CarNumber
	default:
		return d.Name
	}
}

// VehicleID identifies the car model for vehicle statistics
func (d *Driver) VehicleID() string {
	switch {
	case d.CarType != "":
		return d.CarType
	case d.TeamName != "":
		return d.TeamName
	case d.CarNumber != "":
		return "#" + d.CarNumber
	default:
		return "unknown"
	}
}

// Class returns the vehicle class, "unknown" if empty
func (d *Driver) Class() string {
	if d.VehicleClass == "" {
		return "unknown"
	}
	return d.VehicleClass
}

type Lap struct {
	Num      float64
	TimeSec  float64
	S1       float64
	S2       float64
	S3       float64
	TopSpeed float64
	Fuel     float64
	FuelUsed float64
	Position float64
	Elapsed  float64
	Pit      bool
}

// Valid reports whether the lap has a usable lap time
func (l Lap) Valid() bool {
	return validTime(l.TimeSec)
}

type DriverChange struct {
	Slot    int
	Vehicle string
	Old     string
	New     string
	Elapsed float64
}

type Stream struct {
	Node          *xmltree.Node
	DriverChanges []DriverChange
	Incidents     int
	Penalties     int
}

func (s *Stream) driverChanges() []DriverChange {
	if s == nil {
		return nil
	}
	return s.DriverChanges
}

func nan() float64 { return math.NaN() }

func validTime(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
