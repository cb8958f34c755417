package model

import "strings"

type SessionType string

const (
	SessionRace       SessionType = "race"
	SessionQualifying SessionType = "qualifying"
	SessionPractice   SessionType = "practice"
	SessionWarmup     SessionType = "warmup"
	SessionUnknown    SessionType = "unknown"
)

// ClassifySession derives the session type from a session block name like
// "Race1", "Qualify" or "Practice2".
func ClassifySession(name string) SessionType {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "race"):
		return SessionRace
	case strings.Contains(n, "qual"):
		return SessionQualifying
	case strings.Contains(n, "practice"), strings.Contains(n, "practise"):
		return SessionPractice
	case strings.Contains(n, "warm"):
		return SessionWarmup
	default:
		return SessionUnknown
	}
}

type Session struct {
	ID                int64       `json:"id"`
	FileID            int64       `json:"fileId"`
	Seq               int         `json:"seq"` // position within the file
	Name              string      `json:"name"`
	Type              SessionType `json:"type"`
	DateTime          int64       `json:"dateTime"`
	TimeString        string      `json:"timeString"`
	LapsConfigured    Float       `json:"lapsConfigured"`
	MinutesConfigured Float       `json:"minutesConfigured"`
	DriverCount       int         `json:"driverCount"` // grid size, not only tracked drivers
	Drivers           []*Driver   `json:"drivers"`
	Stream            *StreamBlob `json:"stream,omitempty"`
}

// Driver is a tracked driver entry. Numeric fields are NaN when unknown.
type Driver struct {
	ID              int64    `json:"id"`
	SessionID       int64    `json:"sessionId"`
	Name            string   `json:"name"`
	AllDrivers      []string `json:"allDrivers"`
	IsPlayer        bool     `json:"isPlayer"`
	OverallPosition Float    `json:"overallPosition"`
	ClassPosition   Float    `json:"classPosition"`
	FinishStatus    string   `json:"finishStatus"`
	LapsCount       Float    `json:"lapsCount"`
	BestLapTime     Float    `json:"bestLapTime"`
	BestLapNum      Float    `json:"bestLapNum"`
	VehicleName     string   `json:"vehicleName"`
	CarType         string   `json:"carType"`
	VehicleClass    string   `json:"vehicleClass"`
	VehicleNumber   string   `json:"vehicleNumber"`
	TeamName        string   `json:"teamName"`
	Pitstops        Float    `json:"pitstops"`
	FinishTime      Float    `json:"finishTime"`
	Laps            []*Lap   `json:"laps"`
}

type Lap struct {
	ID       int64 `json:"id"`
	DriverID int64 `json:"driverId"`
	LapNum   int   `json:"lapNum"`
	LapTime  Float `json:"lapTime"`
	Sector1  Float `json:"sector1"`
	Sector2  Float `json:"sector2"`
	Sector3  Float `json:"sector3"`
	FuelUsed Float `json:"fuelUsed"`
	TopSpeed Float `json:"topSpeed"`
	IsPit    bool  `json:"isPit"`
}

// StreamBlob holds the raw event stream of a session
type StreamBlob struct {
	SessionID     int64  `json:"sessionId"`
	Data          []byte `json:"-"`
	DriverChanges int    `json:"driverChanges"`
	Incidents     int    `json:"incidents"`
	Penalties     int    `json:"penalties"`
}
