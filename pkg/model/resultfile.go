package model

import (
	"time"

	"github.com/mpapenbr/simresults-indexer/pkg/xmltree"
)

// ResultFile is one indexed result file
type ResultFile struct {
	ID          int64     `json:"id"`
	Path        string    `json:"path"`
	Fingerprint string    `json:"fingerprint"`
	Size        int64     `json:"size"`
	MTime       time.Time `json:"mtime"`
	IndexedAt   time.Time `json:"indexedAt"`
	GameVersion string    `json:"gameVersion"`
	TrackVenue  string    `json:"trackVenue"`
	TrackCourse string    `json:"trackCourse"`
	TrackEvent  string    `json:"trackEvent"`
	TrackLength Float     `json:"trackLength"`
	DateTime    int64     `json:"dateTime"` // unix seconds, 0 if unknown
	TimeString  string    `json:"timeString"`
}

// FileRecord is a result file together with everything derived from it
type FileRecord struct {
	File     *ResultFile `json:"file"`
	Sessions []*Session  `json:"sessions"`
}

type FileDates struct {
	Path       string    `json:"path"`
	DateTime   int64     `json:"dateTime"`
	TimeString string    `json:"timeString"`
	MTime      time.Time `json:"mtime"`
}

type StoreStats struct {
	Backend   string `json:"backend"`
	Location  string `json:"location"`
	Degraded  bool   `json:"degraded"`
	Files     int64  `json:"files"`
	Sessions  int64  `json:"sessions"`
	Drivers   int64  `json:"drivers"`
	Laps      int64  `json:"laps"`
	Streams   int64  `json:"streams"`
	SizeBytes int64  `json:"sizeBytes"`
}

// ScannedFile is the outcome of reading and decoding a single result file.
// Exactly one of Root and Err is set.
type ScannedFile struct {
	Path  string
	Root  *xmltree.Node
	MTime time.Time
	Size  int64
	Err   error
}

// EventTime returns the time the session took place, falling back to the
// file modification time.
func (f *ResultFile) EventTime() time.Time {
	if f.DateTime > 0 {
		return time.Unix(f.DateTime, 0)
	}
	return f.MTime
}
