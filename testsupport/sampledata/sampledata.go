// Package sampledata builds result files for tests
package sampledata

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type Lap struct {
	Num      int // 0 omits all attributes
	Time     string
	TopSpeed float64
	Fuel     float64
	Pit      bool
}

type Driver struct {
	Name          string
	Class         string
	VehName       string
	CarType       string
	Number        string
	Team          string
	Position      int
	ClassPosition int // 0 omits the element
	BestLap       string
	Laps          []Lap
	Swaps         []string
	IsPlayer      bool
	FinishStatus  string
}

type Session struct {
	Key     string
	Laps    int
	Minutes int
	Drivers []Driver
	Stream  []string // raw xml elements
}

type File struct {
	Venue    string
	Course   string
	Event    string
	DateTime int64
	Sessions []Session
	Bare     bool // omit the rFactorXML wrapper
}

func esc(s string) string {
	buf := &bytes.Buffer{}
	_ = xml.EscapeText(buf, []byte(s))
	return buf.String()
}

func elem(buf *bytes.Buffer, name, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(buf, "<%s>%s</%s>\n", name, esc(value), name)
}

//nolint:cyclop,funlen // by design
func (f File) XML() []byte {
	buf := &bytes.Buffer{}
	buf.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	if !f.Bare {
		buf.WriteString(`<rFactorXML version="1.0">` + "\n")
	}
	buf.WriteString("<RaceResults>\n")
	elem(buf, "GameVersion", "1.0")
	elem(buf, "TrackVenue", f.Venue)
	elem(buf, "TrackCourse", f.Course)
	elem(buf, "TrackEvent", f.Event)
	elem(buf, "TrackLength", "7004.0")
	if f.DateTime > 0 {
		elem(buf, "DateTime", fmt.Sprint(f.DateTime))
		elem(buf, "TimeString", time.Unix(f.DateTime, 0).UTC().Format("2006/01/02 15:04:05"))
	}
	for _, s := range f.Sessions {
		fmt.Fprintf(buf, "<%s>\n", s.Key)
		if s.Laps > 0 {
			elem(buf, "Laps", fmt.Sprint(s.Laps))
		}
		if s.Minutes > 0 {
			elem(buf, "Minutes", fmt.Sprint(s.Minutes))
		}
		if len(s.Stream) > 0 {
			buf.WriteString("<Stream>\n")
			for _, e := range s.Stream {
				buf.WriteString(e + "\n")
			}
			buf.WriteString("</Stream>\n")
		}
		for _, d := range s.Drivers {
			buf.WriteString("<Driver>\n")
			elem(buf, "Name", d.Name)
			if d.IsPlayer {
				elem(buf, "isPlayer", "1")
			}
			elem(buf, "VehName", d.VehName)
			elem(buf, "CarType", d.CarType)
			elem(buf, "CarClass", d.Class)
			elem(buf, "CarNumber", d.Number)
			elem(buf, "TeamName", d.Team)
			if d.Position > 0 {
				elem(buf, "Position", fmt.Sprint(d.Position))
			}
			if d.ClassPosition > 0 {
				elem(buf, "ClassPosition", fmt.Sprint(d.ClassPosition))
			}
			elem(buf, "BestLapTime", d.BestLap)
			elem(buf, "FinishStatus", d.FinishStatus)
			for _, sw := range d.Swaps {
				elem(buf, "Swap", sw)
			}
			for _, l := range d.Laps {
				if l.Num == 0 {
					fmt.Fprintf(buf, "<Lap>%s</Lap>\n", esc(l.Time))
					continue
				}
				fmt.Fprintf(buf, `<Lap num="%d" p="1"`, l.Num)
				if l.TopSpeed > 0 {
					fmt.Fprintf(buf, ` topspeed="%g"`, l.TopSpeed)
				}
				if l.Fuel > 0 {
					fmt.Fprintf(buf, ` fuel="%g"`, l.Fuel)
				}
				if l.Pit {
					buf.WriteString(` pit="1"`)
				}
				fmt.Fprintf(buf, ">%s</Lap>\n", esc(l.Time))
			}
			buf.WriteString("</Driver>\n")
		}
		fmt.Fprintf(buf, "</%s>\n", s.Key)
	}
	buf.WriteString("</RaceResults>\n")
	if !f.Bare {
		buf.WriteString("</rFactorXML>\n")
	}
	return buf.Bytes()
}

// Write stores f as dir/name and returns the path
func Write(t *testing.T, dir, name string, f File) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, f.XML(), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// Laps creates numbered laps from lap time strings
func Laps(times ...string) []Lap {
	ret := make([]Lap, len(times))
	for i, t := range times {
		ret[i] = Lap{Num: i + 1, Time: t, TopSpeed: 280 + float64(i)}
	}
	return ret
}

// RaceFile is a two class race: D1 (Hyper) and D2 (GT3) both winning their class
func RaceFile(dateTime int64) File {
	return File{
		Venue:    "Spa-Francorchamps",
		Course:   "Spa-Francorchamps GP",
		DateTime: dateTime,
		Sessions: []Session{
			{
				Key: "Qualify",
				Drivers: []Driver{
					{Name: "D2", Class: "GT3", VehName: "GT3 #91", CarType: "Porsche 911 GT3 R",
						Number: "91", Position: 1, ClassPosition: 1, Laps: Laps("138.5")},
					{Name: "D1", Class: "Hyper", VehName: "Hyper #50", CarType: "Ferrari 499P",
						Number: "50", Position: 2, ClassPosition: 1, Laps: Laps("126.4")},
				},
			},
			{
				Key:  "Race",
				Laps: 3,
				Drivers: []Driver{
					{Name: "D1", Class: "Hyper", VehName: "Hyper #50", CarType: "Ferrari 499P",
						Number: "50", Position: 1, ClassPosition: 1, FinishStatus: "Finished Normally",
						Laps: Laps("127.0", "126.0", "126.5")},
					{Name: "D2", Class: "GT3", VehName: "GT3 #91", CarType: "Porsche 911 GT3 R",
						Number: "91", Position: 2, ClassPosition: 1, FinishStatus: "Finished Normally",
						Laps: Laps("139.0", "138.0", "--.----")},
				},
			},
		},
	}
}
