package check

import (
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/simresults-indexer/pkg/cmd/cmdutil"
	"github.com/mpapenbr/simresults-indexer/pkg/model"
	"github.com/mpapenbr/simresults-indexer/pkg/processing/extract"
	"github.com/mpapenbr/simresults-indexer/pkg/scan"
)

type (
	fileSummary struct {
		Path     string           `json:"path"`
		Track    string           `json:"track"`
		DateTime int64            `json:"dateTime"`
		Results  bool             `json:"results"`
		HasRace  bool             `json:"hasRace"`
		Sessions []sessionSummary `json:"sessions"`
	}
	sessionSummary struct {
		Key           string            `json:"key"`
		Type          model.SessionType `json:"type"`
		Drivers       int               `json:"drivers"`
		DriverChanges int               `json:"driverChanges"`
		Incidents     int               `json:"incidents"`
		Winner        string            `json:"winner,omitempty"`
		BestLap       string            `json:"bestLap"`
	}
)

func NewCheckFileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "file path",
		Short: "decodes a result file and shows the sessions found in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdutil.SetupLogging()
			sf := scan.ReadFile(args[0])
			if sf.Err != nil {
				return sf.Err
			}
			return cmdutil.Print(os.Stdout, summarizeFile(&sf))
		},
	}
}

func summarizeFile(sf *model.ScannedFile) *fileSummary {
	meta, sessions, ok := extract.ExtractAll(sf.Root)
	ret := &fileSummary{
		Path:     sf.Path,
		Track:    meta.Track(),
		DateTime: meta.DateTime,
		Results:  ok,
		HasRace:  ok && extract.HasRace(extract.ResolveRoot(sf.Root)),
		Sessions: make([]sessionSummary, 0, len(sessions)),
	}
	for _, s := range sessions {
		item := sessionSummary{Key: s.Key, Type: s.Type, Drivers: len(s.Drivers)}
		if s.Stream != nil {
			item.DriverChanges = len(s.Stream.DriverChanges)
			item.Incidents = s.Stream.Incidents
		}
		best := math.NaN()
		for _, d := range s.Drivers {
			if d.Position == 1 {
				item.Winner = d.Name
			}
			if d.BestLapSec > 0 && (math.IsNaN(best) || d.BestLapSec < best) {
				best = d.BestLapSec
			}
		}
		item.BestLap = model.FormatLapTime(best)
		ret.Sessions = append(ret.Sessions, item)
	}
	return ret
}
