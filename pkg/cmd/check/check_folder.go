package check

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/simresults-indexer/log"
	"github.com/mpapenbr/simresults-indexer/pkg/cmd/cmdutil"
	"github.com/mpapenbr/simresults-indexer/pkg/config"
	"github.com/mpapenbr/simresults-indexer/pkg/model"
	"github.com/mpapenbr/simresults-indexer/pkg/processing/extract"
	"github.com/mpapenbr/simresults-indexer/pkg/scan"
)

type (
	folderReport struct {
		Folder    string      `json:"folder"`
		Total     int         `json:"total"`
		Results   int         `json:"results"`
		NoResults []string    `json:"noResults,omitempty"`
		Failed    []fileError `json:"failed,omitempty"`
	}
	fileError struct {
		Path  string `json:"path"`
		Error string `json:"error"`
	}
)

func NewCheckFolderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "folder [dir]",
		Short: "reads all result files and reports those which cannot be used",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdutil.SetupLogging()
			dir := config.ResultsFolder
			if len(args) == 1 {
				dir = args[0]
			}
			if dir == "" {
				s, err := cmdutil.LoadSettings()
				if err != nil {
					return err
				}
				dir = s.ResultsFolder
			}
			rep, err := checkFolder(cmd.Context(), dir)
			if err != nil {
				return err
			}
			return cmdutil.Print(os.Stdout, rep)
		},
	}
}

func checkFolder(ctx context.Context, dir string) (*folderReport, error) {
	s := scan.NewScanner(
		scan.WithWorkers(config.Workers),
		scan.WithExtension(config.FileExtension))
	files, err := s.ScanDir(ctx, dir)
	if err != nil {
		return nil, err
	}
	return summarize(dir, files), nil
}

func summarize(dir string, files []model.ScannedFile) *folderReport {
	rep := &folderReport{Folder: dir, Total: len(files)}
	for i := range files {
		f := &files[i]
		switch {
		case f.Err != nil:
			log.Debug("unreadable", log.String("path", f.Path), log.ErrorField(f.Err))
			rep.Failed = append(rep.Failed, fileError{Path: f.Path, Error: f.Err.Error()})
		case extract.ResolveRoot(f.Root) == nil:
			rep.NoResults = append(rep.NoResults, f.Path)
		default:
			rep.Results++
		}
	}
	return rep
}
