package query

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/simresults-indexer/pkg/cmd/cmdutil"
	"github.com/mpapenbr/simresults-indexer/pkg/config"
	"github.com/mpapenbr/simresults-indexer/pkg/model"
	"github.com/mpapenbr/simresults-indexer/pkg/service"
)

func NewListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "lists the indexed result files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listFiles(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func NewShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show path",
		Short: "shows the indexed data of a result file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showFile(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}
}

func NewDatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dates path",
		Short: "shows event date and modification time of a result file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showDates(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}
}

func NewInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "shows settings and store statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showInfo(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func listFiles(ctx context.Context, w io.Writer) error {
	env, err := cmdutil.NewEnv(ctx, cmdutil.WithStrictStore())
	if err != nil {
		return err
	}
	defer env.Close()
	files, err := cmdutil.Unwrap(env.Service.Files(ctx))
	if err != nil {
		return err
	}
	if config.OutputFormat == "text" {
		return writeFileTable(w, files)
	}
	return cmdutil.Print(w, files)
}

func writeFileTable(w io.Writer, files []*model.ResultFile) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tTRACK\tEVENT DATE\tSIZE\tINDEXED")
	for _, f := range files {
		eventDate := "-"
		if f.DateTime > 0 {
			eventDate = time.Unix(f.DateTime, 0).Format(time.DateTime)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			filepath.Base(f.Path),
			f.TrackVenue,
			eventDate,
			humanize.Bytes(uint64(max(f.Size, 0))),
			humanize.Time(f.IndexedAt))
	}
	return tw.Flush()
}

func showFile(ctx context.Context, w io.Writer, path string) error {
	env, err := cmdutil.NewEnv(ctx, cmdutil.WithStrictStore())
	if err != nil {
		return err
	}
	defer env.Close()
	rec, err := cmdutil.Unwrap(env.Service.File(ctx, absPath(path)))
	if err != nil {
		return err
	}
	return cmdutil.Print(w, rec)
}

func showDates(ctx context.Context, w io.Writer, path string) error {
	env, err := cmdutil.NewEnv(ctx, cmdutil.WithStrictStore())
	if err != nil {
		return err
	}
	defer env.Close()
	dates, err := cmdutil.Unwrap(env.Service.Dates(ctx, absPath(path)))
	if err != nil {
		return err
	}
	return cmdutil.Print(w, dates)
}

func showInfo(ctx context.Context, w io.Writer) error {
	env, err := cmdutil.NewEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()
	info, err := cmdutil.Unwrap(env.Service.Info(ctx))
	if err != nil {
		return err
	}
	if config.OutputFormat == "text" {
		return writeInfo(w, info)
	}
	return cmdutil.Print(w, info)
}

func writeInfo(w io.Writer, info *service.Info) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Pilots:\t%s\n", info.Settings.PilotNames)
	fmt.Fprintf(tw, "Results folder:\t%s\n", info.Settings.ResultsFolder)
	fmt.Fprintf(tw, "Selected class:\t%s\n", info.Settings.SelectedClass)
	if st := info.Store; st != nil {
		fmt.Fprintf(tw, "Store:\t%s (%s)\n", st.Location, st.Backend)
		if st.Degraded {
			fmt.Fprintln(tw, "\tin-memory fallback, data is not persisted")
		}
		fmt.Fprintf(tw, "Size:\t%s\n", humanize.Bytes(uint64(max(st.SizeBytes, 0))))
		fmt.Fprintf(tw, "Files:\t%s\n", humanize.Comma(st.Files))
		fmt.Fprintf(tw, "Sessions:\t%s\n", humanize.Comma(st.Sessions))
		fmt.Fprintf(tw, "Drivers:\t%s\n", humanize.Comma(st.Drivers))
		fmt.Fprintf(tw, "Laps:\t%s\n", humanize.Comma(st.Laps))
	}
	return tw.Flush()
}

// absPath makes path comparable to the stored absolute paths
func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

