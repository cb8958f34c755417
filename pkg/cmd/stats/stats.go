package stats

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/simresults-indexer/pkg/cmd/cmdutil"
	"github.com/mpapenbr/simresults-indexer/pkg/service"
)

var (
	source  string
	vehicle string
)

func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "computes statistics for the configured pilots",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch service.StatsSource(source) {
			case service.SourceScan, service.SourceStore:
				return nil
			default:
				return fmt.Errorf("invalid source %q (use scan or store)", source)
			}
		},
	}
	cmd.PersistentFlags().StringVar(&source, "source", string(service.SourceScan),
		"compute from a fresh scan of the results folder (scan) or from the store (store)")

	cmd.AddCommand(&cobra.Command{
		Use:   "driver",
		Short: "career summary of the tracked driver",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), func(ctx context.Context, s *service.ResultsService) (any, error) {
				return cmdutil.Unwrap(s.DriverStats(ctx))
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "tracks",
		Short: "per track aggregates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), func(ctx context.Context, s *service.ResultsService) (any, error) {
				return cmdutil.Unwrap(s.TrackStats(ctx))
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "vehicles [class]",
		Short: "per class and vehicle aggregates",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			class := ""
			if len(args) == 1 {
				class = args[0]
			}
			return run(cmd.Context(), func(ctx context.Context, s *service.ResultsService) (any, error) {
				return cmdutil.Unwrap(s.VehicleStats(ctx, class))
			})
		},
	})
	vt := &cobra.Command{
		Use:   "vehicle-tracks [class]",
		Short: "per track aggregates of a vehicle",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			class := ""
			if len(args) == 1 {
				class = args[0]
			}
			return run(cmd.Context(), func(ctx context.Context, s *service.ResultsService) (any, error) {
				return cmdutil.Unwrap(s.VehicleTrackStats(ctx, vehicle, class))
			})
		},
	}
	vt.Flags().StringVar(&vehicle, "vehicle", "", "vehicle name or id")
	_ = vt.MarkFlagRequired("vehicle")
	cmd.AddCommand(vt)
	return cmd
}

//nolint:whitespace // can't make both editor and linter happy
func run(
	ctx context.Context,
	compute func(ctx context.Context, s *service.ResultsService) (any, error),
) error {
	src := service.StatsSource(source)
	opts := []cmdutil.EnvOption{cmdutil.WithStatsSource(src)}
	if src == service.SourceScan {
		opts = append(opts, cmdutil.WithoutStore())
	} else {
		opts = append(opts, cmdutil.WithStrictStore())
	}
	env, err := cmdutil.NewEnv(ctx, opts...)
	if err != nil {
		return err
	}
	defer env.Close()
	if src == service.SourceScan {
		if _, err := cmdutil.Unwrap(env.Service.Refresh(ctx)); err != nil {
			return err
		}
	}
	res, err := compute(ctx, env.Service)
	if err != nil {
		return err
	}
	return cmdutil.Print(os.Stdout, res)
}
