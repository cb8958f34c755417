package index

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/simresults-indexer/log"
	"github.com/mpapenbr/simresults-indexer/pkg/cmd/cmdutil"
	"github.com/mpapenbr/simresults-indexer/pkg/config"
)

var (
	pruneAfterIndex bool
	resetConfirmed  bool
)

func NewIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index [folder]",
		Short: "scans the results folder and indexes new or changed files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				config.ResultsFolder = args[0]
			}
			return indexFolder(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&pruneAfterIndex, "prune", false,
		"remove stored files which no longer exist after indexing")
	return cmd
}

func NewPruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "removes stored files which no longer exist on disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			return prune(cmd.Context())
		},
	}
}

func NewResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "drops all indexed data and recreates an empty store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !resetConfirmed && !confirm(cmd, "Drop all indexed data?") {
				fmt.Fprintln(cmd.OutOrStdout(), "aborted")
				return nil
			}
			return reset(cmd.Context())
		},
	}
	cmd.Flags().BoolVarP(&resetConfirmed, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func indexFolder(ctx context.Context) error {
	env, err := cmdutil.NewEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()
	if env.Store.Degraded() {
		log.Warn("store is not persistent, indexed data is lost on exit")
	}
	rep, err := cmdutil.Unwrap(env.Service.Refresh(ctx))
	if err != nil {
		return err
	}
	if pruneAfterIndex {
		n, err := cmdutil.Unwrap(env.Service.Prune(ctx))
		if err != nil {
			return err
		}
		log.Info("pruned files", log.Int("count", n))
	}
	return cmdutil.Print(os.Stdout, rep)
}

func prune(ctx context.Context) error {
	env, err := cmdutil.NewEnv(ctx, cmdutil.WithStrictStore())
	if err != nil {
		return err
	}
	defer env.Close()
	n, err := cmdutil.Unwrap(env.Service.Prune(ctx))
	if err != nil {
		return err
	}
	return cmdutil.Print(os.Stdout, map[string]int{"pruned": n})
}

func reset(ctx context.Context) error {
	env, err := cmdutil.NewEnv(ctx, cmdutil.WithStrictStore())
	if err != nil {
		return err
	}
	defer env.Close()
	if _, err := cmdutil.Unwrap(env.Service.Reset(ctx)); err != nil {
		return err
	}
	log.Info("store reset", log.String("location", env.Store.Location()))
	return nil
}

func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", question)
	answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
