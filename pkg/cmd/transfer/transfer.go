package transfer

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/simresults-indexer/log"
	"github.com/mpapenbr/simresults-indexer/pkg/cmd/cmdutil"
	"github.com/mpapenbr/simresults-indexer/pkg/store"
)

var targetDB string

func NewTransferCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "copies all indexed data from --db to another store",
		RunE: func(cmd *cobra.Command, args []string) error {
			sqlLogger := cmdutil.SetupLogging()
			if targetDB == "" {
				return fmt.Errorf("--target is required")
			}
			ctx := cmd.Context()
			source, err := cmdutil.OpenStore(ctx, sqlLogger, true)
			if err != nil {
				return err
			}
			defer source.Close()
			dest, err := store.Open(ctx, targetDB,
				store.WithWaitForServices(cmdutil.WaitForServicesTimeout()),
				store.WithSQLLogger(sqlLogger))
			if err != nil {
				return err
			}
			defer dest.Close()
			n, err := transfer(ctx, source, dest)
			log.Info("transfer done", log.Int("files", n),
				log.String("source", source.Location()),
				log.String("target", dest.Location()))
			return err
		},
	}
	cmd.Flags().StringVar(&targetDB, "target", "",
		"destination store (sqlite file path or postgresql:// url)")
	return cmd
}

// transfer copies every file record of source into dest. Records already
// present in dest are replaced.
func transfer(ctx context.Context, source, dest *store.Store) (int, error) {
	files, err := source.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		rec, err := source.GetByPath(ctx, f.Path)
		if err != nil {
			return count, fmt.Errorf("load %s: %w", f.Path, err)
		}
		rec.File.ID = 0
		if err := dest.ReplaceFile(ctx, rec); err != nil {
			return count, fmt.Errorf("store %s: %w", f.Path, err)
		}
		count++
		log.Debug("transferred", log.String("path", f.Path))
	}
	return count, nil
}

