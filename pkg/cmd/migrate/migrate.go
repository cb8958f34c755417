package migrate

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/simresults-indexer/log"
	"github.com/mpapenbr/simresults-indexer/pkg/cmd/cmdutil"
)

func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "performs database migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startMigration(cmd.Context(), cmd)
		},
	}
	return cmd
}

// startMigration opens the store, which applies pending migrations, and
// reports the resulting schema version.
func startMigration(ctx context.Context, cmd *cobra.Command) error {
	sqlLogger := cmdutil.SetupLogging()
	s, err := cmdutil.OpenStore(ctx, sqlLogger, true)
	if err != nil {
		log.Error("Could not migrate", log.ErrorField(err))
		return err
	}
	defer s.Close()
	version, dirty, err := s.SchemaVersion()
	if err != nil {
		return err
	}
	log.Info("Migration done",
		log.String("location", s.Location()),
		log.Uint64("version", uint64(version)),
		log.Bool("dirty", dirty))
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
	return nil
}
