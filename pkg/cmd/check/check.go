package check

import (
	"github.com/spf13/cobra"
)

func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "commands to check result files without storing them",
	}

	cmd.AddCommand(NewCheckFolderCmd())
	cmd.AddCommand(NewCheckFileCmd())

	return cmd
}
