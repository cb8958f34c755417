package settings

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mpapenbr/simresults-indexer/pkg/config"
)

var sessionTypes string

func NewSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "shows or changes the stored settings",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "shows the effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.LoadSettings(settingsFile())
			if err != nil {
				return err
			}
			return show(cmd.OutOrStdout(), config.Resolve(s))
		},
	})
	set := &cobra.Command{
		Use:   "set",
		Short: "stores --pilots, --results-folder, --class and --session-types",
		RunE: func(cmd *cobra.Command, args []string) error {
			file := settingsFile()
			s, err := config.LoadSettings(file)
			if err != nil {
				return err
			}
			s = config.Resolve(s)
			if cmd.Flags().Changed("session-types") {
				s.SessionTypes = splitList(sessionTypes)
			}
			if err := config.SaveSettings(file, s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "settings written to %s\n", file)
			return show(cmd.OutOrStdout(), s)
		},
	}
	set.Flags().StringVar(&sessionTypes, "session-types", "",
		"comma separated session types used for statistics (race,qualifying,practice,warmup)")
	cmd.AddCommand(set)
	return cmd
}

func settingsFile() string {
	if config.SettingsFile != "" {
		return config.SettingsFile
	}
	return config.DefaultSettingsFile()
}

func show(w io.Writer, s *config.Settings) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}

func splitList(s string) []string {
	ret := []string{}
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			ret = append(ret, strings.ToLower(item))
		}
	}
	return ret
}
