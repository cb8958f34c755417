/*
	Copyright 2023 Markus Papenbrock
*/

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	checkCmd "github.com/mpapenbr/simresults-indexer/pkg/cmd/check"
	clientCmd "github.com/mpapenbr/simresults-indexer/pkg/cmd/client"
	indexCmd "github.com/mpapenbr/simresults-indexer/pkg/cmd/index"
	migrateCmd "github.com/mpapenbr/simresults-indexer/pkg/cmd/migrate"
	queryCmd "github.com/mpapenbr/simresults-indexer/pkg/cmd/query"
	serverCmd "github.com/mpapenbr/simresults-indexer/pkg/cmd/server"
	settingsCmd "github.com/mpapenbr/simresults-indexer/pkg/cmd/settings"
	statsCmd "github.com/mpapenbr/simresults-indexer/pkg/cmd/stats"
	transferCmd "github.com/mpapenbr/simresults-indexer/pkg/cmd/transfer"
	"github.com/mpapenbr/simresults-indexer/pkg/config"
	"github.com/mpapenbr/simresults-indexer/pkg/scan"
	"github.com/mpapenbr/simresults-indexer/version"
)

const envPrefix = "SRI"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "sri",
	Short:   "Indexes and analyses race result files",
	Long:    ``,
	Version: version.FullVersion,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:funlen // flag definitions
func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.sri.yml)")

	rootCmd.PersistentFlags().StringVar(&config.DB, "db",
		defaultDB(),
		"storage location: sqlite file, :memory: or postgresql:// url")
	rootCmd.PersistentFlags().StringVar(&config.SettingsFile, "settings",
		"",
		"settings file (default is $HOME/.sri-settings.json)")
	rootCmd.PersistentFlags().StringVar(&config.ResultsFolder, "results-folder",
		"",
		"folder containing the result files (overrides settings)")
	rootCmd.PersistentFlags().StringVar(&config.PilotNames, "pilots",
		"",
		"comma separated pilot names (overrides settings)")
	rootCmd.PersistentFlags().StringVar(&config.SelectedClass, "class",
		"",
		"vehicle class for vehicle statistics (overrides settings)")
	rootCmd.PersistentFlags().IntVar(&config.Workers, "workers",
		0,
		"number of parallel file readers (0: number of cpus)")
	rootCmd.PersistentFlags().StringVar(&config.FileExtension, "extension",
		scan.DefaultExtension,
		"extension of result files")
	rootCmd.PersistentFlags().StringVar(&config.WaitForServices,
		"wait-for-services",
		"15s",
		"Duration to wait for other services to be ready")
	rootCmd.PersistentFlags().StringVar(&config.LogLevel,
		"log-level",
		"info",
		"controls the log level (debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().StringVar(&config.SQLLogLevel,
		"sql-log-level",
		"info",
		"controls the log level for sql methods")
	rootCmd.PersistentFlags().StringVar(&config.LogFormat,
		"log-format",
		"text",
		"controls the log output format (json, text)")
	rootCmd.PersistentFlags().StringVar(&config.LogFilter,
		"log-filter",
		"",
		"zapfilter rules, e.g. \"*:* -debug:store\"")
	rootCmd.PersistentFlags().BoolVar(&config.EnableTelemetry,
		"enable-telemetry",
		false,
		"enables telemetry")
	rootCmd.PersistentFlags().StringVar(&config.TelemetryEndpoint,
		"telemetry-endpoint",
		"",
		"Endpoint that receives open telemetry data (empty: stderr)")
	rootCmd.PersistentFlags().StringVar(&config.NatsURL,
		"nats-url",
		"",
		"publish index events to this NATS server")
	rootCmd.PersistentFlags().StringVarP(&config.Query,
		"query",
		"q",
		"",
		"JSONPath expression applied to the output")
	rootCmd.PersistentFlags().StringVarP(&config.OutputFormat,
		"output",
		"o",
		"json",
		"output format for list and info (json, text)")

	// add commands here
	rootCmd.AddCommand(indexCmd.NewIndexCmd())
	rootCmd.AddCommand(indexCmd.NewPruneCmd())
	rootCmd.AddCommand(indexCmd.NewResetCmd())
	rootCmd.AddCommand(queryCmd.NewListCmd())
	rootCmd.AddCommand(queryCmd.NewShowCmd())
	rootCmd.AddCommand(queryCmd.NewDatesCmd())
	rootCmd.AddCommand(queryCmd.NewInfoCmd())
	rootCmd.AddCommand(statsCmd.NewStatsCmd())
	rootCmd.AddCommand(checkCmd.NewCheckCmd())
	rootCmd.AddCommand(settingsCmd.NewSettingsCmd())
	rootCmd.AddCommand(migrateCmd.NewMigrateCmd())
	rootCmd.AddCommand(transferCmd.NewTransferCmd())
	rootCmd.AddCommand(serverCmd.NewServerCmd())
	rootCmd.AddCommand(clientCmd.NewClientCmd())
}

// defaultDB is $HOME/.sri/index.db
func defaultDB() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "sri-index.db"
	}
	return filepath.Join(home, ".sri", "index.db")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".sri" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".sri")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	bindFlags(rootCmd, viper.GetViper())
	for _, cmd := range rootCmd.Commands() {
		bindFlags(cmd, viper.GetViper())
	}
}

// Bind each cobra flag to its associated viper configuration
// (config file and environment variable)
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		// Environment variables can't have dashes in them, so bind them to their
		// equivalent keys with underscores, e.g. --results-folder to SRI_RESULTS_FOLDER
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name,
				fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)); err != nil {
				fmt.Fprintf(os.Stderr, "Could not bind env var %s: %v", f.Name, err)
			}
		}
		// Apply the viper config value to the flag when the flag is not set and viper
		// has a value
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				fmt.Fprintf(os.Stderr, "Could set flag value for %s: %v", f.Name, err)
			}
		}
	})
}
