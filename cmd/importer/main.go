package main

import (
	"fmt"
	"os"

	"dialysisfind/config"
	"dialysisfind/location"
	"dialysisfind/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	verbose       bool
	configDir     string
	locationsFile string

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "importer",
	Short: "Deduplicate scraped dialysis centers and load them into PostgreSQL",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configDir)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger, err = logging.New(verbose || cfg.Debug)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", ".", "Directory holding config.yaml")
	rootCmd.PersistentFlags().StringVar(&locationsFile, "locations", "", "YAML state/city table (defaults to the built-in table)")

	rootCmd.AddCommand(dedupeCmd, importCmd, routesCmd)
}

// loadTable prefers the --locations flag, then LOCATIONS_FILE, then the
// built-in table.
func loadTable() (*location.Table, error) {
	path := locationsFile
	if path == "" {
		path = cfg.Locations.File
	}
	if path == "" {
		return location.DefaultTable(), nil
	}
	return location.LoadTable(path)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
