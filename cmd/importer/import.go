package main

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"dialysisfind/database"
	"dialysisfind/location"
	"dialysisfind/scrape"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	importIn      string
	importReplace bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load merged <state>.json files into the centers table",
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := loadTable()
		if err != nil {
			return err
		}
		db, err := database.Connect(cmd.Context(), cfg.Database.URL, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := database.Migrate(cmd.Context(), db); err != nil {
			return err
		}
		total, err := runImport(cmd.Context(), db, importIn, importReplace, table, logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d centers\n", total)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importIn, "in", "data/merged", "Directory of merged <state>.json files")
	importCmd.Flags().BoolVar(&importReplace, "replace", false, "Delete each state's stored centers before loading it")
}

// runImport loads each merged file in its own transaction. The state is
// taken from the file name. Without replace, running it twice stores every
// center again under a suffixed slug.
func runImport(ctx context.Context, db *sql.DB, inDir string, replace bool, table *location.Table, logger *zap.Logger) (int, error) {
	write := database.InsertCenters
	if replace {
		write = database.ReplaceCenters
	}

	files, err := scrape.StateFiles(inDir)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, file := range files {
		centers, err := scrape.ReadCenters(file)
		if err != nil {
			return total, err
		}
		state := scrape.StateFromFilename(table, file)
		n, err := write(ctx, db, state, centers)
		if err != nil {
			return total, fmt.Errorf("import %s: %w", filepath.Base(file), err)
		}
		logger.Info("Imported state", zap.String("state", state), zap.Int("centers", n))
		total += n
	}
	return total, nil
}
