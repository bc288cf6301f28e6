package main

import (
	"encoding/json"
	"io"

	"dialysisfind/location"

	"github.com/spf13/cobra"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print every static location page as a JSON line",
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := loadTable()
		if err != nil {
			return err
		}
		return writeRoutes(cmd.OutOrStdout(), table)
	},
}

func writeRoutes(w io.Writer, table *location.Table) error {
	enc := json.NewEncoder(w)
	for _, p := range table.GenerateAllLocationParams() {
		if err := enc.Encode(p); err != nil {
			return err
		}
	}
	return nil
}
