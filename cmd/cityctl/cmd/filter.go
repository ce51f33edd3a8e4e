package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/EmpoweredVote/EV-CityMap/internal/filters"
	"github.com/spf13/cobra"
)

var filterSpec string

// filterCmd fetches the downtown buildings and applies a filter list
var filterCmd = &cobra.Command{
	Use:     "filter",
	Short:   "Apply a JSON filter list to the downtown buildings",
	Example: `  cityctl filter --filters '[{"attribute":"height_ft","operator":">","value":100}]'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var fs []filters.Filter
		if err := json.Unmarshal([]byte(filterSpec), &fs); err != nil {
			return fmt.Errorf("parse --filters: %w", err)
		}

		a, err := loadApp()
		if err != nil {
			return err
		}
		opts := a.APIOptions()
		env, err := a.Pipeline.Fetch(cmd.Context(), opts.HeightDataset, opts.DatasetLimit, opts.Downtown, opts.ZoningDataset)
		if err != nil {
			return err
		}

		out := filters.Apply(env.Buildings, fs)
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"count":     len(out),
			"filters":   fs,
			"buildings": out,
		})
	},
}

func init() {
	filterCmd.Flags().StringVar(&filterSpec, "filters", "[]", "JSON array of {attribute, operator, value}")
	rootCmd.AddCommand(filterCmd)
}
