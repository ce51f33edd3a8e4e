package cmd

import (
	"github.com/spf13/cobra"
)

var buildingDataset string

// buildingCmd prints a single building
var buildingCmd = &cobra.Command{
	Use:   "building <struct_id>",
	Short: "Look up one building by structure id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		dataset := a.Config.HeightDataset
		if buildingDataset != "" {
			dataset = buildingDataset
		}
		b, err := a.Pipeline.FetchByID(cmd.Context(), dataset, args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), b)
	},
}

func init() {
	buildingCmd.Flags().StringVar(&buildingDataset, "dataset", "", "footprint dataset id (default from config)")
	rootCmd.AddCommand(buildingCmd)
}
