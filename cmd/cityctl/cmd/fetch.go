package cmd

import (
	"github.com/EmpoweredVote/EV-CityMap/internal/geo"
	"github.com/spf13/cobra"
)

var (
	fetchDataset string
	fetchLimit   int
	fetchZoning  string
	fetchNoBBox  bool
	bboxTop      string
	bboxBottom   string
	bboxLeft     string
	bboxRight    string
)

// fetchCmd prints the building envelope for a box
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch, normalize and print buildings as a JSON envelope",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		opts := a.APIOptions()

		dataset := opts.HeightDataset
		if fetchDataset != "" {
			dataset = fetchDataset
		}
		limit := opts.DatasetLimit
		if cmd.Flags().Changed("limit") {
			limit = fetchLimit
		}
		zoning := opts.ZoningDataset
		if fetchZoning != "" {
			zoning = fetchZoning
		}
		bbox := opts.Downtown
		if b, ok := geo.ParseBBox(bboxTop, bboxBottom, bboxLeft, bboxRight); ok {
			bbox = b
		}
		if fetchNoBBox {
			bbox = nil
		}

		env, err := a.Pipeline.Fetch(cmd.Context(), dataset, limit, bbox, zoning)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), env)
	},
}

func addBBoxFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&bboxTop, "top", "", "bbox top latitude")
	cmd.Flags().StringVar(&bboxBottom, "bottom", "", "bbox bottom latitude")
	cmd.Flags().StringVar(&bboxLeft, "left", "", "bbox left longitude")
	cmd.Flags().StringVar(&bboxRight, "right", "", "bbox right longitude")
}

func init() {
	fetchCmd.Flags().StringVar(&fetchDataset, "dataset", "", "footprint dataset id (default from config)")
	fetchCmd.Flags().IntVar(&fetchLimit, "limit", 0, "maximum buildings; 0 keeps all")
	fetchCmd.Flags().StringVar(&fetchZoning, "zoning", "", "zoning dataset id (default from config)")
	fetchCmd.Flags().BoolVar(&fetchNoBBox, "no-bbox", false, "disable bbox filtering")
	addBBoxFlags(fetchCmd)
	rootCmd.AddCommand(fetchCmd)
}
