package cmd

import (
	"strings"

	"github.com/EmpoweredVote/EV-CityMap/internal/nlquery"
	"github.com/spf13/cobra"
)

var translateOffline bool

// translateCmd prints the filter derived from a free-text query
var translateCmd = &cobra.Command{
	Use:   "translate <query...>",
	Short: "Translate a natural-language query into a filter",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")

		t := nlquery.NewTranslator(nil)
		if !translateOffline {
			a, err := loadApp()
			if err != nil {
				return err
			}
			t = a.Translator
		}

		return printJSON(cmd.OutOrStdout(), t.Translate(cmd.Context(), query))
	},
}

func init() {
	translateCmd.Flags().BoolVar(&translateOffline, "offline", false, "use the fallback parser only")
	rootCmd.AddCommand(translateCmd)
}
