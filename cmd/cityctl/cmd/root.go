package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/EmpoweredVote/EV-CityMap/internal/app"
	"github.com/EmpoweredVote/EV-CityMap/internal/config"
	"github.com/EmpoweredVote/EV-CityMap/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfgPath  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:          "cityctl",
	Short:        "Calgary building map operator tool",
	Long:         `cityctl fetches, filters and translates queries against the building footprint source without running the server.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "conf", "c", "", "config file (YAML); overrides CONFIG_FILE")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level for stderr output")
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}

func loadApp() (*app.App, error) {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()
	if cfgPath != "" {
		os.Setenv("CONFIG_FILE", cfgPath)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Setup(logLevel, cfg.LogFormat)
	for _, w := range cfg.Warnings {
		logger.L().Warn().Str("warning", w).Msg("config value ignored")
	}
	return app.New(cfg)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
