// Package main provides the showroom CLI entrypoint.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/spherical-ai/spherical/libs/showroom/internal/app"
	"github.com/spherical-ai/spherical/libs/showroom/internal/config"
	"github.com/spherical-ai/spherical/libs/showroom/internal/observability"
)

var (
	// Global flags
	cfgFile    string
	outputJSON bool
	verbose    bool
	noColor    bool

	cfg    *config.Config
	logger *observability.Logger
	ui     *UI
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "showroom-cli",
	Short: "Showroom CLI for catalog administration and chat testing",
	Long: `Showroom CLI manages the electric vehicle catalog behind the showroom API.

Use this tool to:
- Seed the catalog from a JSON export
- Browse and filter vehicles the way the storefront does
- Print side-by-side comparisons
- Talk to the customer chat through the CRM API

All read commands support --json for automation.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		path := cfgFile
		if path == "" {
			path = os.Getenv("CONFIG_PATH")
		}

		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		cfg.Observability.LogFormat = "console"
		if outputJSON {
			cfg.Observability.LogFormat = "json"
		}
		// Logs share the terminal with command output, keep them quiet.
		cfg.Observability.LogLevel = "warn"
		if verbose {
			cfg.Observability.LogLevel = "debug"
		}
		logger = app.NewLogger(cfg, "showroom-cli")
		ui = NewUI(os.Stdout, os.Stderr, outputJSON, noColor)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: CONFIG_PATH or env vars)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newSeedCmd())
	rootCmd.AddCommand(newVehiclesCmd())
	rootCmd.AddCommand(newCatalogCmd())
	rootCmd.AddCommand(newCompareCmd())
	rootCmd.AddCommand(newChatCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if ui != nil {
			ui.Error("%v", err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
