package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "medinsights",
	Short: "MedInsights - medicine stock, sales and demand forecasting backend",
	Long: `MedInsights Unified CLI

Tracks per-district medicine stock and sales, and serves demand
forecasts through a three-tier cascade: stored entries, the external
Prophet predictor, and a historical trend model.

Usage:
  go run ./cmd/medinsights [command]

Examples:
  go run ./cmd/medinsights api
  go run ./cmd/medinsights scheduler
  go run ./cmd/medinsights refresh-forecasts --days 30
  go run ./cmd/medinsights migrate
  go run ./cmd/medinsights status`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
