package main

import (
	"log"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/i474232898/oura-data-handler/internal/config"
	"github.com/i474232898/oura-data-handler/internal/handler"
)

var cfg *config.AppConfig

var rootCmd = &cobra.Command{
	Use:   "oura-data-handler",
	Short: "Fetch, export, annotate and plot Oura ring data",
	Long: `Fetch Oura ring data from the API or local CSV exports, normalize it into
date-ordered tables, and export, annotate or chart it.

Configuration is read from the environment (and a .env file when present):
OURA_ACCESS_TOKEN, OURA_API_ADDRESS, OURA_DATA_PATHS, DUPLICATE_POLICY, ...

Examples:
  # Export one month of daily sleep scores
  oura-data-handler fetch --type daily_sleep --start 2024-01-01 --unit month

  # Chart readiness with change points from a local export
  oura-data-handler plot --type daily_readiness --source csv --start 2024-01-01 --unit year --trends --out readiness.png

  # Serve the HTTP API
  oura-data-handler serve`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		c, err := config.Load()
		if err != nil {
			return err
		}
		cfg = c
		return nil
	},
}

func main() {
	rootCmd.AddCommand(fetchCmd, loadCmd, plotCmd, sleepPhasesCmd, bedtimeCmd, heartRateCmd, serveCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Printf("ERROR: %v", err)
		os.Exit(1)
	}
}

// newHandler wires the API provider and the configured CSV exports.
func newHandler(rec handler.Recorder) (*handler.DataHandler, error) {
	// Shared HTTP client for outbound API calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	return handler.NewFromOptions(handler.Options{
		APIAddress:  cfg.APIAddress,
		AccessToken: cfg.AccessToken,
		DataPaths:   cfg.DataPaths,
		Duplicates:  cfg.Duplicates,
	}, httpClient, rec)
}
