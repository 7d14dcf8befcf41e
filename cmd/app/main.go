package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"catalytics/internal/di"
	"catalytics/internal/domain/models"
	"catalytics/pkg/config"
	"catalytics/pkg/util"

	"github.com/spf13/cobra"
)

var (
	configPath     string
	ingestCategory string
	ingestDate     string
)

var rootCmd = &cobra.Command{
	Use:   "catalytics",
	Short: "Crypto market index analytics service",
	Long: `catalytics ingests daily market-cap snapshots per category and serves
index, relative strength and correlation analytics over HTTP.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, consumers and scheduled ingestion",
	RunE:  runServe,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest one category snapshot and exit",
	Long: `Fetch the current market listing for a category and store it as the
snapshot of the given day.

Examples:
  catalytics ingest --category coingecko
  catalytics ingest --category coingecko-memes --date 2024-03-01`,
	RunE: runIngest,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "config file path")

	ingestCmd.Flags().StringVar(&ingestCategory, "category", "", "category to ingest (coingecko|coingecko-sol-memes|coingecko-memes)")
	ingestCmd.Flags().StringVar(&ingestDate, "date", "", "snapshot day as YYYY-MM-DD (default: today UTC)")
	_ = ingestCmd.MarkFlagRequired("category")

	rootCmd.AddCommand(serveCmd, ingestCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("app initialization failed: %w", err)
	}
	defer cleanup()

	return app.Run(cmd.Context())
}

func runIngest(cmd *cobra.Command, _ []string) error {
	category, err := models.ParseCategory(ingestCategory)
	if err != nil {
		return err
	}
	var day time.Time
	if ingestDate != "" {
		if day, err = util.ParseDay(ingestDate); err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
	}

	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("app initialization failed: %w", err)
	}
	defer cleanup()

	report, err := app.Ingest(cmd.Context(), category, day)
	if err != nil {
		return fmt.Errorf("ingest %s: %w", category, err)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
