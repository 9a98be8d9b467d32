package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/newthinker/compass/internal/app"
	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/dataset"
)

var (
	datasetScenario string
	datasetCount    int
	datasetKey      string
	datasetSymbol   string
	datasetFrom     string
	datasetTo       string
	datasetInterval string
	datasetPrefix   string
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Manage stored candle datasets",
}

var datasetGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Synthesize a scenario dataset and store it",
	RunE:  runDatasetGenerate,
}

var datasetFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch real history and store it as a dataset",
	RunE:  runDatasetFetch,
}

var datasetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored dataset keys",
	RunE:  runDatasetList,
}

func init() {
	datasetGenerateCmd.Flags().StringVar(&datasetScenario, "scenario", "bullish",
		"scenario: bullish, bearish, sideways, oversold, golden-cross")
	datasetGenerateCmd.Flags().IntVar(&datasetCount, "candles", 400, "number of daily candles")
	datasetGenerateCmd.Flags().StringVar(&datasetKey, "key", "", "storage key, e.g. synth/bullish.json (required)")
	datasetGenerateCmd.MarkFlagRequired("key")

	datasetFetchCmd.Flags().StringVar(&datasetSymbol, "symbol", "", "symbol to fetch (required)")
	datasetFetchCmd.Flags().StringVar(&datasetFrom, "from", "", "start date YYYY-MM-DD (required)")
	datasetFetchCmd.Flags().StringVar(&datasetTo, "to", "", "end date YYYY-MM-DD (required)")
	datasetFetchCmd.Flags().StringVar(&datasetInterval, "interval", core.Interval1d, "candle interval")
	datasetFetchCmd.Flags().StringVar(&datasetKey, "key", "", "storage key (required)")
	datasetFetchCmd.MarkFlagRequired("symbol")
	datasetFetchCmd.MarkFlagRequired("from")
	datasetFetchCmd.MarkFlagRequired("to")
	datasetFetchCmd.MarkFlagRequired("key")

	datasetListCmd.Flags().StringVar(&datasetPrefix, "prefix", "", "key prefix filter")

	datasetCmd.AddCommand(datasetGenerateCmd, datasetFetchCmd, datasetListCmd)
	rootCmd.AddCommand(datasetCmd)
}

func runDatasetGenerate(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	a, err := app.New(cfg, log)
	if err != nil {
		return fmt.Errorf("building app: %w", err)
	}

	gen := dataset.NewGenerator(nil)
	var candles []core.Candle
	switch datasetScenario {
	case "bullish":
		candles = gen.Bullish(datasetCount)
	case "bearish":
		candles = gen.Bearish(datasetCount)
	case "sideways":
		candles = gen.Sideways(datasetCount)
	case "oversold":
		candles = gen.Oversold(datasetCount)
	case "golden-cross":
		candles = gen.GoldenCross(datasetCount)
	default:
		return fmt.Errorf("unknown scenario %q", datasetScenario)
	}

	if err := a.Datasets().Save(cmd.Context(), datasetKey, candles); err != nil {
		return fmt.Errorf("saving dataset: %w", err)
	}
	fmt.Printf("wrote %d candles to %s\n", len(candles), datasetKey)
	return nil
}

func runDatasetFetch(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	a, err := app.New(cfg, log)
	if err != nil {
		return fmt.Errorf("building app: %w", err)
	}

	from, err := time.Parse("2006-01-02", datasetFrom)
	if err != nil {
		return fmt.Errorf("invalid from date (expected YYYY-MM-DD): %w", err)
	}
	to, err := time.Parse("2006-01-02", datasetTo)
	if err != nil {
		return fmt.Errorf("invalid to date (expected YYYY-MM-DD): %w", err)
	}

	symbol := strings.ToUpper(strings.TrimSpace(datasetSymbol))
	candles, err := a.History(cmd.Context(), symbol, from, to, datasetInterval)
	if err != nil {
		return fmt.Errorf("fetching history: %w", err)
	}

	if err := a.Datasets().Save(cmd.Context(), datasetKey, candles); err != nil {
		return fmt.Errorf("saving dataset: %w", err)
	}
	fmt.Printf("wrote %d candles to %s\n", len(candles), datasetKey)
	return nil
}

func runDatasetList(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	a, err := app.New(cfg, log)
	if err != nil {
		return fmt.Errorf("building app: %w", err)
	}

	keys, err := a.Datasets().ListKeys(cmd.Context(), datasetPrefix)
	if err != nil {
		return fmt.Errorf("listing datasets: %w", err)
	}
	if len(keys) == 0 {
		fmt.Println("no datasets stored")
		return nil
	}
	for _, key := range keys {
		fmt.Println(key)
	}
	return nil
}
