package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/newthinker/compass/internal/app"
	"github.com/newthinker/compass/internal/backtest"
	"github.com/newthinker/compass/internal/core"
)

var (
	backtestSymbol     string
	backtestFrom       string
	backtestTo         string
	backtestDataset    string
	backtestFrequency  int
	backtestWindow     int
	backtestMinCandles int
	backtestDCA        bool
	backtestDCAAmount  float64
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay history through the analysis pipeline",
	Long: `Replay a candle history through the analysis pipeline under
point-in-time discipline and report prediction accuracy. With --dca the
signal replay is swapped for a fixed / smart / lump-sum DCA comparison.`,
	RunE: runBacktestCmd,
}

func init() {
	backtestCmd.Flags().StringVar(&backtestSymbol, "symbol", "", "symbol to backtest (required)")
	backtestCmd.Flags().StringVar(&backtestFrom, "from", "", "start date YYYY-MM-DD")
	backtestCmd.Flags().StringVar(&backtestTo, "to", "", "end date YYYY-MM-DD")
	backtestCmd.Flags().StringVar(&backtestDataset, "dataset", "", "stored dataset key instead of a date range")
	backtestCmd.Flags().IntVar(&backtestFrequency, "frequency", 0, "days between decision points")
	backtestCmd.Flags().IntVar(&backtestWindow, "window", 0, "outcome window in days")
	backtestCmd.Flags().IntVar(&backtestMinCandles, "min-candles", 0, "history floor before the first decision point")
	backtestCmd.Flags().BoolVar(&backtestDCA, "dca", false, "compare DCA strategies instead of signal replay")
	backtestCmd.Flags().Float64Var(&backtestDCAAmount, "dca-amount", 100, "weekly DCA budget in quote currency")

	backtestCmd.MarkFlagRequired("symbol")
	rootCmd.AddCommand(backtestCmd)
}

func runBacktestCmd(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	a, err := app.New(cfg, log)
	if err != nil {
		return fmt.Errorf("building app: %w", err)
	}

	symbol := strings.ToUpper(strings.TrimSpace(backtestSymbol))
	ctx := cmd.Context()

	var candles []core.Candle
	switch {
	case backtestDataset != "":
		candles, err = a.Dataset(ctx, backtestDataset)
		if err != nil {
			return fmt.Errorf("loading dataset %s: %w", backtestDataset, err)
		}
	case backtestFrom != "" && backtestTo != "":
		from, err := time.Parse("2006-01-02", backtestFrom)
		if err != nil {
			return fmt.Errorf("invalid from date (expected YYYY-MM-DD): %w", err)
		}
		to, err := time.Parse("2006-01-02", backtestTo)
		if err != nil {
			return fmt.Errorf("invalid to date (expected YYYY-MM-DD): %w", err)
		}
		if !to.After(from) {
			return fmt.Errorf("end date must be after start date")
		}
		candles, err = a.History(ctx, symbol, from, to, core.Interval1d)
		if err != nil {
			return fmt.Errorf("fetching history: %w", err)
		}
	default:
		return fmt.Errorf("either --dataset or both --from and --to are required")
	}

	if backtestDCA {
		return runDCAComparison(symbol, candles)
	}

	bcfg := backtest.DefaultConfig(symbol)
	if backtestFrequency > 0 {
		bcfg.SignalFrequencyDays = backtestFrequency
	}
	if backtestWindow > 0 {
		bcfg.OutcomeWindowDays = backtestWindow
	}
	if backtestMinCandles > 0 {
		bcfg.MinCandlesForAnalysis = backtestMinCandles
	}

	result, err := a.BacktestRunner().Run(ctx, candles, bcfg)
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	printBacktestResult(result)
	return nil
}

func printBacktestResult(result *backtest.Result) {
	fmt.Println("=== COMPASS Backtest ===")
	fmt.Printf("Symbol:    %s\n", result.Symbol)
	fmt.Printf("Periods:   %d (every %dd, window %dd)\n",
		result.Periods, result.Config.SignalFrequencyDays, result.Config.OutcomeWindowDays)
	fmt.Printf("Duration:  %s\n", result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond))
	fmt.Println()

	r := result.Report
	fmt.Printf("Predictions:   %d (%d correct, %d profitable)\n",
		r.TotalPredictions, r.CorrectPredictions, r.ProfitablePredictions)
	fmt.Printf("Accuracy:      %.1f%%\n", r.OverallAccuracy*100)
	fmt.Printf("Win rate:      %.1f%%\n", r.WinRate*100)
	for kind, count := range r.SignalCounts {
		fmt.Printf("  %-12s %3d calls, %.1f%% accurate\n", kind, count, r.SignalAccuracy[kind]*100)
	}
	fmt.Println()

	s := result.Stats
	fmt.Printf("Trades:        %d (%d wins, %d losses)\n", s.Trades, s.WinningTrades, s.LosingTrades)
	fmt.Printf("Total return:  %.2f%%\n", s.TotalReturnPct)
	fmt.Printf("Max drawdown:  %.2f%%\n", s.MaxDrawdownPct)
	fmt.Printf("Sharpe:        %.2f\n", s.SharpeRatio)
}

func runDCAComparison(symbol string, candles []core.Candle) error {
	dca := backtest.NewDCABacktester()
	comparison, err := dca.Compare(symbol, candles, backtestDCAAmount, nil)
	if err != nil {
		return fmt.Errorf("DCA comparison failed: %w", err)
	}

	fmt.Println("=== COMPASS DCA Comparison ===")
	fmt.Printf("Symbol:  %s\n", comparison.Symbol)
	fmt.Printf("Period:  %s to %s\n",
		comparison.From.Format("2006-01-02"), comparison.To.Format("2006-01-02"))
	fmt.Println()

	for _, r := range comparison.Results {
		fmt.Printf("%-10s invested %.2f, final %.2f (%.2f%%, annualized %.2f%%, maxDD %.2f%%, sharpe %.2f, %d buys)\n",
			r.Strategy, r.Invested, r.FinalValue, r.ReturnPct,
			r.AnnualizedReturnPct, r.MaxDrawdownPct, r.SharpeRatio, r.BuyCount)
	}
	fmt.Printf("\nBest: %s\n", comparison.Best)
	return nil
}
