package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/newthinker/compass/internal/app"
)

var (
	analyzeJSON bool
	analyzeAI   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <symbol>",
	Short: "Run a one-off analysis for a symbol",
	Long:  "Fetch history, run the full pipeline and print the report.",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the raw report as JSON")
	analyzeCmd.Flags().BoolVar(&analyzeAI, "ai", false, "include an LLM briefing (needs a configured provider)")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	a, err := app.New(cfg, log)
	if err != nil {
		return fmt.Errorf("building app: %w", err)
	}

	symbol := strings.ToUpper(strings.TrimSpace(args[0]))
	ctx := cmd.Context()

	report, err := a.Analyze(ctx, symbol)
	if err != nil {
		return fmt.Errorf("analyzing %s: %w", symbol, err)
	}

	if analyzeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		fmt.Printf("=== %s @ %.2f (%s) ===\n", report.Symbol, report.Price,
			report.Time.Format("2006-01-02 15:04"))
		if s := report.Score; s != nil {
			fmt.Printf("Score:      %.1f (%s, confidence %.0f%%, risk %s)\n",
				s.Score, s.Kind, s.Confidence, s.Risk)
			for _, c := range s.Components {
				fmt.Printf("  %-12s %6.1f  %s\n", c.Name, c.Score, c.Detail)
			}
		}
		if c := report.Cycle; c != nil {
			fmt.Printf("Cycle:      %s (%.0f%%) %s\n", c.Phase, c.Confidence, c.Description)
		}
		if l := report.Levels; l != nil {
			if l.NearestSupport != nil {
				fmt.Printf("Support:    %.2f\n", l.NearestSupport.Price)
			}
			if l.NearestResistance != nil {
				fmt.Printf("Resistance: %.2f\n", l.NearestResistance.Price)
			}
		}
		for _, p := range report.Patterns {
			fmt.Printf("Pattern:    %s (%s, strength %d)\n", p.Name, p.Direction, p.Strength)
		}
		if sig := report.Signal; sig != nil {
			fmt.Printf("Signal:     %s — %s\n", sig.Kind, sig.Reason)
		}
	}

	if analyzeAI {
		commentary, err := a.Briefing(ctx, symbol)
		if err != nil {
			return fmt.Errorf("briefing %s: %w", symbol, err)
		}
		fmt.Printf("\n=== Briefing (%s) ===\n%s\n", commentary.Assessment, commentary.Summary)
		for _, risk := range commentary.KeyRisks {
			fmt.Printf("  risk: %s\n", risk)
		}
		if commentary.SuggestedAction != "" {
			fmt.Printf("  action: %s\n", commentary.SuggestedAction)
		}
	}

	return nil
}
