package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/compass/internal/config"
	"github.com/newthinker/compass/internal/logger"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "compass",
	Short: "COMPASS - crypto market analysis and signal pipeline",
	Long: `COMPASS monitors crypto markets, runs a multi-stage analysis pipeline
(indicators, levels, patterns, cycle phase, composite score), emits trading
signals, tracks their outcomes and serves everything over a JSON API.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
}

// setup loads and validates the configuration and builds the logger.
func setup() (*config.Config, *zap.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config validation failed: %w", err)
	}

	var log *zap.Logger
	if debug {
		log = logger.Must(true)
	} else {
		log, err = logger.FromConfig(cfg.Logging.Level, cfg.Logging.Format)
		if err != nil {
			return nil, nil, fmt.Errorf("building logger: %w", err)
		}
	}

	if cfgFile == "" {
		log.Warn("no config file specified, using defaults")
	}
	return cfg, log, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
