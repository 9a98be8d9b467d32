package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/compass/internal/api"
	"github.com/newthinker/compass/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the analysis loop and the JSON API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	a, err := app.New(cfg, log)
	if err != nil {
		return fmt.Errorf("building app: %w", err)
	}

	server, err := api.NewServer(api.Config{
		Host:    cfg.Server.Host,
		Port:    cfg.Server.Port,
		APIKey:  cfg.Server.APIKey,
		Version: Version,
		MaxJobs: cfg.Server.MaxJobs,
		JobTTL:  time.Duration(cfg.Server.JobTTLHours) * time.Hour,
	}, api.Dependencies{
		App:         a,
		SignalStore: a.SignalStore(),
		Runner:      a.BacktestRunner(),
		Briefing:    a,
		Metrics:     a.Metrics(),
	}, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	log.Info("starting COMPASS",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.Strings("watchlist", a.GetWatchlist()),
	)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	go func() {
		if err := a.Start(ctx); err != nil && err != context.Canceled {
			log.Error("analysis loop stopped", zap.Error(err))
		}
	}()
	go func() {
		if err := server.Start(ctx); err != nil {
			log.Error("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}
