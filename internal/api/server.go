// Package api exposes the JSON API: analysis, candles, levels, cycle,
// signal history, async backtests, AI briefings and the watchlist.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihandler "github.com/newthinker/compass/internal/api/handler/api"
	"github.com/newthinker/compass/internal/api/job"
	"github.com/newthinker/compass/internal/api/middleware"
	"github.com/newthinker/compass/internal/api/response"
	"github.com/newthinker/compass/internal/backtest"
	"github.com/newthinker/compass/internal/metrics"
	"github.com/newthinker/compass/internal/storage/signal"
)

// App is the full surface the server needs from the application.
type App interface {
	apihandler.AnalysisApp
	apihandler.CandleApp
	apihandler.LevelApp
	apihandler.CycleApp
	apihandler.HistoryApp
	apihandler.WatchlistApp
}

// Config holds server configuration.
type Config struct {
	Host    string
	Port    int
	APIKey  string
	Version string
	MaxJobs int
	JobTTL  time.Duration
}

// Dependencies are the collaborators the server routes requests to.
// Briefing may be nil (no LLM configured); Metrics may be nil (disabled).
type Dependencies struct {
	App         App
	SignalStore signal.Store
	Runner      *backtest.Runner
	Briefing    apihandler.BriefingApp
	Metrics     *metrics.Registry
}

// Server is the HTTP server.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	jobs       *job.Store
	logger     *zap.Logger
	version    string
	startedAt  time.Time
}

// NewServer creates the server and wires all routes.
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if deps.App == nil {
		return nil, fmt.Errorf("api: app is required")
	}
	if deps.SignalStore == nil {
		return nil, fmt.Errorf("api: signal store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.MaxJobs <= 0 {
		cfg.MaxJobs = 100
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = time.Hour
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	mux := http.NewServeMux()
	s := &Server{
		mux:       mux,
		jobs:      job.NewStore(cfg.MaxJobs, cfg.JobTTL),
		logger:    logger,
		version:   cfg.Version,
		startedAt: time.Now(),
	}

	var handler http.Handler = mux
	handler = middleware.APIKeyAuth(cfg.APIKey)(handler)
	handler = metrics.LoggingMiddleware(logger)(handler)
	if deps.Metrics != nil {
		handler = metrics.HTTPMiddleware(deps.Metrics)(handler)
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes(deps)
	return s, nil
}

func (s *Server) setupRoutes(deps Dependencies) {
	analysisH := apihandler.NewAnalysisHandler(deps.App)
	candlesH := apihandler.NewCandlesHandler(deps.App)
	levelsH := apihandler.NewLevelsHandler(deps.App)
	cycleH := apihandler.NewCycleHandler(deps.App)
	signalsH := apihandler.NewSignalsHandler(deps.SignalStore)
	watchlistH := apihandler.NewWatchlistHandler(deps.App)
	briefingH := apihandler.NewBriefingHandler(deps.Briefing)

	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)

	s.mux.HandleFunc("GET /api/v1/analysis/{symbol}", func(w http.ResponseWriter, r *http.Request) {
		analysisH.Get(w, r, r.PathValue("symbol"))
	})
	s.mux.HandleFunc("POST /api/v1/analysis/trigger", analysisH.Trigger)

	s.mux.HandleFunc("GET /api/v1/candles/{symbol}", func(w http.ResponseWriter, r *http.Request) {
		candlesH.Get(w, r, r.PathValue("symbol"))
	})
	s.mux.HandleFunc("GET /api/v1/levels/{symbol}", func(w http.ResponseWriter, r *http.Request) {
		levelsH.Get(w, r, r.PathValue("symbol"))
	})
	s.mux.HandleFunc("GET /api/v1/cycle", cycleH.Get)

	s.mux.HandleFunc("GET /api/v1/signals", signalsH.List)
	s.mux.HandleFunc("GET /api/v1/signals/stats", signalsH.Stats)
	s.mux.HandleFunc("GET /api/v1/signals/{id}", func(w http.ResponseWriter, r *http.Request) {
		signalsH.GetByID(w, r, r.PathValue("id"))
	})

	if deps.Runner != nil {
		backtestH := apihandler.NewBacktestHandler(s.jobs, deps.Runner, deps.App, deps.Metrics)
		s.mux.HandleFunc("POST /api/v1/backtest", backtestH.Create)
		s.mux.HandleFunc("GET /api/v1/backtest/{job}", func(w http.ResponseWriter, r *http.Request) {
			backtestH.GetStatus(w, r, r.PathValue("job"))
		})
	}

	s.mux.HandleFunc("GET /api/v1/briefing", briefingH.Get)

	s.mux.HandleFunc("GET /api/v1/watchlist", watchlistH.List)
	s.mux.HandleFunc("POST /api/v1/watchlist", watchlistH.Add)
	s.mux.HandleFunc("DELETE /api/v1/watchlist/{symbol}", func(w http.ResponseWriter, r *http.Request) {
		watchlistH.Remove(w, r, r.PathValue("symbol"))
	})

	if deps.Metrics != nil {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(deps.Metrics.Registry, promhttp.HandlerOpts{}))
	}
}

// Handler returns the server's root handler, including middleware.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server and the job store's TTL cleanup. It blocks
// until the server stops.
func (s *Server) Start(ctx context.Context) error {
	s.jobs.StartCleanup(ctx, time.Minute)

	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.startedAt).Round(time.Second).String(),
	})
}
