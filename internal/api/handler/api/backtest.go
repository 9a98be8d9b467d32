package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/newthinker/compass/internal/api/job"
	"github.com/newthinker/compass/internal/api/response"
	"github.com/newthinker/compass/internal/backtest"
	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/metrics"
)

const backtestTimeout = 5 * time.Minute

// HistoryApp provides candle history for backtests, either a date range
// fetched from collectors or a stored dataset by key.
type HistoryApp interface {
	History(ctx context.Context, symbol string, from, to time.Time, interval string) ([]core.Candle, error)
	Dataset(ctx context.Context, key string) ([]core.Candle, error)
}

// BacktestRequest is the request body for starting a backtest. Either a
// from/to range or a dataset key supplies the candles.
type BacktestRequest struct {
	Symbol              string `json:"symbol"`
	From                string `json:"from,omitempty"`
	To                  string `json:"to,omitempty"`
	Dataset             string `json:"dataset,omitempty"`
	SignalFrequencyDays int    `json:"signal_frequency_days,omitempty"`
	OutcomeWindowDays   int    `json:"outcome_window_days,omitempty"`
	MinCandles          int    `json:"min_candles,omitempty"`
}

// BacktestHandler handles backtest API requests.
type BacktestHandler struct {
	jobStore *job.Store
	runner   *backtest.Runner
	history  HistoryApp
	metrics  *metrics.Registry
}

// NewBacktestHandler creates a new backtest handler. Metrics may be nil.
func NewBacktestHandler(jobStore *job.Store, runner *backtest.Runner, history HistoryApp, reg *metrics.Registry) *BacktestHandler {
	return &BacktestHandler{
		jobStore: jobStore,
		runner:   runner,
		history:  history,
		metrics:  reg,
	}
}

// Create starts a new backtest job and returns its ID.
func (h *BacktestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrInvalidInput, err))
		return
	}

	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	if req.Symbol == "" {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrInvalidInput, fmt.Errorf("symbol is required")))
		return
	}
	if req.Dataset == "" && (req.From == "" || req.To == "") {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrInvalidInput, fmt.Errorf("either dataset or from/to is required")))
		return
	}

	var from, to time.Time
	if req.Dataset == "" {
		var err error
		if from, err = parseDate(req.From); err != nil {
			response.Error(w, http.StatusBadRequest,
				core.WrapError(core.ErrInvalidInput, err))
			return
		}
		if to, err = parseDate(req.To); err != nil {
			response.Error(w, http.StatusBadRequest,
				core.WrapError(core.ErrInvalidInput, err))
			return
		}
		if !to.After(from) {
			response.Error(w, http.StatusBadRequest,
				core.WrapError(core.ErrInvalidInput, fmt.Errorf("to must be after from")))
			return
		}
	}

	cfg := backtest.DefaultConfig(req.Symbol)
	if req.SignalFrequencyDays > 0 {
		cfg.SignalFrequencyDays = req.SignalFrequencyDays
	}
	if req.OutcomeWindowDays > 0 {
		cfg.OutcomeWindowDays = req.OutcomeWindowDays
	}
	if req.MinCandles > 0 {
		cfg.MinCandlesForAnalysis = req.MinCandles
	}

	j := h.jobStore.Create("backtest")
	h.setJobsActive()

	go h.run(j.ID, req, cfg, from, to)

	response.JSON(w, http.StatusAccepted, map[string]any{
		"job_id": j.ID,
		"status": j.Status,
	})
}

// run executes the backtest and records the outcome on the job.
func (h *BacktestHandler) run(jobID string, req BacktestRequest, cfg backtest.Config, from, to time.Time) {
	defer h.setJobsActive()

	h.jobStore.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusRunning
	})

	ctx, cancel := context.WithTimeout(context.Background(), backtestTimeout)
	defer cancel()

	var candles []core.Candle
	var err error
	if req.Dataset != "" {
		candles, err = h.history.Dataset(ctx, req.Dataset)
	} else {
		candles, err = h.history.History(ctx, req.Symbol, from, to, cfg.Interval)
	}
	if err != nil {
		h.fail(jobID, core.WrapError(core.ErrBacktestFailed, err))
		return
	}

	result, err := h.runner.Run(ctx, candles, cfg)
	if err != nil {
		h.fail(jobID, core.WrapError(core.ErrBacktestFailed, err))
		return
	}

	h.jobStore.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusComplete
		j.Progress = 100
		j.Result = result
	})
}

func (h *BacktestHandler) fail(jobID string, err *core.Error) {
	h.jobStore.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusFailed
		j.Error = err
	})
}

func (h *BacktestHandler) setJobsActive() {
	if h.metrics != nil {
		h.metrics.SetJobsActive("backtest", h.jobStore.Active())
	}
}

// GetStatus returns the status of a backtest job.
func (h *BacktestHandler) GetStatus(w http.ResponseWriter, r *http.Request, jobID string) {
	j, err := h.jobStore.Get(jobID)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	resp := map[string]any{
		"job_id":   j.ID,
		"status":   j.Status,
		"progress": j.Progress,
	}

	if j.Status == job.StatusComplete {
		resp["result"] = j.Result
	}
	if j.Status == job.StatusFailed && j.Error != nil {
		resp["error"] = map[string]string{
			"code":    j.Error.Code,
			"message": j.Error.Message,
		}
	}

	response.JSON(w, http.StatusOK, resp)
}
