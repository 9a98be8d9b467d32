package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/newthinker/compass/internal/analysis"
	"github.com/newthinker/compass/internal/api/response"
	"github.com/newthinker/compass/internal/core"
)

// AnalysisApp defines the interface needed from app.App.
type AnalysisApp interface {
	GetWatchlist() []string
	RunOnce(ctx context.Context)
	Analyze(ctx context.Context, symbol string) (*analysis.Report, error)
}

// AnalysisHandler handles analysis API requests.
type AnalysisHandler struct {
	app AnalysisApp
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(app AnalysisApp) *AnalysisHandler {
	return &AnalysisHandler{app: app}
}

// Get runs an on-demand analysis of one symbol and returns the full report.
func (h *AnalysisHandler) Get(w http.ResponseWriter, r *http.Request, symbol string) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrInvalidInput, nil))
		return
	}

	report, err := h.app.Analyze(r.Context(), symbol)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	response.JSON(w, http.StatusOK, report)
}

// Trigger runs an analysis cycle over the whole watchlist in the background.
func (h *AnalysisHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	watchlist := h.app.GetWatchlist()

	go h.app.RunOnce(context.Background())

	response.JSON(w, http.StatusAccepted, map[string]any{
		"triggered":     true,
		"symbols_count": len(watchlist),
	})
}
