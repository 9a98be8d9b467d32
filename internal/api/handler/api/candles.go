package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/newthinker/compass/internal/api/response"
	"github.com/newthinker/compass/internal/core"
)

const (
	defaultCandleLimit = 100
	maxCandleLimit     = 1000
)

// CandleApp defines the candle access needed from app.App.
type CandleApp interface {
	Candles(ctx context.Context, symbol, interval string, limit int) ([]core.Candle, error)
}

// CandlesHandler serves recent candles for a symbol.
type CandlesHandler struct {
	app CandleApp
}

// NewCandlesHandler creates a new candles handler.
func NewCandlesHandler(app CandleApp) *CandlesHandler {
	return &CandlesHandler{app: app}
}

// Get returns the most recent candles for a symbol.
// Query parameters: interval (default 1d), limit (default 100, max 1000).
func (h *CandlesHandler) Get(w http.ResponseWriter, r *http.Request, symbol string) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrInvalidInput, nil))
		return
	}

	interval := r.URL.Query().Get("interval")
	if interval == "" {
		interval = core.Interval1d
	}

	limit := defaultCandleLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.Error(w, http.StatusBadRequest,
				core.WrapError(core.ErrInvalidInput, err))
			return
		}
		limit = n
	}
	if limit > maxCandleLimit {
		limit = maxCandleLimit
	}

	candles, err := h.app.Candles(r.Context(), symbol, interval, limit)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"symbol":   symbol,
		"interval": interval,
		"candles":  candles,
		"count":    len(candles),
	})
}
