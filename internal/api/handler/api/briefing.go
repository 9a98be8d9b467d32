package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/newthinker/compass/internal/ai"
	"github.com/newthinker/compass/internal/api/response"
	"github.com/newthinker/compass/internal/core"
)

// BriefingApp produces AI commentary for one symbol.
type BriefingApp interface {
	Briefing(ctx context.Context, symbol string) (*ai.Commentary, error)
}

// BriefingHandler serves LLM market briefings. A nil app means no LLM
// provider is configured; requests then return 503.
type BriefingHandler struct {
	app BriefingApp
}

// NewBriefingHandler creates a new briefing handler.
func NewBriefingHandler(app BriefingApp) *BriefingHandler {
	return &BriefingHandler{app: app}
}

// Get returns a market briefing. The symbol query parameter defaults to
// BTCUSDT.
func (h *BriefingHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.app == nil {
		response.Error(w, http.StatusServiceUnavailable,
			core.WrapError(core.ErrLLMFailed, nil))
		return
	}

	symbol := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol")))
	if symbol == "" {
		symbol = "BTCUSDT"
	}

	commentary, err := h.app.Briefing(r.Context(), symbol)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"symbol":     symbol,
		"commentary": commentary,
	})
}
