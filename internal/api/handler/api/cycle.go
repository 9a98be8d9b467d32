package api

import (
	"context"
	"net/http"

	"github.com/newthinker/compass/internal/api/response"
	"github.com/newthinker/compass/internal/cycle"
)

// CycleApp defines the cycle access needed from app.App.
type CycleApp interface {
	Cycle(ctx context.Context) (*cycle.Info, error)
}

// CycleHandler serves the BTC market cycle assessment.
type CycleHandler struct {
	app CycleApp
}

// NewCycleHandler creates a new cycle handler.
func NewCycleHandler(app CycleApp) *CycleHandler {
	return &CycleHandler{app: app}
}

// Get returns the current cycle assessment.
func (h *CycleHandler) Get(w http.ResponseWriter, r *http.Request) {
	info, err := h.app.Cycle(r.Context())
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	response.JSON(w, http.StatusOK, info)
}
