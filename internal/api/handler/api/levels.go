package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/newthinker/compass/internal/api/response"
	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/level"
)

// LevelApp defines the level access needed from app.App.
type LevelApp interface {
	Levels(ctx context.Context, symbol string) (*level.Set, error)
}

// LevelsHandler serves support/resistance levels for a symbol.
type LevelsHandler struct {
	app LevelApp
}

// NewLevelsHandler creates a new levels handler.
func NewLevelsHandler(app LevelApp) *LevelsHandler {
	return &LevelsHandler{app: app}
}

// Get returns the level set for a symbol.
func (h *LevelsHandler) Get(w http.ResponseWriter, r *http.Request, symbol string) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrInvalidInput, nil))
		return
	}

	levels, err := h.app.Levels(r.Context(), symbol)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	response.JSON(w, http.StatusOK, levels)
}
