package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/newthinker/compass/internal/api/response"
	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/cycle"
	"github.com/newthinker/compass/internal/level"
)

func TestCycleHandler_Get(t *testing.T) {
	app := &mockApp{
		cycleInfo: &cycle.Info{
			Phase:       cycle.PhaseBullRun,
			Confidence:  70,
			Description: "uptrend intact",
		},
	}
	handler := NewCycleHandler(app)

	req := httptest.NewRequest("GET", "/api/v1/cycle", nil)
	w := httptest.NewRecorder()

	handler.Get(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp response.SuccessResponse
	json.Unmarshal(w.Body.Bytes(), &resp)

	data := resp.Data.(map[string]any)
	if data["phase"] != string(cycle.PhaseBullRun) {
		t.Errorf("phase = %v", data["phase"])
	}
}

func TestCycleHandler_Get_NoData(t *testing.T) {
	app := &mockApp{cycleErr: core.WrapError(core.ErrInsufficientData, nil)}
	handler := NewCycleHandler(app)

	req := httptest.NewRequest("GET", "/api/v1/cycle", nil)
	w := httptest.NewRecorder()

	handler.Get(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", w.Code)
	}
}

func TestLevelsHandler_Get(t *testing.T) {
	app := &mockApp{
		levels: &level.Set{
			Symbol: "BTCUSDT",
			Price:  65000,
		},
	}
	handler := NewLevelsHandler(app)

	req := httptest.NewRequest("GET", "/api/v1/levels/BTCUSDT", nil)
	w := httptest.NewRecorder()

	handler.Get(w, req, "BTCUSDT")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp response.SuccessResponse
	json.Unmarshal(w.Body.Bytes(), &resp)

	data := resp.Data.(map[string]any)
	if data["symbol"] != "BTCUSDT" {
		t.Errorf("symbol = %v", data["symbol"])
	}
}

func TestLevelsHandler_Get_EmptySymbol(t *testing.T) {
	handler := NewLevelsHandler(&mockApp{})

	req := httptest.NewRequest("GET", "/api/v1/levels/", nil)
	w := httptest.NewRecorder()

	handler.Get(w, req, "")

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}
