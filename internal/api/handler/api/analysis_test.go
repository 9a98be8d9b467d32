package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/newthinker/compass/internal/analysis"
	"github.com/newthinker/compass/internal/api/response"
	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/scoring"
)

func TestAnalysisHandler_Get(t *testing.T) {
	app := &mockApp{
		report: &analysis.Report{
			Symbol: "BTCUSDT",
			Time:   time.Now(),
			Price:  65000,
			Score:  &scoring.Score{Score: 72, Kind: core.KindBuy, Confidence: 80},
		},
	}
	handler := NewAnalysisHandler(app)

	req := httptest.NewRequest("GET", "/api/v1/analysis/BTCUSDT", nil)
	w := httptest.NewRecorder()

	handler.Get(w, req, "BTCUSDT")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp response.SuccessResponse
	json.Unmarshal(w.Body.Bytes(), &resp)

	data := resp.Data.(map[string]any)
	if data["symbol"] != "BTCUSDT" {
		t.Errorf("symbol = %v, want BTCUSDT", data["symbol"])
	}
	if data["price"].(float64) != 65000 {
		t.Errorf("price = %v, want 65000", data["price"])
	}
}

func TestAnalysisHandler_Get_InsufficientData(t *testing.T) {
	app := &mockApp{
		analyzeErr: core.WrapError(core.ErrInsufficientData, nil),
	}
	handler := NewAnalysisHandler(app)

	req := httptest.NewRequest("GET", "/api/v1/analysis/BTCUSDT", nil)
	w := httptest.NewRecorder()

	handler.Get(w, req, "BTCUSDT")

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", w.Code)
	}

	var resp response.ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error.Code != "INSUFFICIENT_DATA" {
		t.Errorf("error code = %s, want INSUFFICIENT_DATA", resp.Error.Code)
	}
}

func TestAnalysisHandler_Get_EmptySymbol(t *testing.T) {
	handler := NewAnalysisHandler(&mockApp{})

	req := httptest.NewRequest("GET", "/api/v1/analysis/", nil)
	w := httptest.NewRecorder()

	handler.Get(w, req, "  ")

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAnalysisHandler_Trigger(t *testing.T) {
	app := &mockApp{watchlist: []string{"BTCUSDT", "ETHUSDT"}}
	handler := NewAnalysisHandler(app)

	req := httptest.NewRequest("POST", "/api/v1/analysis/trigger", nil)
	w := httptest.NewRecorder()

	handler.Trigger(w, req)

	if w.Code != http.StatusAccepted {
		t.Errorf("expected 202, got %d", w.Code)
	}

	var resp response.SuccessResponse
	json.Unmarshal(w.Body.Bytes(), &resp)

	data := resp.Data.(map[string]any)
	if data["triggered"] != true {
		t.Error("expected triggered to be true")
	}
	if data["symbols_count"].(float64) != 2 {
		t.Errorf("expected 2 symbols, got %v", data["symbols_count"])
	}
}
