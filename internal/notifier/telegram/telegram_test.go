package telegram

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/notifier"
)

func TestTelegram_ImplementsNotifier(t *testing.T) {
	var _ notifier.Notifier = (*Telegram)(nil)
}

func TestTelegram_Name(t *testing.T) {
	tg := New("token", "chatid")
	if tg.Name() != "telegram" {
		t.Errorf("expected 'telegram', got '%s'", tg.Name())
	}
}

func TestTelegram_Init(t *testing.T) {
	tg := &Telegram{}

	cfg := notifier.Config{
		Params: map[string]any{
			"bot_token": "test-token",
			"chat_id":   "test-chat",
		},
	}

	err := tg.Init(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tg.botToken != "test-token" {
		t.Errorf("expected bot_token 'test-token', got '%s'", tg.botToken)
	}
	if tg.chatID != "test-chat" {
		t.Errorf("expected chat_id 'test-chat', got '%s'", tg.chatID)
	}
}

func TestTelegram_Init_MissingToken(t *testing.T) {
	tg := &Telegram{}

	cfg := notifier.Config{
		Params: map[string]any{
			"chat_id": "test-chat",
		},
	}

	err := tg.Init(cfg)
	if err == nil {
		t.Error("expected error for missing bot_token")
	}
}

func TestTelegram_Init_MissingChatID(t *testing.T) {
	tg := &Telegram{}

	cfg := notifier.Config{
		Params: map[string]any{
			"bot_token": "test-token",
		},
	}

	err := tg.Init(cfg)
	if err == nil {
		t.Error("expected error for missing chat_id")
	}
}

func TestTelegram_Send(t *testing.T) {
	var receivedPath string
	var receivedPayload map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&receivedPayload)
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer server.Close()

	tg := NewWithBaseURL("test-token", "test-chat", server.URL)

	signal := core.Signal{
		Symbol:      "BTCUSDT",
		Kind:        core.KindBuy,
		Score:       68,
		Confidence:  85,
		Source:      "composite",
		Reason:      "golden cross confirmed",
		Price:       65000.25,
		GeneratedAt: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
	}

	if err := tg.Send(signal); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if receivedPath != "/bottest-token/sendMessage" {
		t.Errorf("path = %s, want /bottest-token/sendMessage", receivedPath)
	}
	if receivedPayload["chat_id"] != "test-chat" {
		t.Errorf("chat_id = %v, want test-chat", receivedPayload["chat_id"])
	}

	text, _ := receivedPayload["text"].(string)
	for _, want := range []string{"BTCUSDT", "buy", "85.0%", "composite", "golden cross", "65000.25"} {
		if !strings.Contains(text, want) {
			t.Errorf("message missing %q:\n%s", want, text)
		}
	}
}

func TestTelegram_Send_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"ok": false, "description": "chat not found"})
	}))
	defer server.Close()

	tg := NewWithBaseURL("test-token", "bad-chat", server.URL)

	err := tg.Send(core.Signal{Symbol: "BTCUSDT", Kind: core.KindBuy, GeneratedAt: time.Now()})
	if err == nil {
		t.Fatal("expected error on API failure")
	}
}

func TestTelegram_FormatSignal_Sell(t *testing.T) {
	tg := New("token", "chat")

	signal := core.Signal{
		Symbol:      "ETHUSDT",
		Kind:        core.KindStrongSell,
		Confidence:  75,
		GeneratedAt: time.Now(),
	}

	formatted := tg.formatSignal(signal)

	if !strings.Contains(formatted, "📉") {
		t.Error("sell signal should have 📉 emoji")
	}
	if !strings.Contains(formatted, "strong_sell") {
		t.Error("formatted message should contain the signal kind")
	}
}

func TestTelegram_FormatSignal_Hold(t *testing.T) {
	tg := New("token", "chat")

	signal := core.Signal{
		Symbol:      "BTCUSDT",
		Kind:        core.KindHold,
		Confidence:  50,
		GeneratedAt: time.Now(),
	}

	formatted := tg.formatSignal(signal)

	if !strings.Contains(formatted, "⏸️") {
		t.Error("hold signal should have ⏸️ emoji")
	}
}

func TestTelegram_SendBatch_Empty(t *testing.T) {
	tg := New("token", "chat")

	err := tg.SendBatch([]core.Signal{})
	if err != nil {
		t.Errorf("empty batch should not return error: %v", err)
	}
}

func TestTelegram_SendBatch(t *testing.T) {
	var receivedPayload map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&receivedPayload)
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer server.Close()

	tg := NewWithBaseURL("token", "chat", server.URL)

	signals := []core.Signal{
		{Symbol: "BTCUSDT", Kind: core.KindBuy, Confidence: 80, GeneratedAt: time.Now()},
		{Symbol: "ETHUSDT", Kind: core.KindSell, Confidence: 70, GeneratedAt: time.Now()},
	}

	if err := tg.SendBatch(signals); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text, _ := receivedPayload["text"].(string)
	if !strings.Contains(text, "2 Market Signals") {
		t.Errorf("batch header missing:\n%s", text)
	}
	if !strings.Contains(text, "BTCUSDT") || !strings.Contains(text, "ETHUSDT") {
		t.Errorf("batch missing symbols:\n%s", text)
	}
}
