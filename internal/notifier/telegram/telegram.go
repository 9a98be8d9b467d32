package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/notifier"
)

const defaultBaseURL = "https://api.telegram.org"

// Telegram implements the Notifier interface for Telegram Bot API
type Telegram struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
}

// New creates a new Telegram notifier
func New(botToken, chatID string) *Telegram {
	return NewWithBaseURL(botToken, chatID, defaultBaseURL)
}

// NewWithBaseURL creates a Telegram notifier against a custom API endpoint.
func NewWithBaseURL(botToken, chatID, baseURL string) *Telegram {
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (t *Telegram) Name() string {
	return "telegram"
}

func (t *Telegram) Init(cfg notifier.Config) error {
	if token, ok := cfg.Params["bot_token"].(string); ok {
		t.botToken = token
	}
	if chatID, ok := cfg.Params["chat_id"].(string); ok {
		t.chatID = chatID
	}
	if t.baseURL == "" {
		t.baseURL = defaultBaseURL
	}
	if t.client == nil {
		t.client = &http.Client{Timeout: 30 * time.Second}
	}

	if t.botToken == "" {
		return fmt.Errorf("telegram: bot_token is required")
	}
	if t.chatID == "" {
		return fmt.Errorf("telegram: chat_id is required")
	}

	return nil
}

func (t *Telegram) Send(signal core.Signal) error {
	message := t.formatSignal(signal)
	return t.sendMessage(message)
}

func (t *Telegram) SendBatch(signals []core.Signal) error {
	if len(signals) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📊 *%d Market Signals*\n\n", len(signals)))

	for i, signal := range signals {
		sb.WriteString(t.formatSignal(signal))
		if i < len(signals)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	return t.sendMessage(sb.String())
}

func (t *Telegram) formatSignal(signal core.Signal) string {
	var sb strings.Builder

	kindEmoji := "📈"
	if signal.Kind.IsSell() {
		kindEmoji = "📉"
	} else if signal.Kind == core.KindHold {
		kindEmoji = "⏸️"
	}

	sb.WriteString(fmt.Sprintf("%s *%s* - %s\n", kindEmoji, signal.Symbol, signal.Kind))
	sb.WriteString(fmt.Sprintf("🎚 Score: %.1f\n", signal.Score))
	sb.WriteString(fmt.Sprintf("📊 Confidence: %.1f%%\n", signal.Confidence))

	if signal.Source != "" {
		sb.WriteString(fmt.Sprintf("🎯 Source: %s\n", signal.Source))
	}

	if signal.Reason != "" {
		sb.WriteString(fmt.Sprintf("💡 Reason: %s\n", signal.Reason))
	}

	if signal.Price > 0 {
		sb.WriteString(fmt.Sprintf("💰 Price: $%.2f\n", signal.Price))
	}

	sb.WriteString(fmt.Sprintf("⏰ Time: %s", signal.GeneratedAt.Format("2006-01-02 15:04:05")))

	return sb.String()
}

func (t *Telegram) sendMessage(text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)

	payload := map[string]any{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return core.WrapError(core.ErrNotifierFailed, fmt.Errorf("telegram: marshaling payload: %w", err))
	}

	resp, err := t.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return core.WrapError(core.ErrNotifierFailed, fmt.Errorf("telegram: sending message: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var result map[string]any
		json.NewDecoder(resp.Body).Decode(&result)
		return core.WrapError(core.ErrNotifierFailed,
			fmt.Errorf("telegram: API error (status %d): %v", resp.StatusCode, result))
	}

	return nil
}
