// Package ai produces LLM market commentary on top of an analysis report.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/newthinker/compass/internal/analysis"
	marketctx "github.com/newthinker/compass/internal/context"
	"github.com/newthinker/compass/internal/llm"
)

// Commentary is the structured output of one briefing.
type Commentary struct {
	Assessment      string   `json:"assessment"` // "bullish", "bearish", "neutral"
	Summary         string   `json:"summary"`
	KeyRisks        []string `json:"key_risks"`
	SuggestedAction string   `json:"suggested_action"`
	Degraded        bool     `json:"degraded,omitempty"` // provider failed, neutral fallback
}

// Analyzer turns analysis reports into natural-language commentary.
type Analyzer struct {
	llm    llm.Provider
	macro  marketctx.MacroProvider
	logger *zap.Logger
}

// NewAnalyzer creates a commentary analyzer. The macro provider is optional.
func NewAnalyzer(provider llm.Provider, macro marketctx.MacroProvider, logger ...*zap.Logger) *Analyzer {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Analyzer{llm: provider, macro: macro, logger: l}
}

// Commentary requests a market briefing for the report. Provider failures
// degrade to a neutral commentary rather than an error; the analysis itself
// already stands on its own.
func (a *Analyzer) Commentary(ctx context.Context, report *analysis.Report) (*Commentary, error) {
	if report == nil || report.Score == nil {
		return nil, fmt.Errorf("ai: nil report")
	}

	var macro *marketctx.Macro
	if a.macro != nil {
		m, err := a.macro.Macro(ctx)
		if err != nil {
			a.logger.Warn("macro fetch failed, briefing proceeds without", zap.Error(err))
		} else {
			macro = m
		}
	}

	req := llm.ChatRequest{
		SystemPrompt: commentarySystemPrompt,
		Messages: []llm.Message{
			{Role: "user", Content: buildPrompt(report, macro)},
		},
		MaxTokens:   1024,
		Temperature: 0.4,
		JSONMode:    true,
	}

	resp, err := a.llm.Chat(ctx, req)
	if err != nil {
		a.logger.Warn("llm request failed, degrading to neutral commentary", zap.Error(err))
		return neutralCommentary(report), nil
	}

	commentary, err := parseCommentary(resp.Content)
	if err != nil {
		a.logger.Warn("llm response unparseable, degrading to neutral commentary",
			zap.Error(err),
			zap.Int("content_len", len(resp.Content)),
		)
		return neutralCommentary(report), nil
	}
	return commentary, nil
}

// parseCommentary decodes the response, stripping a markdown code fence
// when the model wrapped its JSON in one.
func parseCommentary(content string) (*Commentary, error) {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		if i := strings.LastIndex(trimmed, "```"); i >= 0 {
			trimmed = trimmed[:i]
		}
		trimmed = strings.TrimSpace(trimmed)
	}

	var c Commentary
	if err := json.Unmarshal([]byte(trimmed), &c); err != nil {
		return nil, fmt.Errorf("parsing commentary: %w", err)
	}
	if c.Summary == "" {
		return nil, fmt.Errorf("parsing commentary: empty summary")
	}
	return &c, nil
}

func neutralCommentary(report *analysis.Report) *Commentary {
	return &Commentary{
		Assessment: "neutral",
		Summary: fmt.Sprintf("AI commentary unavailable. Composite score for %s is %.0f (%s).",
			report.Symbol, report.Score.Score, report.Score.Kind),
		SuggestedAction: "Review the raw analysis before acting.",
		Degraded:        true,
	}
}

func buildPrompt(report *analysis.Report, macro *marketctx.Macro) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("## %s — %s\n\n", report.Symbol, report.Time.Format("2006-01-02")))
	sb.WriteString(fmt.Sprintf("Price: %.2f\n", report.Price))
	sb.WriteString(fmt.Sprintf("Composite score: %.1f (%s, confidence %.0f%%)\n",
		report.Score.Score, report.Score.Kind, report.Score.Confidence))

	for _, c := range report.Score.Components {
		sb.WriteString(fmt.Sprintf("- %s: %.0f", c.Name, c.Score))
		if c.Detail != "" {
			sb.WriteString(" (" + c.Detail + ")")
		}
		sb.WriteString("\n")
	}

	if snap := report.Snapshot; snap != nil {
		sb.WriteString("\n## Indicators\n")
		writeVal(&sb, "RSI", snap.RSI)
		writeVal(&sb, "SMA50", snap.SMA50)
		writeVal(&sb, "SMA200", snap.SMA200)
		writeVal(&sb, "MACD histogram", snap.MACDHistogram)
		writeVal(&sb, "Bollinger position", snap.BBPosition)
	}

	if len(report.Patterns) > 0 {
		sb.WriteString("\n## Patterns\n")
		for _, p := range report.Patterns {
			sb.WriteString(fmt.Sprintf("- %s (%s, strength %d)\n", p.Name, p.Direction, p.Strength))
		}
	}

	if cyc := report.Cycle; cyc != nil {
		sb.WriteString(fmt.Sprintf("\n## Cycle\nPhase %s (%.0f%% confidence). %s\n",
			cyc.Phase, cyc.Confidence, cyc.Description))
	}

	if mc := report.Context; mc != nil && mc.FearGreed != nil {
		sb.WriteString(fmt.Sprintf("\nFear & Greed: %.0f (%s)\n",
			mc.FearGreed.Value, mc.FearGreed.Classification))
	}

	if macro != nil {
		sb.WriteString("\n## Macro (30d)\n")
		writeVal(&sb, "S&P 500 %", macro.SP500Change30dPct)
		writeVal(&sb, "DXY %", macro.DXYChange30dPct)
		writeVal(&sb, "Gold %", macro.GoldChange30dPct)
	}

	sb.WriteString("\n## Task\n")
	sb.WriteString("Write a concise market briefing for this symbol. Respond with JSON containing: assessment, summary, key_risks, suggested_action.\n")
	return sb.String()
}

func writeVal(sb *strings.Builder, name string, v *float64) {
	if v == nil {
		return
	}
	sb.WriteString(fmt.Sprintf("- %s: %.2f\n", name, *v))
}

const commentarySystemPrompt = `You are a crypto market analyst. You receive a quantitative analysis of one symbol and write a short, sober briefing.

Rules:
1. Ground every statement in the provided numbers; never invent data.
2. Name the biggest risks to the current reading.
3. No financial advice disclaimers, no hedging boilerplate.

Always respond with valid JSON:
{
  "assessment": "bullish" | "bearish" | "neutral",
  "summary": "2-4 sentences on the state of the market",
  "key_risks": ["risk 1", "risk 2"],
  "suggested_action": "one sentence"
}`
