// Package cycle classifies where the market sits in the halving-anchored
// bitcoin cycle. Classification is a pure scoring pass; it never errors on
// thin evidence, it degrades to the unknown phase.
package cycle

import (
	"time"

	"github.com/newthinker/compass/internal/core"
)

// Phase is one of the cycle labels.
type Phase string

const (
	PhaseAccumulation Phase = "accumulation"
	PhaseEarlyBull    Phase = "early_bull"
	PhaseBullRun      Phase = "bull_run"
	PhaseEuphoria     Phase = "euphoria"
	PhaseDistribution Phase = "distribution"
	PhaseEarlyBear    Phase = "early_bear"
	PhaseBearMarket   Phase = "bear_market"
	PhaseCapitulation Phase = "capitulation"
	PhaseUnknown      Phase = "unknown"
)

// phaseOrder fixes the evaluation order. Score ties resolve to the earliest
// phase in this list, so classification is deterministic.
var phaseOrder = [...]Phase{
	PhaseAccumulation,
	PhaseEarlyBull,
	PhaseBullRun,
	PhaseEuphoria,
	PhaseDistribution,
	PhaseEarlyBear,
	PhaseBearMarket,
	PhaseCapitulation,
}

// Info is the full classification result.
type Info struct {
	Phase       Phase   `json:"phase"`
	Confidence  float64 `json:"confidence"`
	Description string  `json:"description"`

	DaysSinceHalving   *int     `json:"days_since_halving,omitempty"`
	DaysToNextHalving  *int     `json:"days_to_next_halving,omitempty"`
	HalvingProgressPct *float64 `json:"halving_progress_pct,omitempty"`

	ATH        *float64 `json:"ath,omitempty"`
	ATL        *float64 `json:"atl,omitempty"`
	FromATHPct *float64 `json:"from_ath_pct,omitempty"`
	FromATLPct *float64 `json:"from_atl_pct,omitempty"`

	// CyclePosition runs 0 (cycle floor) to 100 (cycle top).
	CyclePosition *float64 `json:"cycle_position,omitempty"`

	MA200Weekly         *float64 `json:"ma_200w,omitempty"`
	MA200WeeklyPosition string   `json:"ma_200w_position,omitempty"`

	Recommendation string         `json:"recommendation,omitempty"`
	RiskLevel      core.RiskLevel `json:"risk_level,omitempty"`

	Time time.Time `json:"time"`
}

var phaseDescriptions = map[Phase]string{
	PhaseAccumulation: "Price sits far below prior highs with smart money absorbing supply; a long-term accumulation zone.",
	PhaseEarlyBull:    "The market is leaving accumulation after the halving and an uptrend is forming.",
	PhaseBullRun:      "Active bull market. The trend is intact; watch for signs of overheating.",
	PhaseEuphoria:     "Price is near its highs with extreme momentum. Correction risk is elevated.",
	PhaseDistribution: "Topping range. Large holders are selling into strength; volatility is high.",
	PhaseEarlyBear:    "The trend has turned down from the highs.",
	PhaseBearMarket:   "Deep drawdown with fear dominating. Gradual accumulation becomes viable.",
	PhaseCapitulation: "Forced selling and maximum fear. Historically a strong long-term entry zone.",
	PhaseUnknown:      "Not enough evidence to classify the cycle.",
}

type phaseAdvice struct {
	recommendation string
	risk           core.RiskLevel
}

var phaseRecommendations = map[Phase]phaseAdvice{
	PhaseAccumulation: {"Favorable zone for DCA; consider adding on weakness.", core.RiskLow},
	PhaseEarlyBull:    {"Good entry conditions; add positions on pullbacks.", core.RiskLow},
	PhaseBullRun:      {"Hold positions; take partial profits as price extends.", core.RiskMedium},
	PhaseEuphoria:     {"Consider taking 30-50% of positions off the table.", core.RiskExtreme},
	PhaseDistribution: {"Avoid new longs; consider protective strategies.", core.RiskHigh},
	PhaseEarlyBear:    {"Reduce exposure and avoid leverage.", core.RiskHigh},
	PhaseBearMarket:   {"Begin gradual accumulation through DCA.", core.RiskMedium},
	PhaseCapitulation: {"Historically the best long-term entries; scale in.", core.RiskLow},
	PhaseUnknown:      {"Insufficient data; stay cautious.", core.RiskMedium},
}
