package cycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/indicator"
)

const (
	// MinDailyCandles is the history floor below which classification
	// degrades to unknown.
	MinDailyCandles = 365

	// dailyLookback bounds the range used for ATH/ATL, roughly one full
	// halving cycle.
	dailyLookback = 1460

	weeklyLookback = 400
	weeklyMAPeriod = 200
)

// Input is the data a classification runs over. Weekly is optional; when
// nil it is resampled from Daily. A zero Now means the wall clock.
type Input struct {
	Daily  *core.Series
	Weekly *core.Series
	Now    time.Time
}

// metrics is the evidence one rule pass evaluates. Pointer fields are
// typed absences; a missing input disables the rules that need it.
type metrics struct {
	daysSinceHalving *int
	fromATHPct       float64
	fromATLPct       float64
	rangePosition    float64
	rsi              *float64
	macdHist         *float64
	goldenCross      bool
	deathCross       bool
	above200w        bool
}

func (m metrics) rsiBetween(lo, hi float64) bool {
	return m.rsi != nil && lo < *m.rsi && *m.rsi < hi
}

func (m metrics) halvingDaysIn(lo, hi int) bool {
	return m.daysSinceHalving != nil && lo <= *m.daysSinceHalving && *m.daysSinceHalving <= hi
}

// rule contributes points toward one phase when its predicate holds.
type rule struct {
	phase  Phase
	points int
	match  func(m metrics) bool
}

// rules is the full scoring table, evaluated in one pass. Keep the groups
// in phaseOrder so the table reads in tie-break order.
var rules = []rule{
	{PhaseAccumulation, 30, func(m metrics) bool {
		return m.fromATHPct < -60 && m.rangePosition < 30 && !m.above200w
	}},
	{PhaseAccumulation, 15, func(m metrics) bool {
		return m.daysSinceHalving != nil && (*m.daysSinceHalving < 200 || *m.daysSinceHalving > 1200)
	}},
	{PhaseAccumulation, 10, func(m metrics) bool { return m.rsiBetween(30, 50) }},

	{PhaseEarlyBull, 25, func(m metrics) bool { return m.halvingDaysIn(200, 500) }},
	{PhaseEarlyBull, 20, func(m metrics) bool {
		return 20 < m.rangePosition && m.rangePosition < 50 && m.above200w
	}},
	{PhaseEarlyBull, 15, func(m metrics) bool { return m.goldenCross }},
	{PhaseEarlyBull, 10, func(m metrics) bool { return m.rsiBetween(50, 65) }},

	{PhaseBullRun, 20, func(m metrics) bool { return m.halvingDaysIn(500, 900) }},
	{PhaseBullRun, 20, func(m metrics) bool {
		return 50 < m.rangePosition && m.rangePosition < 80 && m.above200w
	}},
	{PhaseBullRun, 20, func(m metrics) bool {
		return m.goldenCross && m.rsi != nil && *m.rsi > 60
	}},
	{PhaseBullRun, 15, func(m metrics) bool {
		return -30 < m.fromATHPct && m.fromATHPct < -10
	}},

	{PhaseEuphoria, 35, func(m metrics) bool {
		return m.fromATHPct > -15 && m.rangePosition > 85
	}},
	{PhaseEuphoria, 25, func(m metrics) bool { return m.rsi != nil && *m.rsi > 75 }},
	{PhaseEuphoria, 15, func(m metrics) bool { return m.halvingDaysIn(800, 1100) }},

	{PhaseDistribution, 25, func(m metrics) bool {
		return -30 < m.fromATHPct && m.fromATHPct < -10 && m.rsi != nil && *m.rsi < 60
	}},
	{PhaseDistribution, 15, func(m metrics) bool {
		return 70 < m.rangePosition && m.rangePosition < 90
	}},
	{PhaseDistribution, 15, func(m metrics) bool {
		return m.macdHist != nil && *m.macdHist < 0
	}},

	{PhaseEarlyBear, 30, func(m metrics) bool {
		return m.deathCross && m.fromATHPct < -30
	}},
	{PhaseEarlyBear, 20, func(m metrics) bool {
		return -50 < m.fromATHPct && m.fromATHPct < -25 && m.rsi != nil && *m.rsi < 50
	}},

	{PhaseBearMarket, 30, func(m metrics) bool {
		return m.fromATHPct < -50 && !m.above200w
	}},
	{PhaseBearMarket, 20, func(m metrics) bool {
		return m.deathCross && m.rsi != nil && *m.rsi < 40
	}},
	{PhaseBearMarket, 15, func(m metrics) bool {
		return 30 < m.rangePosition && m.rangePosition < 50
	}},

	{PhaseCapitulation, 35, func(m metrics) bool {
		return m.fromATHPct < -70 && m.rangePosition < 20
	}},
	{PhaseCapitulation, 25, func(m metrics) bool { return m.rsi != nil && *m.rsi < 30 }},
	{PhaseCapitulation, 15, func(m metrics) bool {
		return !m.above200w && m.fromATLPct < 50
	}},
}

// Classify scores the cycle phase from the daily series. It never returns
// an error; thin or conflicting evidence yields the unknown phase.
func Classify(in Input) *Info {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	if in.Daily == nil || in.Daily.Len() < MinDailyCandles {
		return &Info{
			Phase:          PhaseUnknown,
			Confidence:     0,
			Description:    "Not enough price history to classify the cycle.",
			Recommendation: phaseRecommendations[PhaseUnknown].recommendation,
			RiskLevel:      phaseRecommendations[PhaseUnknown].risk,
			Time:           now,
		}
	}

	daily := in.Daily.Tail(dailyLookback)
	currentPrice := daily.Last().Close

	halving := halvingMetrics(now)

	closes := daily.Closes()

	// ATH/ATL on closing prices; intraday wicks don't move the range.
	ath := maxOf(closes)
	atl := minOf(closes)
	fromATH := (currentPrice - ath) / ath * 100
	fromATL := (currentPrice - atl) / atl * 100
	rangePos := 50.0
	if ath != atl {
		rangePos = (currentPrice - atl) / (ath - atl) * 100
	}

	m := metrics{
		daysSinceHalving: halving.daysSince,
		fromATHPct:       fromATH,
		fromATLPct:       fromATL,
		rangePosition:    rangePos,
	}

	sma50, err50 := indicator.SMA(closes, 50)
	sma200, err200 := indicator.SMA(closes, 200)
	if err50 == nil && err200 == nil {
		m.goldenCross = sma50 > sma200
		m.deathCross = sma50 < sma200
	}

	if rsi, err := indicator.RSI(closes, 14); err == nil {
		m.rsi = &rsi
	}
	if _, _, hist, err := indicator.MACD(closes, 12, 26, 9); err == nil {
		m.macdHist = &hist
	}

	ma200w := weeklyMA(daily, in.Weekly)
	m.above200w = ma200w != nil && currentPrice > *ma200w

	phase, confidence := pickPhase(scorePhases(m))

	info := &Info{
		Phase:              phase,
		Confidence:         confidence,
		DaysSinceHalving:   halving.daysSince,
		DaysToNextHalving:  halving.daysToNext,
		HalvingProgressPct: halving.progressPct,
		ATH:                &ath,
		ATL:                &atl,
		FromATHPct:         &fromATH,
		FromATLPct:         &fromATL,
		MA200Weekly:        ma200w,
		Time:               daily.Last().Time,
	}

	info.MA200WeeklyPosition = "below"
	if m.above200w {
		info.MA200WeeklyPosition = "above"
	}

	pos := cyclePosition(halving.progressPct, rangePos)
	info.CyclePosition = &pos

	info.Description = describe(phase, m, halving, ath)

	advice := phaseRecommendations[phase]
	info.Recommendation = advice.recommendation
	info.RiskLevel = advice.risk

	return info
}

// scorePhases evaluates the rule table in one pass.
func scorePhases(m metrics) map[Phase]int {
	scores := make(map[Phase]int, len(phaseOrder))
	for _, r := range rules {
		if r.match(m) {
			scores[r.phase] += r.points
		}
	}
	return scores
}

// pickPhase selects the highest-scoring phase, resolving ties by
// phaseOrder. A best score under 20 degrades to unknown with confidence 0.
func pickPhase(scores map[Phase]int) (Phase, float64) {
	best := phaseOrder[0]
	for _, p := range phaseOrder[1:] {
		if scores[p] > scores[best] {
			best = p
		}
	}

	if scores[best] < 20 {
		return PhaseUnknown, 0
	}

	confidence := float64(scores[best]) / 75 * 100
	if confidence > 100 {
		confidence = 100
	}
	return best, confidence
}

// weeklyMA computes the 200-period weekly SMA, resampling the daily series
// when no weekly series is supplied. Returns nil when under 200 weeks.
func weeklyMA(daily, weekly *core.Series) *float64 {
	w := weekly
	if w == nil {
		resampled, err := daily.Resample(core.Interval1w)
		if err != nil {
			return nil
		}
		w = resampled
	}
	w = w.Tail(weeklyLookback)
	if w.Len() < weeklyMAPeriod {
		return nil
	}
	ma, err := indicator.SMA(w.Closes(), weeklyMAPeriod)
	if err != nil {
		return nil
	}
	return &ma
}

// cyclePosition blends halving progress with the price range position,
// clamped to [0,100].
func cyclePosition(progressPct *float64, rangePos float64) float64 {
	progress := 50.0
	if progressPct != nil {
		progress = *progressPct
	}
	pos := progress*0.4 + rangePos*0.6
	if pos < 0 {
		return 0
	}
	if pos > 100 {
		return 100
	}
	return pos
}

func describe(phase Phase, m metrics, halving halvingMetricsResult, ath float64) string {
	desc := phaseDescriptions[phase]

	var additions []string
	if m.fromATHPct != 0 {
		additions = append(additions,
			fmt.Sprintf("price %.0f%% below ATH ($%.0f)", -m.fromATHPct, ath))
	}
	if halving.daysSince != nil {
		additions = append(additions,
			fmt.Sprintf("%d days since the halving", *halving.daysSince))
	}
	if m.goldenCross {
		additions = append(additions, "golden cross active")
	} else if m.deathCross {
		additions = append(additions, "death cross active")
	}

	if len(additions) > 0 {
		desc += "\n\n" + strings.Join(additions, " | ")
	}
	return desc
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
