package backtest

import (
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/compass/internal/core"
)

// DCAFrequency is how often a fixed DCA strategy buys.
type DCAFrequency string

const (
	DCADaily   DCAFrequency = "daily"
	DCAWeekly  DCAFrequency = "weekly"
	DCAMonthly DCAFrequency = "monthly"
)

func (f DCAFrequency) intervalDays() int {
	switch f {
	case DCADaily:
		return 1
	case DCAMonthly:
		return 30
	default:
		return 7
	}
}

// DCATrade is one executed purchase.
type DCATrade struct {
	Time   time.Time `json:"time"`
	Price  float64   `json:"price"`
	Amount float64   `json:"amount"` // quote currency spent
	Coins  float64   `json:"coins"`
}

// DCAResult summarizes one strategy's run over the series.
type DCAResult struct {
	Strategy            string     `json:"strategy"`
	Invested            float64    `json:"invested"`
	FinalValue          float64    `json:"final_value"`
	Coins               float64    `json:"coins"`
	ReturnPct           float64    `json:"return_pct"`
	AnnualizedReturnPct float64    `json:"annualized_return_pct"`
	MaxDrawdownPct      float64    `json:"max_drawdown_pct"`
	SharpeRatio         float64    `json:"sharpe_ratio"`
	BuyCount            int        `json:"buy_count"`
	AvgCost             float64    `json:"avg_cost"`
	BestEntryMonth      string     `json:"best_entry_month,omitempty"`  // cheapest avg price bought
	WorstEntryMonth     string     `json:"worst_entry_month,omitempty"` // most expensive
	LastTrades          []DCATrade `json:"last_trades,omitempty"`       // most recent 10
}

// DCAComparison is the output of Compare.
type DCAComparison struct {
	Symbol  string      `json:"symbol"`
	Fixed   DCAResult   `json:"fixed"`
	Smart   DCAResult   `json:"smart"`
	LumpSum DCAResult   `json:"lump_sum"`
	Best    string      `json:"best"`
	Results []DCAResult `json:"results"`
	From    time.Time   `json:"from"`
	To      time.Time   `json:"to"`
}

// FearGreedLookup returns the fear & greed index value in effect at t, or
// nil when no reading exists. Smart DCA falls back to the neutral
// multiplier when the lookup misses.
type FearGreedLookup func(t time.Time) *int

// DCABacktester simulates accumulation strategies over a candle series.
type DCABacktester struct {
	logger *zap.Logger
}

// NewDCABacktester creates a DCA backtester.
func NewDCABacktester(logger ...*zap.Logger) *DCABacktester {
	l := zap.NewNop()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &DCABacktester{logger: l}
}

// smartMultiplier scales the weekly purchase by market fear: buy more when
// fearful, less when greedy.
func smartMultiplier(fearGreed *int) float64 {
	if fearGreed == nil {
		return 1.0
	}
	switch v := *fearGreed; {
	case v < 20:
		return 2.0
	case v < 40:
		return 1.5
	case v < 60:
		return 1.0
	case v < 80:
		return 0.5
	default:
		return 0.25
	}
}

// RunFixed buys a fixed amount at each interval's close.
func (d *DCABacktester) RunFixed(candles []core.Candle, amount float64, freq DCAFrequency) (*DCAResult, error) {
	if len(candles) < 2 {
		return nil, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("dca: need at least 2 candles, have %d", len(candles)))
	}
	if amount <= 0 {
		return nil, core.WrapError(core.ErrInvalidInput, fmt.Errorf("dca: amount must be positive, got %v", amount))
	}

	step := freq.intervalDays()
	var trades []DCATrade
	for i := 0; i < len(candles); i += step {
		c := candles[i]
		trades = append(trades, DCATrade{
			Time:   c.Time,
			Price:  c.Close,
			Amount: amount,
			Coins:  amount / c.Close,
		})
	}
	result := buildDCAResult("fixed_"+string(freq), trades, candles)
	return &result, nil
}

// RunSmart buys weekly, scaling the base amount by the fear & greed reading
// in effect at each purchase.
func (d *DCABacktester) RunSmart(candles []core.Candle, baseAmount float64, lookup FearGreedLookup) (*DCAResult, error) {
	if len(candles) < 2 {
		return nil, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("dca: need at least 2 candles, have %d", len(candles)))
	}
	if baseAmount <= 0 {
		return nil, core.WrapError(core.ErrInvalidInput, fmt.Errorf("dca: amount must be positive, got %v", baseAmount))
	}

	var trades []DCATrade
	for i := 0; i < len(candles); i += DCAWeekly.intervalDays() {
		c := candles[i]
		var reading *int
		if lookup != nil {
			reading = lookup(c.Time)
		}
		amount := baseAmount * smartMultiplier(reading)
		trades = append(trades, DCATrade{
			Time:   c.Time,
			Price:  c.Close,
			Amount: amount,
			Coins:  amount / c.Close,
		})
	}
	result := buildDCAResult("smart_weekly", trades, candles)
	return &result, nil
}

// RunLumpSum invests everything at the first candle's close.
func (d *DCABacktester) RunLumpSum(candles []core.Candle, total float64) (*DCAResult, error) {
	if len(candles) < 2 {
		return nil, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("dca: need at least 2 candles, have %d", len(candles)))
	}
	if total <= 0 {
		return nil, core.WrapError(core.ErrInvalidInput, fmt.Errorf("dca: amount must be positive, got %v", total))
	}

	first := candles[0]
	trades := []DCATrade{{
		Time:   first.Time,
		Price:  first.Close,
		Amount: total,
		Coins:  total / first.Close,
	}}
	result := buildDCAResult("lump_sum", trades, candles)
	return &result, nil
}

// Compare runs fixed weekly, smart weekly and lump sum over the same series.
// The lump sum is sized to the total a weekly DCA would have invested so the
// three are comparable.
func (d *DCABacktester) Compare(symbol string, candles []core.Candle, weeklyAmount float64, lookup FearGreedLookup) (*DCAComparison, error) {
	fixed, err := d.RunFixed(candles, weeklyAmount, DCAWeekly)
	if err != nil {
		return nil, err
	}
	smart, err := d.RunSmart(candles, weeklyAmount, lookup)
	if err != nil {
		return nil, err
	}
	lump, err := d.RunLumpSum(candles, fixed.Invested)
	if err != nil {
		return nil, err
	}

	comparison := &DCAComparison{
		Symbol:  symbol,
		Fixed:   *fixed,
		Smart:   *smart,
		LumpSum: *lump,
		Results: []DCAResult{*fixed, *smart, *lump},
		From:    candles[0].Time,
		To:      candles[len(candles)-1].Time,
	}

	best := comparison.Results[0]
	for _, r := range comparison.Results[1:] {
		if r.ReturnPct > best.ReturnPct {
			best = r
		}
	}
	comparison.Best = best.Strategy

	d.logger.Info("dca comparison finished",
		zap.String("symbol", symbol),
		zap.String("best", comparison.Best),
		zap.Float64("fixed_return_pct", fixed.ReturnPct),
		zap.Float64("smart_return_pct", smart.ReturnPct),
		zap.Float64("lump_sum_return_pct", lump.ReturnPct),
	)
	return comparison, nil
}

func buildDCAResult(strategy string, trades []DCATrade, candles []core.Candle) DCAResult {
	result := DCAResult{Strategy: strategy, BuyCount: len(trades)}

	var coins float64
	monthSpend := make(map[string]float64)
	monthCoins := make(map[string]float64)
	for _, t := range trades {
		result.Invested += t.Amount
		coins += t.Coins
		month := t.Time.Format("2006-01")
		monthSpend[month] += t.Amount
		monthCoins[month] += t.Coins
	}
	result.Coins = coins

	finalPrice := candles[len(candles)-1].Close
	result.FinalValue = round2(coins * finalPrice)
	result.ReturnPct = round2((result.FinalValue - result.Invested) / result.Invested * 100)
	if coins > 0 {
		result.AvgCost = round2(result.Invested / coins)
	}

	days := candles[len(candles)-1].Time.Sub(candles[0].Time).Hours() / 24
	if days > 0 {
		years := days / daysPerYear
		growth := result.FinalValue / result.Invested
		if growth > 0 {
			result.AnnualizedReturnPct = round2((math.Pow(growth, 1/years) - 1) * 100)
		}
	}

	result.MaxDrawdownPct, result.SharpeRatio = dcaEquityStats(trades, candles)
	result.BestEntryMonth, result.WorstEntryMonth = entryMonths(monthSpend, monthCoins)

	if n := len(trades); n > 10 {
		result.LastTrades = trades[n-10:]
	} else {
		result.LastTrades = trades
	}
	return result
}

// dcaEquityStats walks the daily portfolio value of the strategy: invested
// cash enters at each trade, holdings are marked at each close.
func dcaEquityStats(trades []DCATrade, candles []core.Candle) (maxDrawdownPct, sharpe float64) {
	var coins, invested float64
	next := 0

	var dailyReturns []float64
	var prevValue float64
	peak := 0.0
	var maxDD float64

	for _, c := range candles {
		for next < len(trades) && !trades[next].Time.After(c.Time) {
			coins += trades[next].Coins
			invested += trades[next].Amount
			next++
		}
		if coins == 0 {
			continue
		}
		value := coins * c.Close
		if prevValue > 0 {
			dailyReturns = append(dailyReturns, (value-prevValue)/prevValue)
		}
		prevValue = value
		if value > peak {
			peak = value
		}
		if peak > 0 {
			if dd := (peak - value) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return round2(maxDD * 100), sharpeRatio(dailyReturns, 1)
}

func entryMonths(spend, coins map[string]float64) (best, worst string) {
	type monthCost struct {
		month string
		cost  float64
	}
	var costs []monthCost
	for month, s := range spend {
		if coins[month] > 0 {
			costs = append(costs, monthCost{month, s / coins[month]})
		}
	}
	if len(costs) == 0 {
		return "", ""
	}
	sort.Slice(costs, func(i, j int) bool { return costs[i].cost < costs[j].cost })
	return costs[0].month, costs[len(costs)-1].month
}
