// Package level finds support/resistance clusters and psychological price
// levels from a candle series.
package level

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/newthinker/compass/internal/core"
)

// MinCandles is the floor below which level detection is refused. The swing
// scan needs two neighbors on each side, and anything shorter produces
// nothing worth ranking.
const MinCandles = 10

// Config holds level detection parameters.
type Config struct {
	Lookback         int     `mapstructure:"lookback"`
	ClusterThreshold float64 `mapstructure:"cluster_threshold"`
	MaxLevels        int     `mapstructure:"max_levels"`
	PsychCount       int     `mapstructure:"psych_count"`
}

// DefaultConfig returns the standard detection parameters.
func DefaultConfig() Config {
	return Config{
		Lookback:         50,
		ClusterThreshold: 0.02,
		MaxLevels:        5,
		PsychCount:       3,
	}
}

// Level is one clustered support or resistance level.
type Level struct {
	Price   float64 `json:"price"`
	Touches int     `json:"touches"` // swing points merged into the cluster
}

// Set is the full level picture around the current price.
// Resistance and Support are ranked by touches, strongest first;
// NearestResistance and NearestSupport are the heads of those lists.
type Set struct {
	Symbol            string        `json:"symbol"`
	Price             float64       `json:"price"`
	Resistance        []Level       `json:"resistance"`
	Support           []Level       `json:"support"`
	NearestResistance *Level        `json:"nearest_resistance,omitempty"`
	NearestSupport    *Level        `json:"nearest_support,omitempty"`
	Psychological     Psychological `json:"psychological"`
	Time              time.Time     `json:"time"`
}

// Find detects support/resistance levels over the configured lookback.
func Find(series *core.Series, cfg Config) (*Set, error) {
	if series.Len() < MinCandles {
		return nil, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("levels: need %d candles, have %d", MinCandles, series.Len()))
	}

	lookback := cfg.Lookback
	if lookback <= 0 || lookback > series.Len() {
		lookback = series.Len()
	}
	window := series.Tail(lookback)

	highs, lows := swingPoints(window)

	currentPrice := series.Last().Close

	resistanceClusters := clusterLevels(highs, cfg.ClusterThreshold)
	supportClusters := clusterLevels(lows, cfg.ClusterThreshold)

	var resistance, support []Level
	for _, c := range resistanceClusters {
		if c.Price > currentPrice {
			resistance = append(resistance, c)
		}
	}
	for _, c := range supportClusters {
		if c.Price < currentPrice {
			support = append(support, c)
		}
	}

	max := cfg.MaxLevels
	if max <= 0 {
		max = 5
	}
	if len(resistance) > max {
		resistance = resistance[:max]
	}
	if len(support) > max {
		support = support[:max]
	}

	set := &Set{
		Symbol:        series.Symbol,
		Price:         currentPrice,
		Resistance:    resistance,
		Support:       support,
		Psychological: PsychologicalLevels(currentPrice, cfg.PsychCount),
		Time:          series.Last().Time,
	}
	if len(resistance) > 0 {
		set.NearestResistance = &resistance[0]
	}
	if len(support) > 0 {
		set.NearestSupport = &support[0]
	}

	return set, nil
}

// swingPoints finds local extrema that strictly exceed (highs) or undercut
// (lows) their two neighbors on each side.
func swingPoints(window *core.Series) (highs, lows []float64) {
	for i := 2; i < window.Len()-2; i++ {
		h := window.At(i).High
		if h > window.At(i-1).High && h > window.At(i-2).High &&
			h > window.At(i+1).High && h > window.At(i+2).High {
			highs = append(highs, h)
		}

		l := window.At(i).Low
		if l < window.At(i-1).Low && l < window.At(i-2).Low &&
			l < window.At(i+1).Low && l < window.At(i+2).Low {
			lows = append(lows, l)
		}
	}
	return highs, lows
}

// clusterLevels greedily merges ascending price levels that sit within the
// threshold of the cluster's most recently added member, then ranks the
// clusters by touches, strongest first. The stable sort keeps equal-strength
// clusters in ascending price order.
func clusterLevels(levels []float64, threshold float64) []Level {
	if len(levels) == 0 {
		return nil
	}

	sorted := make([]float64, len(levels))
	copy(sorted, levels)
	sort.Float64s(sorted)

	var clusters []Level
	current := []float64{sorted[0]}

	flush := func() {
		var sum float64
		for _, v := range current {
			sum += v
		}
		clusters = append(clusters, Level{
			Price:   round2(sum / float64(len(current))),
			Touches: len(current),
		})
	}

	for _, lv := range sorted[1:] {
		last := current[len(current)-1]
		if (lv-last)/last < threshold {
			current = append(current, lv)
		} else {
			flush()
			current = []float64{lv}
		}
	}
	flush()

	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].Touches > clusters[j].Touches
	})
	return clusters
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
