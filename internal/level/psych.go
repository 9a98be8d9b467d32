package level

import "math"

// PsychLevel is a round-number price with its distance from the current
// price in percent.
type PsychLevel struct {
	Price       float64 `json:"price"`
	DistancePct float64 `json:"distance_pct"`
}

// Psychological holds round-number levels on both sides of the price,
// nearest first, and the step the grid was built on.
type Psychological struct {
	Resistance []PsychLevel `json:"resistance"`
	Support    []PsychLevel `json:"support"`
	Step       float64      `json:"step"`
}

// psychStep picks the grid spacing for round-number levels by price
// magnitude.
func psychStep(price float64) float64 {
	switch {
	case price >= 50000:
		return 5000
	case price >= 10000:
		return 2500
	case price >= 1000:
		return 500
	case price >= 100:
		return 50
	case price >= 10:
		return 5
	case price >= 1:
		return 0.5
	default:
		return 0.05
	}
}

// PsychologicalLevels builds count round-number levels above and below the
// price. Support stops early when the grid reaches zero.
func PsychologicalLevels(price float64, count int) Psychological {
	if count <= 0 {
		count = 3
	}
	step := psychStep(price)
	base := math.Floor(price/step) * step

	var resistance []PsychLevel
	lv := base
	if base < price {
		lv = base + step
	}
	for len(resistance) < count {
		if lv > price {
			resistance = append(resistance, PsychLevel{
				Price:       round2(lv),
				DistancePct: round2((lv - price) / price * 100),
			})
		}
		lv += step
	}

	var support []PsychLevel
	lv = base
	if base >= price {
		lv = base - step
	}
	for len(support) < count && lv > 0 {
		if lv < price {
			support = append(support, PsychLevel{
				Price:       round2(lv),
				DistancePct: round2((price - lv) / price * 100),
			})
		}
		lv -= step
	}

	return Psychological{Resistance: resistance, Support: support, Step: step}
}
