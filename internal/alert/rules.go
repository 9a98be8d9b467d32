package alert

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Rule is one operational alert, bound from the alerts.rules config section.
// Expr is a single comparison against a pipeline reading, for example
// "error_rate > 0.5" or "win_rate < 35".
type Rule struct {
	Name     string        `mapstructure:"name"`
	Expr     string        `mapstructure:"expr"`
	For      time.Duration `mapstructure:"for"`
	Severity string        `mapstructure:"severity"`
	Message  string        `mapstructure:"message"`
}

// exprPattern matches "metric op threshold" with ops >, <, >=, <=, ==, !=.
var exprPattern = regexp.MustCompile(`^(\w+)\s*(>|<|>=|<=|==|!=)\s*([\d.]+)$`)

// Evaluate tests the rule expression against the current readings. A missing
// metric or an unparseable expression never triggers.
func (r *Rule) Evaluate(metrics map[string]float64) bool {
	metricName, op, threshold, ok := r.parse()
	if !ok {
		return false
	}

	value, exists := metrics[metricName]
	if !exists {
		return false
	}

	switch op {
	case ">":
		return value > threshold
	case "<":
		return value < threshold
	case ">=":
		return value >= threshold
	case "<=":
		return value <= threshold
	case "==":
		return value == threshold
	case "!=":
		return value != threshold
	default:
		return false
	}
}

func (r *Rule) parse() (metric, op string, threshold float64, ok bool) {
	matches := exprPattern.FindStringSubmatch(strings.TrimSpace(r.Expr))
	if len(matches) != 4 {
		return "", "", 0, false
	}
	threshold, err := strconv.ParseFloat(matches[3], 64)
	if err != nil {
		return "", "", 0, false
	}
	return matches[1], matches[2], threshold, true
}

// FormatMessage builds the notification text, appending the reading that
// tripped the rule when it is available.
func (r *Rule) FormatMessage(metrics map[string]float64) string {
	msg := fmt.Sprintf("[%s] %s: %s", strings.ToUpper(r.Severity), r.Name, r.Message)
	if metric, _, _, ok := r.parse(); ok {
		if value, exists := metrics[metric]; exists {
			msg += fmt.Sprintf(" (%s=%.4g)", metric, value)
		}
	}
	return msg
}

// DefaultRules covers the pipeline readings published every analysis run:
// error_rate (0-1 over runs), win_rate (percent over resolved signals) and
// watchlist_size. Used when the config declares no rules of its own.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:     "analysis_failing",
			Expr:     "error_rate > 0.5",
			For:      30 * time.Minute,
			Severity: "critical",
			Message:  "more than half of analysis runs are failing",
		},
		{
			Name:     "win_rate_degraded",
			Expr:     "win_rate < 35",
			For:      time.Hour,
			Severity: "warning",
			Message:  "resolved signal win rate dropped below 35%",
		},
		{
			Name:     "watchlist_empty",
			Expr:     "watchlist_size == 0",
			For:      0,
			Severity: "warning",
			Message:  "no symbols left on the watchlist",
		},
	}
}
