// Package alert evaluates operational rules against pipeline readings and
// fans triggered alerts out to the configured notifiers.
package alert

import (
	"sync"
	"time"
)

// Notifier is the delivery channel for triggered alerts.
type Notifier interface {
	Name() string
	Notify(msg string) error
}

// Evaluator holds the latest readings and the firing state per rule. Rules
// with a For duration must stay triggered across evaluations for that long
// before firing; a fired rule then stays silent for the cooldown.
type Evaluator struct {
	notifiers []Notifier
	metrics   map[string]float64
	cooldown  time.Duration

	pendingSince map[string]time.Time
	lastFired    map[string]time.Time

	// Clock hook for tests.
	now func() time.Time

	mu sync.RWMutex
}

// NewEvaluator creates an evaluator with a 5 minute default cooldown.
func NewEvaluator(notifiers []Notifier) *Evaluator {
	return &Evaluator{
		notifiers:    notifiers,
		metrics:      make(map[string]float64),
		cooldown:     5 * time.Minute,
		pendingSince: make(map[string]time.Time),
		lastFired:    make(map[string]time.Time),
		now:          time.Now,
	}
}

// SetMetrics replaces the readings rules evaluate against. The app calls
// this after every analysis run.
func (e *Evaluator) SetMetrics(metrics map[string]float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.metrics = metrics
}

// SetCooldown sets the minimum gap between two firings of the same rule.
func (e *Evaluator) SetCooldown(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cooldown = d
}

// Evaluate runs one rule and reports whether it fired.
func (e *Evaluator) Evaluate(rule Rule) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()

	if !rule.Evaluate(e.metrics) {
		// Condition cleared; a later trigger starts a fresh For window.
		delete(e.pendingSince, rule.Name)
		return false
	}

	if rule.For > 0 {
		since, pending := e.pendingSince[rule.Name]
		if !pending {
			e.pendingSince[rule.Name] = now
			return false
		}
		if now.Sub(since) < rule.For {
			return false
		}
	}

	if last, fired := e.lastFired[rule.Name]; fired && now.Sub(last) < e.cooldown {
		return false
	}

	msg := rule.FormatMessage(e.metrics)
	for _, n := range e.notifiers {
		n.Notify(msg)
	}

	e.lastFired[rule.Name] = now
	delete(e.pendingSince, rule.Name)
	return true
}

// EvaluateAll runs every rule and returns how many fired.
func (e *Evaluator) EvaluateAll(rules []Rule) int {
	fired := 0
	for _, rule := range rules {
		if e.Evaluate(rule) {
			fired++
		}
	}
	return fired
}

// advanceTime shifts the evaluator's clock forward in tests.
func (e *Evaluator) advanceTime(d time.Duration) {
	oldNow := e.now
	e.now = func() time.Time {
		return oldNow().Add(d)
	}
}
