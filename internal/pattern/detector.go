package pattern

import (
	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/indicator"
)

// Input is the data a detection pass runs over. Snapshot may be nil, in
// which case the engine computes one with default windows.
type Input struct {
	Series   *core.Series
	Snapshot *indicator.Snapshot
}

// Detector inspects one rule against the input and returns at most one
// pattern. A nil pattern with a nil error means the rule did not fire.
type Detector interface {
	Name() string
	Detect(in Input) (*Pattern, error)
}
