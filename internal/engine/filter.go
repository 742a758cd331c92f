package engine

import (
	"math"

	"github.com/huerizon/skysyncd/internal/color"
)

// DeltaWeights control the relative contribution of chromaticity and
// brightness to the change-filter distance. The weighting is a
// configuration surface, not a hidden constant; both default to 1.
type DeltaWeights struct {
	Chromaticity float64 `yaml:"chromaticity"`
	Brightness   float64 `yaml:"brightness"`
}

// DefaultDeltaWeights weighs chromaticity and brightness equally.
func DefaultDeltaWeights() DeltaWeights {
	return DeltaWeights{Chromaticity: 1, Brightness: 1}
}

// Distance is the change metric: Euclidean distance in the xy plane plus
// the absolute brightness difference, each scaled by its weight.
func Distance(a, b color.Canonical, w DeltaWeights) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return w.Chromaticity*math.Sqrt(dx*dx+dy*dy) + w.Brightness*math.Abs(a.Brightness-b.Brightness)
}

// PassesDelta reports whether a candidate differs enough from the last
// applied color to be worth applying. The first-ever reading for a target
// always passes.
func PassesDelta(candidate color.Canonical, last *color.Canonical, minDelta float64, w DeltaWeights) bool {
	if last == nil {
		return true
	}
	return Distance(candidate, *last, w) > minDelta
}
