package engine

import (
	"math"
	"testing"

	"github.com/huerizon/skysyncd/internal/color"
)

func TestPassesDelta_FirstReadingAlwaysPasses(t *testing.T) {
	c := color.Canonical{X: 0.3, Y: 0.3, Brightness: 0.5}
	if !PassesDelta(c, nil, 1000, DefaultDeltaWeights()) {
		t.Error("first reading must pass regardless of min_delta")
	}
}

func TestPassesDelta_BrightnessOnlyChange(t *testing.T) {
	last := color.Canonical{X: 0.3, Y: 0.3, Brightness: 0.5}
	w := DefaultDeltaWeights()

	small := last
	small.Brightness += 0.005
	if PassesDelta(small, &last, 0.01, w) {
		t.Error("brightness delta of 0.005 should be suppressed at min_delta 0.01")
	}

	big := last
	big.Brightness += 0.02
	if !PassesDelta(big, &last, 0.01, w) {
		t.Error("brightness delta of 0.02 should pass at min_delta 0.01")
	}
}

func TestDistance_CombinesChromaticityAndBrightness(t *testing.T) {
	a := color.Canonical{X: 0.30, Y: 0.30, Brightness: 0.50}
	b := color.Canonical{X: 0.33, Y: 0.34, Brightness: 0.60}

	got := Distance(a, b, DefaultDeltaWeights())
	want := math.Sqrt(0.03*0.03+0.04*0.04) + 0.10
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Distance = %g, want %g", got, want)
	}
}

func TestDistance_WeightsAreConfiguration(t *testing.T) {
	a := color.Canonical{X: 0.30, Y: 0.30, Brightness: 0.50}
	b := color.Canonical{X: 0.35, Y: 0.30, Brightness: 0.70}

	chromaOnly := Distance(a, b, DeltaWeights{Chromaticity: 1, Brightness: 0})
	if math.Abs(chromaOnly-0.05) > 1e-9 {
		t.Errorf("chromaticity-only distance = %g, want 0.05", chromaOnly)
	}

	briOnly := Distance(a, b, DeltaWeights{Chromaticity: 0, Brightness: 1})
	if math.Abs(briOnly-0.2) > 1e-9 {
		t.Errorf("brightness-only distance = %g, want 0.2", briOnly)
	}
}
