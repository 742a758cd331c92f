package engine

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/huerizon/skysyncd/internal/color"
	"github.com/huerizon/skysyncd/internal/schedule"
)

func floatPtr(v float64) *float64 { return &v }

func eveningWindow(t *testing.T) schedule.Window {
	t.Helper()
	start, err := schedule.ParseTimeOfDay("18:00")
	if err != nil {
		t.Fatal(err)
	}
	end, err := schedule.ParseTimeOfDay("23:00")
	if err != nil {
		t.Fatal(err)
	}
	return schedule.Window{Start: &start, End: &end}
}

func testConfig(t *testing.T, targets ...string) *Config {
	t.Helper()
	if len(targets) == 0 {
		targets = []string{"1"}
	}
	return &Config{
		Targets:     targets,
		InputFormat: color.FormatHS,
		Normalize: color.Options{
			HueScale:      color.Scale0to360,
			PercentScale:  color.Scale0to100,
			RGBScale:      color.ScaleAuto,
			ColorTempUnit: color.UnitKelvin,
		},
		ApplyMode:   color.FormatXY,
		Window:      eveningWindow(t),
		MinDelta:    0.01,
		Weights:     DefaultDeltaWeights(),
		MinInterval: 60 * time.Second,
	}
}

func evening(min int) time.Time {
	return time.Date(2026, 8, 26, 20, 0, 0, 0, time.UTC).Add(time.Duration(min) * time.Minute)
}

func hsReading(hue, sat, bri float64, ts time.Time) Reading {
	return Reading{
		Format:     color.FormatHS,
		Values:     []float64{hue, sat},
		Brightness: floatPtr(bri),
		Timestamp:  ts,
	}
}

func single(t *testing.T, decisions []Decision) Decision {
	t.Helper()
	if len(decisions) != 1 {
		t.Fatalf("expected 1 decision, got %d", len(decisions))
	}
	return decisions[0]
}

func TestEvaluate_FirstReadingApplies(t *testing.T) {
	e := New(testConfig(t), nil)

	d := single(t, e.Evaluate(hsReading(210, 60, 80, evening(0))))
	if d.Outcome != OutcomeApplied {
		t.Fatalf("outcome = %s (%s), want applied", d.Outcome, d.Reason)
	}
	if d.Command == nil || d.Command.Representation != color.FormatXY {
		t.Fatalf("command = %+v, want xy representation", d.Command)
	}

	// Chromaticity consistent with standard HSV->xy conversion.
	if math.Abs(d.Command.Values[0]-0.1854) > 0.005 || math.Abs(d.Command.Values[1]-0.2234) > 0.005 {
		t.Errorf("xy = %v, want approx (0.1854, 0.2234)", d.Command.Values)
	}
	if math.Abs(d.Command.Brightness-0.8) > 1e-9 {
		t.Errorf("brightness = %g, want 0.8", d.Command.Brightness)
	}
}

func TestEvaluate_OutsideSchedule(t *testing.T) {
	e := New(testConfig(t), nil)

	noon := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	d := single(t, e.Evaluate(hsReading(210, 60, 80, noon)))
	if d.Outcome != OutcomeSuppressed || d.Reason != ReasonOutsideSchedule {
		t.Errorf("outcome = %s/%s, want suppressed/outside_schedule", d.Outcome, d.Reason)
	}
}

func TestEvaluate_BelowDeltaSuppressed(t *testing.T) {
	e := New(testConfig(t), nil)

	if d := single(t, e.Evaluate(hsReading(210, 60, 80, evening(0)))); d.Outcome != OutcomeApplied {
		t.Fatalf("setup apply failed: %s/%s", d.Outcome, d.Reason)
	}

	// Identical reading two minutes later: no material change.
	d := single(t, e.Evaluate(hsReading(210, 60, 80, evening(2))))
	if d.Outcome != OutcomeSuppressed || d.Reason != ReasonBelowDelta {
		t.Errorf("outcome = %s/%s, want suppressed/below_delta", d.Outcome, d.Reason)
	}
}

func TestEvaluate_RateLimited(t *testing.T) {
	e := New(testConfig(t), nil)

	if d := single(t, e.Evaluate(hsReading(210, 60, 80, evening(0)))); d.Outcome != OutcomeApplied {
		t.Fatalf("setup apply failed: %s/%s", d.Outcome, d.Reason)
	}

	// A materially different color only 30 seconds later.
	thirtySec := evening(0).Add(30 * time.Second)
	d := single(t, e.Evaluate(hsReading(30, 90, 40, thirtySec)))
	if d.Outcome != OutcomeSuppressed || d.Reason != ReasonRateLimited {
		t.Errorf("outcome = %s/%s, want suppressed/rate_limited", d.Outcome, d.Reason)
	}

	// The same reading after the interval has elapsed applies.
	d = single(t, e.Evaluate(hsReading(30, 90, 40, evening(0).Add(61*time.Second))))
	if d.Outcome != OutcomeApplied {
		t.Errorf("outcome = %s/%s, want applied after 61s", d.Outcome, d.Reason)
	}
}

func TestEvaluate_ScheduleFailureNeverTouchesFilterState(t *testing.T) {
	e := New(testConfig(t), nil)

	if d := single(t, e.Evaluate(hsReading(210, 60, 80, evening(0)))); d.Outcome != OutcomeApplied {
		t.Fatalf("setup apply failed: %s/%s", d.Outcome, d.Reason)
	}
	st := e.cache["1"]
	appliedAt := *st.LastAppliedAt

	// Next day at noon: outside schedule, materially different color.
	noon := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	if d := single(t, e.Evaluate(hsReading(30, 90, 40, noon))); d.Reason != ReasonOutsideSchedule {
		t.Fatalf("setup suppress failed: %s/%s", d.Outcome, d.Reason)
	}

	st = e.cache["1"]
	if !st.LastAppliedAt.Equal(appliedAt) {
		t.Error("a schedule-suppressed reading must not mutate the rate-limit clock")
	}
}

func TestEvaluate_TargetsAreIndependent(t *testing.T) {
	store := NewMemoryStateStore()
	// Light "2" has already seen this exact color; light "1" has not.
	applied := color.Canonical{X: 0.1854, Y: 0.2234, Brightness: 0.8}
	appliedAt := evening(-10)
	store.Set("2", FilterState{LastApplied: &applied, LastAppliedAt: &appliedAt})

	e := New(testConfig(t, "1", "2"), store)

	decisions := e.Evaluate(hsReading(210, 60, 80, evening(0)))
	if len(decisions) != 2 {
		t.Fatalf("expected 2 decisions, got %d", len(decisions))
	}

	byTarget := map[string]Decision{}
	for _, d := range decisions {
		byTarget[d.Target] = d
	}

	if byTarget["1"].Outcome != OutcomeApplied {
		t.Errorf("light 1 = %s/%s, want applied (fresh history)", byTarget["1"].Outcome, byTarget["1"].Reason)
	}
	if byTarget["2"].Outcome != OutcomeSuppressed || byTarget["2"].Reason != ReasonBelowDelta {
		t.Errorf("light 2 = %s/%s, want suppressed/below_delta", byTarget["2"].Outcome, byTarget["2"].Reason)
	}
}

func TestEvaluate_RejectsMalformedReading(t *testing.T) {
	e := New(testConfig(t), nil)

	d := single(t, e.Evaluate(Reading{
		Format:    color.FormatRGB,
		Values:    []float64{255, 0},
		Timestamp: evening(0),
	}))
	if d.Outcome != OutcomeRejected {
		t.Fatalf("outcome = %s, want rejected", d.Outcome)
	}
	var formatErr *color.FormatError
	if !errors.As(d.Err, &formatErr) {
		t.Errorf("err = %v, want FormatError", d.Err)
	}
}

func TestEvaluate_EmptyFormatFallsBackToConfig(t *testing.T) {
	e := New(testConfig(t), nil)

	d := single(t, e.Evaluate(Reading{
		Values:     []float64{210, 60},
		Brightness: floatPtr(80),
		Timestamp:  evening(0),
	}))
	if d.Outcome != OutcomeApplied {
		t.Errorf("outcome = %s/%s, want applied via configured input format", d.Outcome, d.Reason)
	}
}

func TestReconfigure_ResetsFilterState(t *testing.T) {
	e := New(testConfig(t), nil)

	if d := single(t, e.Evaluate(hsReading(210, 60, 80, evening(0)))); d.Outcome != OutcomeApplied {
		t.Fatalf("setup apply failed: %s/%s", d.Outcome, d.Reason)
	}

	if err := e.Reconfigure(testConfig(t)); err != nil {
		t.Fatalf("Reconfigure error: %v", err)
	}

	// Identical reading right away: state was reset, so it is first-ever
	// again and both delta and rate gates pass.
	d := single(t, e.Evaluate(hsReading(210, 60, 80, evening(1))))
	if d.Outcome != OutcomeApplied {
		t.Errorf("outcome after reconfigure = %s/%s, want applied", d.Outcome, d.Reason)
	}
}

func TestEvaluate_StatePersistsAcrossEngines(t *testing.T) {
	store := NewMemoryStateStore()

	e := New(testConfig(t), store)
	if d := single(t, e.Evaluate(hsReading(210, 60, 80, evening(0)))); d.Outcome != OutcomeApplied {
		t.Fatalf("setup apply failed: %s/%s", d.Outcome, d.Reason)
	}

	// A fresh engine over the same store sees the previous apply.
	e2 := New(testConfig(t), store)
	d := single(t, e2.Evaluate(hsReading(210, 60, 80, evening(2))))
	if d.Outcome != OutcomeSuppressed || d.Reason != ReasonBelowDelta {
		t.Errorf("outcome = %s/%s, want suppressed/below_delta from persisted state", d.Outcome, d.Reason)
	}
}
