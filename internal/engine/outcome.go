package engine

import (
	"time"

	"github.com/huerizon/skysyncd/internal/color"
)

// Outcome classifies the result of evaluating a reading for one target.
type Outcome string

const (
	OutcomeApplied    Outcome = "applied"
	OutcomeSuppressed Outcome = "suppressed"
	OutcomeRejected   Outcome = "rejected"
)

// Reason explains a suppression. Suppression is a frequent, successful
// outcome, not an error.
type Reason string

const (
	ReasonOutsideSchedule Reason = "outside_schedule"
	ReasonBelowDelta      Reason = "below_delta"
	ReasonRateLimited     Reason = "rate_limited"
)

// Command is the light command emitted for an applied reading. Values are
// in the apply-mode representation; Brightness is canonical [0, 1].
type Command struct {
	Target         string       `json:"target"`
	Representation color.Format `json:"representation"`
	Values         []float64    `json:"values"`
	Brightness     float64      `json:"brightness"`
}

// Decision is the per-target outcome of one reading evaluation.
type Decision struct {
	Target  string
	Outcome Outcome
	Reason  Reason
	Err     error
	Command *Command
	At      time.Time
}
