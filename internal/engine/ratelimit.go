package engine

import "time"

// PassesInterval reports whether enough time has passed since the last
// applied update. Pure function over externally supplied state: the last
// applied instant lives in FilterState and is owned by the engine.
func PassesInterval(now time.Time, lastAppliedAt *time.Time, minInterval time.Duration) bool {
	if lastAppliedAt == nil {
		return true
	}
	return now.Sub(*lastAppliedAt) >= minInterval
}
