// Package engine implements the sky-to-light synchronization pipeline:
// normalize a reading, gate it through schedule, change-delta and rate
// checks, and emit per-target light commands.
package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/huerizon/skysyncd/internal/color"
	"github.com/huerizon/skysyncd/internal/schedule"
)

// Config is the immutable snapshot of all engine options. It is replaced
// atomically on reconfiguration and never mutated in place. The engine
// treats it as already validated (the config package validates at load
// time).
type Config struct {
	SourceCamera string
	Targets      []string
	InputFormat  color.Format
	Normalize    color.Options
	ApplyMode    color.Format
	Window       schedule.Window
	MinDelta     float64
	Weights      DeltaWeights
	MinInterval  time.Duration
}

// Engine evaluates readings against the configured gates. Evaluation for
// all targets is serialized with one mutex (single-writer discipline);
// FilterState is never mutated concurrently.
type Engine struct {
	cfg   atomic.Pointer[Config]
	store StateStore

	mu    sync.Mutex
	cache map[string]FilterState

	now func() time.Time
}

// New creates an engine with the given config snapshot and state store.
func New(cfg *Config, store StateStore) *Engine {
	if store == nil {
		store = NewMemoryStateStore()
	}
	e := &Engine{
		store: store,
		cache: make(map[string]FilterState),
		now:   time.Now,
	}
	e.cfg.Store(cfg)
	return e
}

// Config returns the current config snapshot.
func (e *Engine) Config() *Config {
	return e.cfg.Load()
}

// Reconfigure atomically replaces the config snapshot and resets all
// per-target filter state. In-flight evaluations keep the snapshot they
// loaded; they never observe a mix of old and new options.
func (e *Engine) Reconfigure(cfg *Config) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cfg.Store(cfg)
	e.cache = make(map[string]FilterState)
	if err := e.store.Clear(); err != nil {
		return err
	}

	log.Info().
		Str("input_format", string(cfg.InputFormat)).
		Str("apply_mode", string(cfg.ApplyMode)).
		Int("targets", len(cfg.Targets)).
		Msg("Engine reconfigured")
	return nil
}

// ResetState clears all per-target filter state without touching the
// config.
func (e *Engine) ResetState() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[string]FilterState)
	return e.store.Clear()
}

// Evaluate runs one reading through the pipeline and returns one decision
// per configured target light. Gates run in fixed order: schedule, then
// delta, then rate. Delta runs before rate so a reading suppressed for
// lack of material change never consumes the rate-limit clock; a reading
// outside the schedule never touches filter state at all.
func (e *Engine) Evaluate(r Reading) []Decision {
	cfg := e.cfg.Load()

	if r.Format == "" {
		r.Format = cfg.InputFormat
	}
	ts := r.Timestamp
	if ts.IsZero() {
		ts = e.now()
	}

	canonical, err := color.Normalize(color.Reading{
		Format:     r.Format,
		Values:     r.Values,
		Brightness: r.Brightness,
		Timestamp:  ts,
	}, cfg.Normalize)
	if err != nil {
		log.Warn().Err(err).Str("format", string(r.Format)).Msg("Reading rejected")
		return e.rejectAll(cfg, ts, err)
	}

	scheduleOK := cfg.Window.IsActive(ts)

	e.mu.Lock()
	defer e.mu.Unlock()

	decisions := make([]Decision, 0, len(cfg.Targets))
	for _, target := range cfg.Targets {
		decisions = append(decisions, e.evaluateTarget(cfg, target, canonical, ts, scheduleOK))
	}
	return decisions
}

func (e *Engine) evaluateTarget(cfg *Config, target string, c color.Canonical, ts time.Time, scheduleOK bool) Decision {
	if !scheduleOK {
		return Decision{Target: target, Outcome: OutcomeSuppressed, Reason: ReasonOutsideSchedule, At: ts}
	}

	st, err := e.loadState(target)
	if err != nil {
		return Decision{Target: target, Outcome: OutcomeRejected, Err: err, At: ts}
	}

	if !PassesDelta(c, st.LastApplied, cfg.MinDelta, cfg.Weights) {
		return Decision{Target: target, Outcome: OutcomeSuppressed, Reason: ReasonBelowDelta, At: ts}
	}
	if !PassesInterval(ts, st.LastAppliedAt, cfg.MinInterval) {
		return Decision{Target: target, Outcome: OutcomeSuppressed, Reason: ReasonRateLimited, At: ts}
	}

	values, err := color.Represent(c, cfg.ApplyMode)
	if err != nil {
		return Decision{Target: target, Outcome: OutcomeRejected, Err: err, At: ts}
	}

	applied := c
	appliedAt := ts
	st.LastApplied = &applied
	st.LastAppliedAt = &appliedAt
	e.cache[target] = st
	if err := e.store.Set(target, st); err != nil {
		log.Warn().Err(err).Str("target", target).Msg("Failed to persist filter state")
	}

	return Decision{
		Target:  target,
		Outcome: OutcomeApplied,
		At:      ts,
		Command: &Command{
			Target:         target,
			Representation: cfg.ApplyMode,
			Values:         values,
			Brightness:     c.Brightness,
		},
	}
}

// loadState returns the cached filter state for a target, falling back to
// the persistent store on first access.
func (e *Engine) loadState(target string) (FilterState, error) {
	if st, ok := e.cache[target]; ok {
		return st, nil
	}
	st, found, err := e.store.Get(target)
	if err != nil {
		return FilterState{}, err
	}
	if found {
		e.cache[target] = st
	}
	return st, nil
}

func (e *Engine) rejectAll(cfg *Config, ts time.Time, err error) []Decision {
	decisions := make([]Decision, 0, len(cfg.Targets))
	for _, target := range cfg.Targets {
		decisions = append(decisions, Decision{
			Target:  target,
			Outcome: OutcomeRejected,
			Err:     err,
			At:      ts,
		})
	}
	return decisions
}

// Reading aliases the color package's reading type for callers that only
// import the engine.
type Reading = color.Reading
