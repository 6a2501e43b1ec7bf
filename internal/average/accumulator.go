package average

import (
	"time"

	"solardelta/internal/model"
)

// Accumulator maintains one time-weighted average of a coverage percentage.
// It integrates across irregular event-driven intervals: each tick weights the
// current percentage by the wall-clock time since the previous tick, counting
// only intervals during which accumulation was permitted.
type Accumulator struct {
	state model.AccumulatorState
}

// New creates an accumulator from persisted state. A zero state yields a
// fresh accumulator that anchors on its first tick.
func New(state model.AccumulatorState) *Accumulator {
	return &Accumulator{state: state}
}

// Tick advances the accumulator to now. The first tick after creation or
// reset only anchors the timestamp so a restart gap or reset gap is never
// integrated. A clock regression clamps the elapsed interval to zero.
func (a *Accumulator) Tick(permitted bool, pct float64, now time.Time) {
	if a.state.LastTimestamp.IsZero() {
		a.state.LastTimestamp = now
		return
	}

	elapsed := now.Sub(a.state.LastTimestamp).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	a.state.LastTimestamp = now

	if permitted {
		a.state.WeightedSum += pct * elapsed
		a.state.ActiveSeconds += elapsed
	}
}

// Reset zeroes the accumulator. The timestamp is cleared so the next tick
// re-anchors instead of integrating the gap across the reset instant.
func (a *Accumulator) Reset() {
	a.state = model.AccumulatorState{}
}

// Average returns the current time-weighted average, or 0 before any
// permitted time has accumulated.
func (a *Accumulator) Average() float64 {
	if a.state.ActiveSeconds <= 0 {
		return 0
	}
	return a.state.WeightedSum / a.state.ActiveSeconds
}

// ActiveSeconds returns the total permitted seconds accumulated.
func (a *Accumulator) ActiveSeconds() float64 {
	return a.state.ActiveSeconds
}

// State returns the durable fields for persistence.
func (a *Accumulator) State() model.AccumulatorState {
	return a.state
}

// YearRolled reports whether now falls in a later calendar year than the
// accumulator's last update. Years are compared in now's location, so callers
// pass now in the zone whose midnight defines the boundary; the persisted
// timestamp is converted into that zone before comparing. Fresh accumulators
// never roll: they have nothing to discard. Checking against the persisted
// timestamp makes the rollover catch up correctly after the process was
// offline across Jan 1, and keeps it idempotent within one year.
func (a *Accumulator) YearRolled(now time.Time) bool {
	last := a.state.LastTimestamp
	return !last.IsZero() && now.Year() > last.In(now.Location()).Year()
}
