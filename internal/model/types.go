package model

import (
	"fmt"
	"strings"
	"time"
)

// PowerUnit is the declared magnitude unit of a power sensor.
type PowerUnit string

const (
	UnitWatt     PowerUnit = "W"
	UnitKilowatt PowerUnit = "kW"
)

// ParsePowerUnit parses a configured unit string. An empty string defaults to
// watts. Anything else is a configuration fault.
func ParsePowerUnit(s string) (PowerUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "w":
		return UnitWatt, nil
	case "kw":
		return UnitKilowatt, nil
	}
	return "", fmt.Errorf("unknown power unit %q", s)
}

// Scope identifies the lifetime of one average.
type Scope string

const (
	ScopeSession  Scope = "session"
	ScopeYear     Scope = "year"
	ScopeLifetime Scope = "lifetime"
)

// Scopes lists all scopes in display order.
var Scopes = []Scope{ScopeSession, ScopeYear, ScopeLifetime}

// Mode distinguishes the grid-unaware and grid-aware coverage variants.
type Mode string

const (
	ModeUnaware Mode = "unaware"
	ModeAware   Mode = "aware"
)

// Modes lists both modes in display order.
var Modes = []Mode{ModeUnaware, ModeAware}

// AverageKey identifies one of the six averages, e.g. "session" or "year_aware".
// Unaware keys carry no suffix to match the original integration's entity names.
func AverageKey(scope Scope, mode Mode) string {
	if mode == ModeAware {
		return string(scope) + "_aware"
	}
	return string(scope)
}

// SanitizedInputs holds one update cycle's power readings in watts after
// sign clamping. GridW is nil when the entry has no grid sensor; positive
// means exporting to the grid, negative importing.
type SanitizedInputs struct {
	SolarW  float64
	DeviceW float64
	GridW   *float64
}

// GateState captures whether accumulation is currently permitted.
type GateState struct {
	StatusOK      bool
	DeviceDrawing bool
}

// Permitted reports whether both gate conditions hold.
func (g GateState) Permitted() bool {
	return g.StatusOK && g.DeviceDrawing
}

// CoverageResult holds the instantaneous coverage percentages, full precision.
type CoverageResult struct {
	UnawarePct float64
	AwarePct   float64
}

// AccumulatorState is the durable part of a time-weighted accumulator.
// LastTimestamp is zero until the first tick after creation or reset.
type AccumulatorState struct {
	WeightedSum   float64
	ActiveSeconds float64
	LastTimestamp time.Time
}

// ResetTarget selects which accumulators an explicit reset action clears.
type ResetTarget string

const (
	ResetSession       ResetTarget = "session"
	ResetYear          ResetTarget = "year"
	ResetLifetime      ResetTarget = "lifetime"
	ResetSessionAware  ResetTarget = "session_aware"
	ResetYearAware     ResetTarget = "year_aware"
	ResetLifetimeAware ResetTarget = "lifetime_aware"
	ResetAll           ResetTarget = "all"
)

// ParseResetTarget validates a reset action name.
func ParseResetTarget(s string) (ResetTarget, error) {
	switch t := ResetTarget(strings.ToLower(s)); t {
	case ResetSession, ResetYear, ResetLifetime,
		ResetSessionAware, ResetYearAware, ResetLifetimeAware, ResetAll:
		return t, nil
	}
	return "", fmt.Errorf("unknown reset target %q", s)
}

// Keys returns the average keys the target clears.
func (t ResetTarget) Keys() []string {
	if t == ResetAll {
		keys := make([]string, 0, len(Scopes)*len(Modes))
		for _, s := range Scopes {
			for _, m := range Modes {
				keys = append(keys, AverageKey(s, m))
			}
		}
		return keys
	}
	return []string{string(t)}
}

// AverageValue is one exposed average with its attributes.
type AverageValue struct {
	Pct           float64 `json:"pct"`
	Formatted     string  `json:"formatted"`
	ActiveSeconds int64   `json:"active_seconds"`
	ActiveTime    string  `json:"active_time"`
}

// EntrySnapshot is the full exposed state of one entry after an update cycle.
type EntrySnapshot struct {
	Name       string                  `json:"name"`
	Permitted  bool                    `json:"permitted"`
	UnawarePct float64                 `json:"unaware_pct"`
	UnawareFmt string                  `json:"unaware_fmt"`
	AwarePct   float64                 `json:"aware_pct"`
	AwareFmt   string                  `json:"aware_fmt"`
	Averages   map[string]AverageValue `json:"averages"`
	UpdatedAt  time.Time               `json:"updated_at"`
}
