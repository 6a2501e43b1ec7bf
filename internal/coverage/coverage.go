package coverage

import (
	"math"
	"strings"

	"solardelta/internal/model"
)

// StatusDisabled is the case-insensitive sentinel that disables status matching.
const StatusDisabled = "none"

// NormalizeWatts converts a reading in its declared unit to watts.
// Normalizing a watts value is a no-op.
func NormalizeWatts(value float64, unit model.PowerUnit) float64 {
	if unit == model.UnitKilowatt {
		return value * 1000
	}
	return value
}

// Sanitize clamps solar and device readings to non-negative values and passes
// the grid reading through unchanged. grid is nil when the entry has no grid
// sensor configured.
func Sanitize(solarW, deviceW float64, gridW *float64) model.SanitizedInputs {
	return model.SanitizedInputs{
		SolarW:  math.Max(0, solarW),
		DeviceW: math.Max(0, deviceW),
		GridW:   gridW,
	}
}

// EvaluateGate derives the gate state for one update cycle. status is nil when
// the status entity's state is unknown or unavailable; match equal to the
// "none" sentinel disables status checking entirely. Device draw of exactly
// zero fails the gate.
func EvaluateGate(deviceW float64, status *string, match string) model.GateState {
	g := model.GateState{DeviceDrawing: deviceW > 0}

	if strings.EqualFold(match, StatusDisabled) {
		g.StatusOK = true
		return g
	}
	g.StatusOK = status != nil && strings.EqualFold(*status, match)
	return g
}

// Compute returns the instantaneous coverage percentages, full precision.
// Rounding is a display concern.
//
// The grid-aware variant deducts exported surplus from solar before dividing:
// exported power did not serve the device. Imported power (negative grid) is
// not added back, so unmet demand lowers coverage implicitly.
func Compute(in model.SanitizedInputs) model.CoverageResult {
	if in.DeviceW <= 0 {
		return model.CoverageResult{}
	}

	unaware := clampPct(100 * in.SolarW / in.DeviceW)
	aware := unaware
	if in.GridW != nil {
		effectiveSolar := in.SolarW - math.Max(0, *in.GridW)
		aware = clampPct(100 * effectiveSolar / in.DeviceW)
	}

	return model.CoverageResult{UnawarePct: unaware, AwarePct: aware}
}

func clampPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
