package hass

import (
	"strconv"
	"strings"
)

// ParseNumeric converts an entity state string to a float. unknown,
// unavailable, empty and non-numeric states report false; callers treat
// those as a closed gate for the cycle rather than an error.
func ParseNumeric(state string) (float64, bool) {
	if !Usable(state) {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(state), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
