// Package display renders numeric values into the strings exposed alongside
// them. Rounding lives here, never in the computation path.
package display

import (
	"fmt"
	"strconv"
)

// Percent renders a coverage percentage. Exact 0 and 100 drop the decimal;
// everything else gets exactly one decimal place.
func Percent(v float64) string {
	if v == 0 || v == 100 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// Duration renders a second count as DD:HH:MM. Sub-minute remainder is
// truncated.
func Duration(seconds float64) string {
	total := int64(seconds)
	if total < 0 {
		total = 0
	}
	days := total / 86400
	hours := total % 86400 / 3600
	mins := total % 3600 / 60
	return fmt.Sprintf("%02d:%02d:%02d", days, hours, mins)
}
