package average

import "strings"

// EdgeTracker fires once when an observed state stream enters the target
// state. It never fires on continued residency in the target state, and never
// on the very first observation since there is no known prior state.
type EdgeTracker struct {
	prev   *string
	target string
}

// NewEdgeTracker creates a tracker for the given target state. Matching is
// case-insensitive.
func NewEdgeTracker(target string) *EdgeTracker {
	return &EdgeTracker{target: target}
}

// Observe records a new state and reports whether the reset edge fired.
func (t *EdgeTracker) Observe(state string) bool {
	fired := t.prev != nil &&
		!strings.EqualFold(*t.prev, t.target) &&
		strings.EqualFold(state, t.target)

	s := state
	t.prev = &s
	return fired
}
