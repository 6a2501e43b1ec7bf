// Package persist stores accumulator state durably across restarts.
package persist

import (
	"strings"

	"solardelta/internal/model"
)

// Store persists accumulator state keyed by a stable identifier.
type Store interface {
	// Load returns the state for key, reporting false when absent.
	Load(key string) (model.AccumulatorState, bool, error)
	// Save writes the state for key, replacing any previous value.
	Save(key string, st model.AccumulatorState) error
	Close() error
}

// Key builds the persistence key for one accumulator of an entry, averageKey
// being one of the six model.AverageKey values.
func Key(entrySlug, averageKey string) string {
	return entrySlug + ":" + averageKey
}

// Slug derives the stable persistence identifier from an entry's display
// name. Renaming an entry therefore orphans its previous state; the old rows
// stay at rest under the old key.
func Slug(name string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
