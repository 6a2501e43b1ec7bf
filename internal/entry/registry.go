package entry

import (
	"solardelta/internal/model"
	"solardelta/internal/persist"
)

// Registry holds all configured entries and resolves lookups by name. Lookup
// goes through the same slug as persistence, so "Pool Pump" and "pool_pump"
// address the same entry.
type Registry struct {
	entries []*Entry
	bySlug  map[string]*Entry
}

func NewRegistry(entries []*Entry) *Registry {
	r := &Registry{
		entries: entries,
		bySlug:  make(map[string]*Entry, len(entries)),
	}
	for _, e := range entries {
		r.bySlug[e.slug] = e
	}
	return r
}

// All returns the entries in configuration order.
func (r *Registry) All() []*Entry {
	return r.entries
}

// Get resolves an entry by display name or slug.
func (r *Registry) Get(name string) (*Entry, bool) {
	e, ok := r.bySlug[persist.Slug(name)]
	return e, ok
}

// Snapshots returns the current snapshot of every entry, in configuration
// order.
func (r *Registry) Snapshots() []model.EntrySnapshot {
	snaps := make([]model.EntrySnapshot, 0, len(r.entries))
	for _, e := range r.entries {
		snaps = append(snaps, e.Snapshot())
	}
	return snaps
}
