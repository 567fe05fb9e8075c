// Package presence tracks which identities currently have a live
// connection. The registry is the in-memory source of truth for the
// online status shown on the operator console; it is mutated only at
// connection boundaries and by moderation evictions.
package presence

import (
	"sort"
	"sync"
)

type Registry struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{ids: make(map[string]struct{})}
}

// Add marks an identity online and reports whether it was offline
// before.
func (r *Registry) Add(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.ids[id]
	r.ids[id] = struct{}{}
	return !ok
}

// Remove marks an identity offline and reports whether it was online.
// Removing an absent identity is a no-op.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.ids[id]
	delete(r.ids, id)
	return ok
}

func (r *Registry) Contains(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.ids[id]
	return ok
}

// Snapshot returns a sorted point-in-time copy of the online set.
func (r *Registry) Snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.ids))
	for id := range r.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clear empties the set and returns the identities that were online.
func (r *Registry) Clear() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.ids))
	for id := range r.ids {
		ids = append(ids, id)
	}
	r.ids = make(map[string]struct{})
	sort.Strings(ids)
	return ids
}
