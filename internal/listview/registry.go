package listview

import (
	"sync"
	"time"
)

type registryKey struct {
	session  string
	resource string
}

// Entry is any per-session controller the registry can evict.
type Entry interface {
	LastUsed() time.Time
	Touch()
}

// Registry holds the controllers of every live console session.
type Registry struct {
	mu      sync.Mutex
	entries map[registryKey]Entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[registryKey]Entry)}
}

// Lookup returns the controller of session for resource, creating it with
// create on first use.
func Lookup[E Entry](r *Registry, session, resource string, create func() E) E {
	k := registryKey{session: session, resource: resource}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.entries[k].(E); ok {
		existing.Touch()
		return existing
	}
	c := create()
	r.entries[k] = c
	return c
}

// DropSession removes every controller of session and returns how many
// were removed.
func (r *Registry) DropSession(session string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for k := range r.entries {
		if k.session == session {
			delete(r.entries, k)
			n++
		}
	}
	return n
}

// Sweep evicts controllers unused for longer than idle.
func (r *Registry) Sweep(idle time.Duration, now time.Time) int {
	cutoff := now.Add(-idle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for k, c := range r.entries {
		if c.LastUsed().Before(cutoff) {
			delete(r.entries, k)
			n++
		}
	}
	return n
}

// Len returns the number of live controllers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
