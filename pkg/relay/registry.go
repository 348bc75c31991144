package relay

import (
	"sync"

	"github.com/invigilo/proctord/pkg/api"
)

// Identity is the caller-supplied part of a connection, set by the first
// join packet.
type Identity struct {
	ExternalId string
	Role       api.Role
}

// Registry is the process-wide presence table: connection id -> identity.
// It is the only shared mutable state of the relay; callers get copy-out
// snapshots, never references.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Identity
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Identity, 64)}
}

// Join upserts the connection identity. Re-joins overwrite silently.
func (r *Registry) Join(id string, identity Identity) {
	r.mu.Lock()
	r.entries[id] = identity
	r.mu.Unlock()
}

// Remove deletes the entry and reports what was there.
func (r *Registry) Remove(id string) (Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	identity, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	return identity, ok
}

func (r *Registry) Resolve(id string) (Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	identity, ok := r.entries[id]
	return identity, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Snapshot returns a full copy of the current presence state.
func (r *Registry) Snapshot() api.OnlineUsersPayload {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(api.OnlineUsersPayload, len(r.entries))
	for id, identity := range r.entries {
		out[id] = api.UserInfo{ExternalId: identity.ExternalId, Role: identity.Role}
	}
	return out
}
