package relay

import "sync"

// Registry owns the set of currently live connections, keyed by an anonymous
// connection id (broadcast mode) or a username (directed mode). A key maps to
// at most one connection at any instant; registering an existing key replaces
// the prior association without closing the superseded connection.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Conn)}
}

// Register inserts or replaces the entry for key. It always succeeds; a prior
// entry simply becomes unreachable by that key.
func (r *Registry) Register(key string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[key] = conn
}

// Unregister removes the entry for key if present. Removing an absent key is
// a no-op, so a double-fired disconnect leaves the registry unchanged.
func (r *Registry) Unregister(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, key)
}

// Lookup returns the connection registered under key, if any.
func (r *Registry) Lookup(key string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[key]
	return conn, ok
}

// ForEachLive invokes fn for a snapshot of the registered connections. The
// snapshot is taken under the lock but fn runs outside it, so fn may itself
// register or unregister connections without deadlocking; mutations made
// after the snapshot are not reflected in the iteration.
func (r *Registry) ForEachLive(fn func(Conn)) {
	r.mu.RLock()
	snapshot := make([]Conn, 0, len(r.conns))
	for _, conn := range r.conns {
		snapshot = append(snapshot, conn)
	}
	r.mu.RUnlock()

	for _, conn := range snapshot {
		fn(conn)
	}
}

// Len reports the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
