package ws

import (
	"sync"

	"github.com/danchikt/my-messenger/internal/metrics"
)

// Registry maps an authenticated identity to at most one live connection.
// A second auth for the same identity silently supersedes the entry; the
// superseded connection is left to clean itself up on its own close.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Client
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*Client)}
}

// Register binds userID to c, overwriting any previous connection.
func (r *Registry) Register(userID string, c *Client) {
	r.mu.Lock()
	_, existed := r.conns[userID]
	r.conns[userID] = c
	r.mu.Unlock()
	if !existed {
		metrics.WsConnections.Inc()
	}
}

// Resolve returns the live connection for userID, if any.
func (r *Registry) Resolve(userID string) (*Client, bool) {
	r.mu.RLock()
	c, ok := r.conns[userID]
	r.mu.RUnlock()
	return c, ok
}

// Unregister removes the entry only if c is still the registered
// connection. The compare and the delete happen under one lock hold so a
// stale close can never evict a newer connection.
func (r *Registry) Unregister(userID string, c *Client) bool {
	r.mu.Lock()
	cur, ok := r.conns[userID]
	if !ok || cur != c {
		r.mu.Unlock()
		return false
	}
	delete(r.conns, userID)
	r.mu.Unlock()
	metrics.WsConnections.Dec()
	return true
}

// LiveRecipients partitions a target set into reachable connections and
// offline identities. This partition is the seam between live fan-out and
// offline dispatch. Duplicate ids collapse to one slot.
func (r *Registry) LiveRecipients(userIDs []string) (live []*Client, offline []string) {
	seen := make(map[string]struct{}, len(userIDs))
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range userIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if c, ok := r.conns[id]; ok {
			live = append(live, c)
		} else {
			offline = append(offline, id)
		}
	}
	return live, offline
}

// All snapshots every live connection, for the legacy global broadcasts.
func (r *Registry) All() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
