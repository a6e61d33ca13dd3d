// Package realtime tracks live push connections and delivers messages to
// them.
package realtime

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"news-aggregator/internal/observability/metrics"
)

// Conn is one live push connection.
type Conn interface {
	Send(ctx context.Context, payload []byte) error
	Close() error
}

// Registry is the set of live connections, each optionally owned by a user.
// It is safe for concurrent use: mutations hold the write lock, and sends
// work on a snapshot taken under the read lock so a slow connection never
// blocks Connect or Disconnect.
type Registry struct {
	mu    sync.RWMutex
	conns map[Conn]*int64
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[Conn]*int64)}
}

// Connect registers conn. A nil userID marks an anonymous connection.
func (r *Registry) Connect(conn Conn, userID *int64) {
	var owner *int64
	if userID != nil {
		id := *userID
		owner = &id
	}
	r.mu.Lock()
	r.conns[conn] = owner
	n := len(r.conns)
	r.mu.Unlock()
	metrics.SetRealtimeConnections(n)
}

// Disconnect removes and closes conn. Unknown connections are ignored.
func (r *Registry) Disconnect(conn Conn) {
	r.mu.Lock()
	_, ok := r.conns[conn]
	delete(r.conns, conn)
	n := len(r.conns)
	r.mu.Unlock()
	if !ok {
		return
	}
	metrics.SetRealtimeConnections(n)
	if err := conn.Close(); err != nil {
		slog.Debug("closing push connection", slog.Any("error", err))
	}
}

// Broadcast sends payload to every connection and returns how many
// deliveries succeeded.
func (r *Registry) Broadcast(ctx context.Context, payload []byte) int {
	return r.deliver(ctx, r.snapshot(func(*int64) bool { return true }), payload)
}

// SendToUser sends payload to every connection owned by userID.
func (r *Registry) SendToUser(ctx context.Context, userID int64, payload []byte) int {
	return r.deliver(ctx, r.snapshot(func(owner *int64) bool {
		return owner != nil && *owner == userID
	}), payload)
}

// SendToUsers sends the same payload to every connection owned by any of ids.
func (r *Registry) SendToUsers(ctx context.Context, ids []int64, payload []byte) int {
	want := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	return r.deliver(ctx, r.snapshot(func(owner *int64) bool {
		if owner == nil {
			return false
		}
		_, ok := want[*owner]
		return ok
	}), payload)
}

// ConnectedUserIDs lists the distinct owners of live connections, ascending.
func (r *Registry) ConnectedUserIDs() []int64 {
	r.mu.RLock()
	seen := make(map[int64]struct{})
	for _, owner := range r.conns {
		if owner != nil {
			seen[*owner] = struct{}{}
		}
	}
	r.mu.RUnlock()

	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// CloseAll disconnects every connection. Used on shutdown, since the HTTP
// server does not track hijacked connections.
func (r *Registry) CloseAll() {
	for _, c := range r.snapshot(func(*int64) bool { return true }) {
		r.Disconnect(c)
	}
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *Registry) snapshot(match func(owner *int64) bool) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Conn, 0, len(r.conns))
	for c, owner := range r.conns {
		if match(owner) {
			out = append(out, c)
		}
	}
	return out
}

// deliver sends to each target in turn. A failing connection is dropped and
// the rest still receive the payload.
func (r *Registry) deliver(ctx context.Context, targets []Conn, payload []byte) int {
	delivered := 0
	for _, c := range targets {
		if err := c.Send(ctx, payload); err != nil {
			slog.Warn("push delivery failed, dropping connection", slog.Any("error", err))
			r.Disconnect(c)
			continue
		}
		delivered++
	}
	return delivered
}
