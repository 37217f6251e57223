package realtime

import (
	"sync"

	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/admin"
)

// Subscription receives coalesced change notifications. Pending collapses
// repeated changes of one collection into a single reload.
type Subscription struct {
	hub    *Hub
	signal chan struct{}

	mu      sync.Mutex
	pending map[admin.Collection]string
}

// Notify fires whenever at least one change is pending.
func (s *Subscription) Notify() <-chan struct{} {
	return s.signal
}

// Drain returns and clears the pending changes.
func (s *Subscription) Drain() []admin.Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]admin.Change, 0, len(s.pending))
	for _, c := range []admin.Collection{admin.CollectionTables, admin.CollectionOrders} {
		if op, ok := s.pending[c]; ok {
			out = append(out, admin.Change{Collection: c, Op: op})
			delete(s.pending, c)
		}
	}
	for c, op := range s.pending {
		out = append(out, admin.Change{Collection: c, Op: op})
		delete(s.pending, c)
	}
	return out
}

func (s *Subscription) Close() {
	s.hub.remove(s)
}

func (s *Subscription) push(c admin.Change) {
	s.mu.Lock()
	s.pending[c.Collection] = c.Op
	s.mu.Unlock()
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

// Hub fans change notifications out to every open dashboard.
type Hub struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscription]struct{})}
}

func (h *Hub) Subscribe() *Subscription {
	s := &Subscription{
		hub:     h,
		signal:  make(chan struct{}, 1),
		pending: make(map[admin.Collection]string),
	}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	delete(h.subs, s)
	h.mu.Unlock()
}

func (h *Hub) Publish(c admin.Change) {
	h.mu.RLock()
	subs := make([]*Subscription, 0, len(h.subs))
	for s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.RUnlock()

	for _, s := range subs {
		s.push(c)
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
