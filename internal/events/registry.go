// Package events provides small generic pub/sub primitives: CallbackEvent
// fans values out to functions, ChannelEvent to channels. Both can replay the
// most recent value to late listeners.
package events

import "sync"

// registry is the shared listener table behind both event flavors. L is the
// listener representation (a callback or a channel).
type registry[L any] struct {
	mu         sync.Mutex
	listeners  map[uint64]L
	nextID     uint64
	replayLast bool
	last       *any // most recent notified value, nil until the first Notify
}

func newRegistry[L any](replayLast bool) *registry[L] {
	return &registry[L]{
		listeners:  make(map[uint64]L),
		replayLast: replayLast,
	}
}

// add registers a listener. replay reports whether the caller should deliver
// last to the new listener; delivery itself happens outside the lock.
func (r *registry[L]) add(listener L) (id uint64, last any, replay bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id = r.nextID
	r.nextID++
	r.listeners[id] = listener
	if r.replayLast && r.last != nil {
		return id, *r.last, true
	}
	return id, nil, false
}

func (r *registry[L]) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.listeners, id)
}

// snapshot records value as the most recent one and returns the current
// listeners. Notification runs on the returned copy outside the lock, so
// listeners may register or deregister from inside their own handler.
func (r *registry[L]) snapshot(value any) []L {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = &value
	out := make([]L, 0, len(r.listeners))
	for _, l := range r.listeners {
		out = append(out, l)
	}
	return out
}

func (r *registry[L]) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listeners)
}
