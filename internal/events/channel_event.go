package events

// ChannelEvent fans a value out to registered channels. Sends are non-blocking:
// a full channel is skipped rather than stalling the notifier.
type ChannelEvent[T any] struct {
	reg *registry[chan<- T]
}

// NewChannelEvent creates a ChannelEvent. With replayLast set, a channel
// registering after at least one Notify immediately receives the most recent
// value (best effort, skipped if the channel is full).
func NewChannelEvent[T any](replayLast bool) *ChannelEvent[T] {
	return &ChannelEvent[T]{reg: newRegistry[chan<- T](replayLast)}
}

// Listen registers a channel and returns its deregistration function.
func (e *ChannelEvent[T]) Listen(ch chan<- T) func() {
	if ch == nil {
		panic("channel cannot be nil")
	}
	id, last, replay := e.reg.add(ch)
	if replay {
		select {
		case ch <- last.(T):
		default:
		}
	}
	return func() { e.reg.remove(id) }
}

// Notify sends the value to every registered channel. Thread-safe.
func (e *ChannelEvent[T]) Notify(value T) {
	for _, ch := range e.reg.snapshot(value) {
		select {
		case ch <- value:
		default:
			// Listener is not keeping up; dropping beats blocking the notifier.
		}
	}
}

// ListenerCount returns the number of registered channels.
func (e *ChannelEvent[T]) ListenerCount() int {
	return e.reg.count()
}
