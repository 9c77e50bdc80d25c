package events

// CallbackEvent fans a value out to registered callback functions.
// T is the type of the argument passed to callbacks.
type CallbackEvent[T any] struct {
	reg *registry[func(T)]
}

// NewCallbackEvent creates a CallbackEvent. With replayLast set, a listener
// registering after at least one Notify is called immediately with the most
// recent value.
func NewCallbackEvent[T any](replayLast bool) *CallbackEvent[T] {
	return &CallbackEvent[T]{reg: newRegistry[func(T)](replayLast)}
}

// Listen registers a callback and returns its deregistration function.
func (e *CallbackEvent[T]) Listen(callback func(T)) func() {
	if callback == nil {
		panic("callback cannot be nil")
	}
	id, last, replay := e.reg.add(callback)
	if replay {
		// Replay happens outside the registry lock, so a callback may
		// re-enter Listen or Notify safely.
		callback(last.(T))
	}
	return func() { e.reg.remove(id) }
}

// Notify calls every registered callback with the value. Thread-safe; callbacks
// run outside the internal lock.
func (e *CallbackEvent[T]) Notify(value T) {
	for _, callback := range e.reg.snapshot(value) {
		callback(value)
	}
}

// ListenerCount returns the number of registered callbacks.
func (e *CallbackEvent[T]) ListenerCount() int {
	return e.reg.count()
}
