package peer

import (
	"log"
	"sync"
)

// LoopbackLink is an in-memory Link implementation. Two linked endpoints
// deliver each other's messages on a per-endpoint serial goroutine, which
// preserves delivery order per channel while keeping delivery asynchronous,
// the same contract the platform channel gives the real transport.
//
// Tests and the demo binary use it in place of the platform channel;
// reachability and send failures are scriptable.
type LoopbackLink struct {
	name   string
	logger *log.Logger

	mu         sync.RWMutex
	other      *LoopbackLink
	reachable  bool
	sendErr    error // forced failure for the next sends, nil for healthy
	latestCtx  Payload
	hasCtx     bool
	msgHandler func(Payload)
	reqHandler func(Payload) Payload
	ctxHandler func(Payload)

	inbox     chan func()
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewLoopbackPair creates two linked endpoints, both reachable. Close both
// when done to stop their delivery goroutines.
func NewLoopbackPair(logger *log.Logger, nameA, nameB string) (*LoopbackLink, *LoopbackLink) {
	if logger == nil {
		panic("LoopbackLink: logger cannot be nil")
	}
	a := newLoopbackLink(logger, nameA)
	b := newLoopbackLink(logger, nameB)
	a.other = b
	b.other = a
	return a, b
}

func newLoopbackLink(logger *log.Logger, name string) *LoopbackLink {
	l := &LoopbackLink{
		name:      name,
		logger:    logger,
		reachable: true,
		inbox:     make(chan func(), 64),
		done:      make(chan struct{}),
	}
	l.wg.Add(1)
	go l.run()
	return l
}

func (l *LoopbackLink) run() {
	defer l.wg.Done()
	for {
		select {
		case <-l.done:
			return
		case fn := <-l.inbox:
			fn()
		}
	}
}

// Close stops the delivery goroutine. Safe to call multiple times.
func (l *LoopbackLink) Close() {
	l.closeOnce.Do(func() {
		close(l.done)
		l.wg.Wait()
	})
}

// SetReachable scripts the advisory reachability flag of this endpoint as
// seen by its peer.
func (l *LoopbackLink) SetReachable(reachable bool) {
	l.mu.Lock()
	l.reachable = reachable
	l.mu.Unlock()
}

// FailSendsWith forces every subsequent Send on this endpoint to fail with
// err. Pass nil to restore healthy delivery.
func (l *LoopbackLink) FailSendsWith(err error) {
	l.mu.Lock()
	l.sendErr = err
	l.mu.Unlock()
}

// IsReachable reports whether the peer endpoint currently advertises itself
// as reachable.
func (l *LoopbackLink) IsReachable() bool {
	l.mu.RLock()
	other := l.other
	l.mu.RUnlock()
	if other == nil {
		return false
	}
	other.mu.RLock()
	defer other.mu.RUnlock()
	return other.reachable
}

// Send delivers the payload to the peer endpoint. The payload is deep-copied
// before it crosses over. onError fires (asynchronously, on this endpoint's
// delivery goroutine) if the send is rejected.
func (l *LoopbackLink) Send(p Payload, onReply func(Payload), onError func(error)) {
	l.mu.RLock()
	sendErr := l.sendErr
	other := l.other
	l.mu.RUnlock()

	if sendErr != nil {
		l.logger.Printf("LoopbackLink[%s]: send rejected: %v", l.name, sendErr)
		if onError != nil {
			l.enqueue(func() { onError(sendErr) })
		}
		return
	}
	if other == nil || other.closed() {
		l.logger.Printf("LoopbackLink[%s]: send failed, peer gone", l.name)
		if onError != nil {
			l.enqueue(func() { onError(ErrLinkClosed) })
		}
		return
	}

	delivered := ClonePayload(p)
	if onReply == nil {
		other.enqueue(func() { other.deliverMessage(delivered) })
		return
	}
	other.enqueue(func() {
		reply := other.deliverRequest(delivered)
		// Reply crosses back on the sender's serial goroutine.
		l.enqueue(func() { onReply(ClonePayload(reply)) })
	})
}

// PublishContext stashes the snapshot on the peer endpoint and notifies its
// context handler. The latest context overwrites any previous one.
func (l *LoopbackLink) PublishContext(p Payload) error {
	l.mu.RLock()
	other := l.other
	l.mu.RUnlock()
	if other == nil || other.closed() {
		return ErrLinkClosed
	}
	delivered := ClonePayload(p)
	other.mu.Lock()
	other.latestCtx = delivered
	other.hasCtx = true
	other.mu.Unlock()
	other.enqueue(func() { other.deliverContext(delivered) })
	return nil
}

// LatestContext returns the most recently stashed snapshot from the peer.
func (l *LoopbackLink) LatestContext() (Payload, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.hasCtx {
		return nil, false
	}
	return ClonePayload(l.latestCtx), true
}

// SetMessageHandler registers the callback for inbound one-way messages.
func (l *LoopbackLink) SetMessageHandler(fn func(Payload)) {
	l.mu.Lock()
	l.msgHandler = fn
	l.mu.Unlock()
}

// SetRequestHandler registers the callback for inbound messages expecting a reply.
func (l *LoopbackLink) SetRequestHandler(fn func(Payload) Payload) {
	l.mu.Lock()
	l.reqHandler = fn
	l.mu.Unlock()
}

// SetContextHandler registers the callback for inbound context updates.
func (l *LoopbackLink) SetContextHandler(fn func(Payload)) {
	l.mu.Lock()
	l.ctxHandler = fn
	l.mu.Unlock()
}

func (l *LoopbackLink) deliverMessage(p Payload) {
	l.mu.RLock()
	fn := l.msgHandler
	l.mu.RUnlock()
	if fn == nil {
		l.logger.Printf("LoopbackLink[%s]: dropping message, no handler", l.name)
		return
	}
	fn(p)
}

func (l *LoopbackLink) deliverRequest(p Payload) Payload {
	l.mu.RLock()
	fn := l.reqHandler
	l.mu.RUnlock()
	if fn == nil {
		l.logger.Printf("LoopbackLink[%s]: dropping request, no handler", l.name)
		return Payload{}
	}
	return fn(p)
}

func (l *LoopbackLink) deliverContext(p Payload) {
	l.mu.RLock()
	fn := l.ctxHandler
	l.mu.RUnlock()
	if fn == nil {
		return
	}
	fn(p)
}

func (l *LoopbackLink) closed() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}

// enqueue schedules fn on this endpoint's serial delivery goroutine. Dropped
// silently once the link is closed.
func (l *LoopbackLink) enqueue(fn func()) {
	select {
	case <-l.done:
	case l.inbox <- fn:
	}
}
