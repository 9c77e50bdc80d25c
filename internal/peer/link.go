// Package peer abstracts the platform message channel between the two paired
// devices. The concrete transport lives outside this module; everything above
// it programs against the Link interface.
package peer

import "errors"

// Payload is the key-value message shape the channel carries. It is the same
// shape the wire codec produces and consumes.
type Payload = map[string]any

// ErrLinkClosed reports a send attempted on a link whose channel is gone.
var ErrLinkClosed = errors.New("peer link closed")

// Link is the bidirectional message channel to the paired device.
//
// Reachability is advisory only: it can flip between the check and the send,
// and a send started while reachable can still fail. Callers treat IsReachable
// as a pre-flight optimization, never a delivery guarantee. Send performs no
// retries; retry policy belongs to the caller.
type Link interface {
	// IsReachable is a non-blocking liveness check.
	IsReachable() bool

	// Send transmits the payload fire-and-forget. onReply, when non-nil,
	// is invoked at most once with the peer's reply. onError fires if the
	// channel rejects the send. Both callbacks arrive asynchronously.
	Send(p Payload, onReply func(Payload), onError func(error))

	// PublishContext stashes a best-effort snapshot for the peer. Unlike
	// point-to-point messages, the latest context survives disconnects and
	// is available to the peer on (re)activation.
	PublishContext(p Payload) error

	// LatestContext returns the most recently stashed snapshot from the
	// peer, if any.
	LatestContext() (Payload, bool)

	// SetMessageHandler registers the callback for inbound one-way messages.
	SetMessageHandler(fn func(Payload))

	// SetRequestHandler registers the callback for inbound messages that
	// expect a reply. The returned payload is sent back to the requester.
	SetRequestHandler(fn func(Payload) Payload)

	// SetContextHandler registers the callback for inbound context updates.
	SetContextHandler(fn func(Payload))
}

// ClonePayload deep-copies a payload so no mutable reference crosses the
// serialization boundary between the two sides.
func ClonePayload(p Payload) Payload {
	if p == nil {
		return nil
	}
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return ClonePayload(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
