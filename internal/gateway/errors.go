package gateway

import "errors"

// Failure taxonomy for gateway operations. None of these are retried
// internally; every one surfaces to the immediate caller.
var (
	// ErrPeerUnavailable: reachability was false at call time. The send was
	// never attempted.
	ErrPeerUnavailable = errors.New("paired device unreachable")

	// ErrTransport: the send/reply mechanism itself failed. Wraps the
	// underlying link error.
	ErrTransport = errors.New("peer transport failure")

	// ErrInvalidResponse: a reply arrived but carried the wrong command tag.
	ErrInvalidResponse = errors.New("reply tagged as wrong command")

	// ErrMalformedPayload: the reply carried the right tag but its fields
	// failed structural decode.
	ErrMalformedPayload = errors.New("reply payload failed to decode")

	// ErrSerialization: local encode of an outgoing payload failed before
	// the send was attempted. Unreachable for well-formed domain objects;
	// seeing it means a programming error upstream.
	ErrSerialization = errors.New("outgoing payload failed to encode")
)
