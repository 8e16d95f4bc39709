package game

import "quizhub/internal/protocol"

// Close codes mirror the websocket status codes the transport uses; declared
// here so the core does not import the websocket package.
const (
	ClosePolicyViolation = 1008
	CloseUnsupportedData = 1003
)

// Conn is the session's view of one attached participant connection. The
// transport supplies a stable generated id; the session never keys state on
// the underlying socket itself.
//
// Send must not block: implementations enqueue into a per-connection buffer
// and report an error when that fails. Messages sent to the same connection
// are delivered in the order Send was called.
type Conn interface {
	ID() string
	Send(msg protocol.Message) error
	Close(code int, reason string)
}
