package pubsub

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned from control calls made on a session
	// which was never started, has already returned, or whose connection
	// is known to be broken.
	ErrNotConnected = errors.New("redutil/pubsub: session is not subscribed")
	// ErrNoNames is returned when a subscribe call is given nothing to
	// subscribe to.
	ErrNoNames = errors.New("redutil/pubsub: at least one channel or pattern is required")
	// ErrTooManyArguments is returned when Ping is given more than one
	// message.
	ErrTooManyArguments = errors.New("redutil/pubsub: ping accepts at most one message")
	// ErrSessionRunning is returned when Run is called on a session
	// which is already running.
	ErrSessionRunning = errors.New("redutil/pubsub: session is already running")
)

// ProtocolError is returned when the server pushes a frame which does not
// decode to any known pub/sub event. It is fatal to the session.
type ProtocolError struct {
	// Reply is the decoded value which could not be interpreted.
	Reply interface{}
	// Reason describes what was wrong with it.
	Reason string
}

func (p *ProtocolError) Error() string {
	return fmt.Sprintf("redutil/pubsub: protocol error: %s (reply %#v)", p.Reason, p.Reply)
}

func protocolErrorf(reply interface{}, format string, args ...interface{}) *ProtocolError {
	return &ProtocolError{Reply: reply, Reason: fmt.Sprintf(format, args...)}
}

// ConnectionLostError wraps a failure of the underlying connection, either
// while reading the next frame or while sending a command.
type ConnectionLostError struct {
	Err error
}

func (c *ConnectionLostError) Error() string {
	return "redutil/pubsub: connection lost: " + c.Err.Error()
}

func (c *ConnectionLostError) Unwrap() error { return c.Err }
