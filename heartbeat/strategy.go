package heartbeat

import "github.com/mixer/redutil/pubsub"

// Strategy is an interface to a type which is responsible for ticking a
// heart's "pulse": whatever needs to be done periodically to show the
// other end of a connection that we are still alive.
type Strategy interface {
	// Touch performs a single tick.
	Touch() (err error)
}

// StrategyFunc adapts a plain function to a Strategy.
type StrategyFunc func() error

// Touch implements Strategy.Touch
func (f StrategyFunc) Touch() error { return f() }

// PingStrategy keeps a running pub/sub session's connection alive by
// sending a PING down it on every tick. The pongs are delivered to the
// session's handler like any other event.
func PingStrategy[T any](s *pubsub.Session[T]) Strategy {
	return StrategyFunc(func() error { return s.Ping() })
}
