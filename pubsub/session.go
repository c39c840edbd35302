// Package pubsub runs Redis subscriptions on a single connection.
//
// A Session turns a redigo connection into a blocking, callback-driven
// subscription loop. Run sends the initial SUBSCRIBE or PSUBSCRIBE and then
// reads frames until the last subscription is removed, calling the Handler
// for every acknowledgement, message and pong along the way:
//
//	cnx, _ := conn.Dial(conn.ConnectionParam{Address: "127.0.0.1:6379"})
//	defer cnx.Close()
//
//	session := pubsub.NewTextSession(pubsub.HandlerFuncs[string]{
//		Message: func(s *pubsub.Session[string], channel, payload string) error {
//			fmt.Printf("%s: %s\n", channel, payload)
//			if payload == "exit" {
//				return s.Unsubscribe(channel)
//			}
//			return nil
//		},
//	})
//
//	// Blocks until every channel has been unsubscribed.
//	err := session.RunSubscribe(cnx, "foo", "bar")
//
// Handlers run on the goroutine that called Run and may call Subscribe,
// PSubscribe, Unsubscribe, PUnsubscribe and Ping on the session; those
// calls only write a command and return, and the resulting
// acknowledgements come back through the loop. The same methods are safe to
// call from other goroutines while the session is running.
//
// Subscriptions are tracked as the server confirms them, so Count and
// Channels never run ahead of what Redis has acknowledged.
package pubsub

import (
	"sync"

	"github.com/gomodule/redigo/redis"
	"github.com/rs/zerolog"
)

// Transport is the part of a redigo connection a Session needs. Any
// redis.Conn satisfies it.
type Transport interface {
	Send(commandName string, args ...interface{}) error
	Flush() error
	Receive() (reply interface{}, err error)
	Err() error
}

var _ Transport = redis.Conn(nil)

// State is the lifecycle position of a Session.
type State uint8

const (
	// IdleState sessions have never been run.
	IdleState State = iota
	// StartingState sessions are sending their initial subscription.
	StartingState
	// ActiveState sessions are reading and dispatching frames.
	ActiveState
	// DrainingState sessions are removing their last subscription, or have
	// removed it and are waiting on subscribe acknowledgements still in
	// flight before returning. Pings are refused from here on.
	DrainingState
	// TerminatedState sessions have returned from Run.
	TerminatedState
)

func (s State) String() string {
	switch s {
	case IdleState:
		return "idle"
	case StartingState:
		return "starting"
	case ActiveState:
		return "active"
	case DrainingState:
		return "draining"
	case TerminatedState:
		return "terminated"
	default:
		return "unknown"
	}
}

// Session drives one subscription loop at a time over a connection it
// borrows for the duration of Run. The zero value is not usable; create
// sessions with NewSession, NewTextSession or NewBinarySession.
type Session[T any] struct {
	codec   Codec[T]
	handler Handler[T]
	log     zerolog.Logger

	// sendMu serializes writes to cnx and guards cnx, state and pending.
	sendMu sync.Mutex
	cnx    Transport
	state  State
	// pending is the number of subscribe acknowledgements that were
	// requested but not yet read. Pongs are not counted: a pong never
	// keeps an otherwise empty session reading.
	pending int

	regMu sync.RWMutex
	reg   *Registry
}

// NewSession creates a session which converts names and payloads with
// the codec and reports events to the handler.
func NewSession[T any](codec Codec[T], handler Handler[T]) *Session[T] {
	return &Session[T]{
		codec:   codec,
		handler: handler,
		log:     zerolog.Nop(),
		state:   IdleState,
		reg:     NewRegistry(),
	}
}

// NewTextSession creates a session whose handler sees strings.
func NewTextSession(handler Handler[string]) *Session[string] {
	return NewSession(Text, handler)
}

// NewBinarySession creates a session whose handler sees raw bytes.
func NewBinarySession(handler Handler[[]byte]) *Session[[]byte] {
	return NewSession(Binary, handler)
}

// SetLogger changes the logger the session reports its progress to. It
// should be called before Run.
func (s *Session[T]) SetLogger(log zerolog.Logger) *Session[T] {
	s.log = log
	return s
}

// RunSubscribe subscribes to the channels and dispatches events until
// nothing remains subscribed or an error occurs.
func (s *Session[T]) RunSubscribe(cnx Transport, channels ...T) error {
	return s.Run(cnx, Channel, channels...)
}

// RunPSubscribe subscribes to the patterns and dispatches events until
// nothing remains subscribed or an error occurs.
func (s *Session[T]) RunPSubscribe(cnx Transport, patterns ...T) error {
	return s.Run(cnx, Pattern, patterns...)
}

// Run sends the initial subscription of the given kind on cnx and blocks,
// dispatching events to the handler, until every channel and pattern has
// been unsubscribed. It returns nil in that case. Otherwise it returns the
// first *ConnectionLostError, *ProtocolError, Redis error reply or handler
// error encountered.
//
// The connection is not closed when Run returns. If Run failed, the
// connection is in an unknown state and should be discarded.
func (s *Session[T]) Run(cnx Transport, kind Kind, names ...T) error {
	if len(names) == 0 {
		return ErrNoNames
	}

	s.sendMu.Lock()
	switch s.state {
	case StartingState, ActiveState, DrainingState:
		s.sendMu.Unlock()
		return ErrSessionRunning
	}

	s.cnx = cnx
	s.pending = 0
	s.setState(StartingState)
	s.regMu.Lock()
	s.reg = NewRegistry()
	s.regMu.Unlock()

	if err := s.sendLocked(kind.SubCommand(), names, len(names)); err != nil {
		s.terminateLocked()
		s.sendMu.Unlock()
		PromSessionErrors.Inc()
		return err
	}
	s.setState(ActiveState)
	s.sendMu.Unlock()

	PromSessions.Inc()
	defer PromSessions.Dec()

	err := s.loop(cnx)

	s.sendMu.Lock()
	s.terminateLocked()
	s.sendMu.Unlock()

	if err != nil {
		PromSessionErrors.Inc()
		s.log.Warn().Err(err).Msg("pubsub session aborted")
	}

	return err
}

// loop reads and dispatches frames until the registry drains.
func (s *Session[T]) loop(cnx Transport) error {
	for {
		reply, err := cnx.Receive()
		if err != nil {
			if _, ok := err.(redis.Error); ok {
				return err
			}
			return &ConnectionLostError{Err: err}
		}

		ev, err := Decode(reply)
		if err != nil {
			return err
		}
		PromEvents.WithLabelValues(ev.Type.String()).Inc()

		done, err := s.dispatch(ev)
		if err != nil || done {
			return err
		}
	}
}

// dispatch applies one event to the registry and hands it to the handler.
// It returns true once the session has nothing left to wait for.
func (s *Session[T]) dispatch(ev Event) (done bool, err error) {
	stop := gaugeLatency(PromDispatchLatency)
	defer stop()

	s.log.Debug().
		Str("event", ev.Type.String()).
		Bytes("channel", ev.Channel).
		Bytes("pattern", ev.Pattern).
		Int("count", ev.Count).
		Msg("pubsub event")

	c := s.codec
	switch ev.Type {
	case SubscribeEvent, PSubscribeEvent:
		s.track(ev.Type.Kind(), ev.Name(), true)
		s.acknowledge()

		if ev.Type == SubscribeEvent {
			return false, s.handler.OnSubscribe(s, c.Decode(ev.Channel), ev.Count)
		}
		return false, s.handler.OnPSubscribe(s, c.Decode(ev.Pattern), ev.Count)

	case UnsubscribeEvent, PUnsubscribeEvent:
		s.removing(ev.Type.Kind(), ev.Name())
		if ev.Type == UnsubscribeEvent {
			err = s.handler.OnUnsubscribe(s, c.Decode(ev.Channel), ev.Count)
		} else {
			err = s.handler.OnPUnsubscribe(s, c.Decode(ev.Pattern), ev.Count)
		}
		if err != nil {
			return false, err
		}

		s.track(ev.Type.Kind(), ev.Name(), false)
		return s.drained(), nil

	case MessageEvent:
		return false, s.handler.OnMessage(s, c.Decode(ev.Channel), c.Decode(ev.Payload))

	case PMessageEvent:
		return false, s.handler.OnPMessage(s, c.Decode(ev.Pattern), c.Decode(ev.Channel), c.Decode(ev.Payload))

	case PongEvent:
		return false, s.handler.OnPong(s, c.Decode(ev.Payload))
	}

	return false, nil
}

// track records a confirmed subscription change in the registry.
func (s *Session[T]) track(kind Kind, name []byte, subscribed bool) {
	s.regMu.Lock()
	defer s.regMu.Unlock()

	had := s.reg.Has(kind, name)
	switch {
	case subscribed && !had:
		s.reg.Add(kind, name)
		PromSubscriptions.Inc()
	case !subscribed && had:
		s.reg.Remove(kind, name)
		PromSubscriptions.Dec()
	}
}

// acknowledge marks one subscribe acknowledgement as received. If the
// session was draining, the subscription brings it back to active.
func (s *Session[T]) acknowledge() {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if s.pending > 0 {
		s.pending--
	}
	if s.state == DrainingState && !s.isEmpty() {
		s.setState(ActiveState)
	}
}

// removing moves an active session to draining when the unsubscribe about
// to be handled leaves nothing subscribed. Redis has already left
// subscribed mode at that point, so the handler may resubscribe but not
// ping.
func (s *Session[T]) removing(kind Kind, name []byte) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.regMu.RLock()
	left := s.reg.Len()
	if s.reg.Has(kind, name) {
		left--
	}
	s.regMu.RUnlock()

	if left == 0 && s.state == ActiveState {
		s.setState(DrainingState)
	}
}

// drained checks, after an unsubscribe was applied, whether the loop
// should stop. It stops once nothing is subscribed and no subscription
// sent since is still waiting on its acknowledgement.
func (s *Session[T]) drained() bool {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if !s.isEmpty() {
		return false
	}
	if s.state == ActiveState {
		s.setState(DrainingState)
	}
	if s.pending > 0 {
		return false
	}

	s.terminateLocked()
	return true
}

func (s *Session[T]) isEmpty() bool {
	s.regMu.RLock()
	defer s.regMu.RUnlock()
	return s.reg.IsEmpty()
}

// terminateLocked releases the connection and discards the registry.
// sendMu must be held. It is safe to call more than once.
func (s *Session[T]) terminateLocked() {
	if s.state == TerminatedState {
		return
	}

	s.regMu.Lock()
	PromSubscriptions.Sub(float64(s.reg.Len()))
	s.reg = NewRegistry()
	s.regMu.Unlock()

	s.cnx = nil
	s.pending = 0
	s.setState(TerminatedState)
}

func (s *Session[T]) setState(state State) {
	s.log.Debug().Stringer("from", s.state).Stringer("to", state).Msg("pubsub session state")
	s.state = state
}

// State returns where the session is in its lifecycle.
func (s *Session[T]) State() State {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return s.state
}

// IsSubscribed reports whether Redis has confirmed at least one
// subscription that has not since been removed.
func (s *Session[T]) IsSubscribed() bool { return s.Count() > 0 }

// Count returns the number of confirmed channel and pattern subscriptions.
func (s *Session[T]) Count() int {
	s.regMu.RLock()
	defer s.regMu.RUnlock()
	return s.reg.Len()
}

// Channels returns the confirmed channel subscriptions, sorted by their
// byte representation.
func (s *Session[T]) Channels() []T { return s.names(Channel) }

// Patterns returns the confirmed pattern subscriptions, sorted by their
// byte representation.
func (s *Session[T]) Patterns() []T { return s.names(Pattern) }

func (s *Session[T]) names(kind Kind) []T {
	s.regMu.RLock()
	raw := s.reg.Names(kind)
	s.regMu.RUnlock()

	out := make([]T, len(raw))
	for i, name := range raw {
		out[i] = s.codec.Decode(name)
	}

	return out
}
