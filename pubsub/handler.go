package pubsub

// Handler receives the events of a running Session. Every method is called
// on the session's dispatch goroutine, in the order Redis sent the frames,
// and before the next frame is read. Handlers may call the session's
// control methods (Subscribe, Unsubscribe, Ping...) to issue more commands
// on the same connection.
//
// Returning an error aborts the session; Run returns that error.
type Handler[T any] interface {
	OnSubscribe(s *Session[T], channel T, count int) error
	OnUnsubscribe(s *Session[T], channel T, count int) error
	OnPSubscribe(s *Session[T], pattern T, count int) error
	OnPUnsubscribe(s *Session[T], pattern T, count int) error
	OnMessage(s *Session[T], channel, payload T) error
	OnPMessage(s *Session[T], pattern, channel, payload T) error
	OnPong(s *Session[T], payload T) error
}

// NopHandler implements every Handler method as a noop. Embed it to
// implement only the methods you care about.
type NopHandler[T any] struct{}

var _ Handler[string] = NopHandler[string]{}

func (NopHandler[T]) OnSubscribe(*Session[T], T, int) error { return nil }
func (NopHandler[T]) OnUnsubscribe(*Session[T], T, int) error { return nil }
func (NopHandler[T]) OnPSubscribe(*Session[T], T, int) error { return nil }
func (NopHandler[T]) OnPUnsubscribe(*Session[T], T, int) error { return nil }
func (NopHandler[T]) OnMessage(*Session[T], T, T) error { return nil }
func (NopHandler[T]) OnPMessage(*Session[T], T, T, T) error { return nil }
func (NopHandler[T]) OnPong(*Session[T], T) error { return nil }

// HandlerFuncs is a Handler built from optional functions. Nil fields are
// treated as noops.
type HandlerFuncs[T any] struct {
	Subscribe    func(s *Session[T], channel T, count int) error
	Unsubscribe  func(s *Session[T], channel T, count int) error
	PSubscribe   func(s *Session[T], pattern T, count int) error
	PUnsubscribe func(s *Session[T], pattern T, count int) error
	Message      func(s *Session[T], channel, payload T) error
	PMessage     func(s *Session[T], pattern, channel, payload T) error
	Pong         func(s *Session[T], payload T) error
}

var _ Handler[[]byte] = HandlerFuncs[[]byte]{}

// OnSubscribe implements Handler.OnSubscribe
func (h HandlerFuncs[T]) OnSubscribe(s *Session[T], channel T, count int) error {
	if h.Subscribe == nil {
		return nil
	}
	return h.Subscribe(s, channel, count)
}

// OnUnsubscribe implements Handler.OnUnsubscribe
func (h HandlerFuncs[T]) OnUnsubscribe(s *Session[T], channel T, count int) error {
	if h.Unsubscribe == nil {
		return nil
	}
	return h.Unsubscribe(s, channel, count)
}

// OnPSubscribe implements Handler.OnPSubscribe
func (h HandlerFuncs[T]) OnPSubscribe(s *Session[T], pattern T, count int) error {
	if h.PSubscribe == nil {
		return nil
	}
	return h.PSubscribe(s, pattern, count)
}

// OnPUnsubscribe implements Handler.OnPUnsubscribe
func (h HandlerFuncs[T]) OnPUnsubscribe(s *Session[T], pattern T, count int) error {
	if h.PUnsubscribe == nil {
		return nil
	}
	return h.PUnsubscribe(s, pattern, count)
}

// OnMessage implements Handler.OnMessage
func (h HandlerFuncs[T]) OnMessage(s *Session[T], channel, payload T) error {
	if h.Message == nil {
		return nil
	}
	return h.Message(s, channel, payload)
}

// OnPMessage implements Handler.OnPMessage
func (h HandlerFuncs[T]) OnPMessage(s *Session[T], pattern, channel, payload T) error {
	if h.PMessage == nil {
		return nil
	}
	return h.PMessage(s, pattern, channel, payload)
}

// OnPong implements Handler.OnPong
func (h HandlerFuncs[T]) OnPong(s *Session[T], payload T) error {
	if h.Pong == nil {
		return nil
	}
	return h.Pong(s, payload)
}
