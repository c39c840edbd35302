package pubsub

// Subscribe asks Redis to add the channels to the running session. It
// returns once the command is written; the subscriptions take effect, and
// OnSubscribe is called, when the acknowledgements are read by the loop.
func (s *Session[T]) Subscribe(channels ...T) error {
	if len(channels) == 0 {
		return ErrNoNames
	}
	return s.send(Channel.SubCommand(), channels, len(channels), true)
}

// PSubscribe asks Redis to add the patterns to the running session.
func (s *Session[T]) PSubscribe(patterns ...T) error {
	if len(patterns) == 0 {
		return ErrNoNames
	}
	return s.send(Pattern.SubCommand(), patterns, len(patterns), true)
}

// Unsubscribe asks Redis to remove the channels from the session, or every
// subscribed channel if none are given. Once nothing is subscribed, the
// session's Run returns.
func (s *Session[T]) Unsubscribe(channels ...T) error {
	return s.send(Channel.UnsubCommand(), channels, 0, true)
}

// PUnsubscribe asks Redis to remove the patterns from the session, or
// every subscribed pattern if none are given.
func (s *Session[T]) PUnsubscribe(patterns ...T) error {
	return s.send(Pattern.UnsubCommand(), patterns, 0, true)
}

// Ping sends a PING down the subscribed connection, optionally with a
// message to be echoed back. The reply is delivered to OnPong if it is read
// before the session ends. Once the last subscription is being removed,
// Ping returns ErrNotConnected.
func (s *Session[T]) Ping(message ...T) error {
	if len(message) > 1 {
		return ErrTooManyArguments
	}
	return s.send("PING", message, 0, false)
}

// send writes a command while the session is running. draining reports
// whether the command is still allowed once the session is draining.
func (s *Session[T]) send(command string, names []T, replies int, draining bool) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	switch s.state {
	case StartingState, ActiveState:
	case DrainingState:
		if !draining {
			return ErrNotConnected
		}
	default:
		return ErrNotConnected
	}

	return s.sendLocked(command, names, replies)
}

// sendLocked writes and flushes one command. replies is the number of
// acknowledgements the command is expected to produce which the loop
// must wait for before it may stop. sendMu must be held.
func (s *Session[T]) sendLocked(command string, names []T, replies int) error {
	if s.cnx == nil || s.cnx.Err() != nil {
		return ErrNotConnected
	}

	args := make([]interface{}, len(names))
	for i, name := range names {
		args[i] = s.codec.Encode(name)
	}

	if err := s.cnx.Send(command, args...); err != nil {
		return &ConnectionLostError{Err: err}
	}
	if err := s.cnx.Flush(); err != nil {
		return &ConnectionLostError{Err: err}
	}

	s.pending += replies
	s.log.Debug().Str("command", command).Int("names", len(names)).Msg("pubsub command sent")

	return nil
}
