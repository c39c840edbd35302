package main

import (
	"github.com/rs/zerolog"

	"github.com/mixer/redutil/conn"
	"github.com/mixer/redutil/heartbeat"
	"github.com/mixer/redutil/pubsub"
)

// subscriber logs every event of a text session. A message whose payload
// is the configured exit payload drops the subscription it arrived on.
type subscriber struct {
	log zerolog.Logger
	cfg Config
	// policy, if set, is reset once a connection gets its first
	// subscription acknowledged.
	policy conn.ReconnectPolicy

	// deferred are the patterns to subscribe once the channel
	// subscription of the first command is acknowledged.
	deferred []string
	heart    *heartbeat.SimpleHeart
	active   bool
}

var _ pubsub.Handler[string] = new(subscriber)

func newSubscriber(log zerolog.Logger, cfg Config) *subscriber {
	return &subscriber{log: log, cfg: cfg}
}

// run subscribes to the configured channels and patterns on cnx and blocks
// until the session is over.
func (s *subscriber) run(session *pubsub.Session[string], cnx pubsub.Transport) error {
	s.heart = nil
	s.active = false
	defer s.stopHeart()

	if len(s.cfg.Channels) == 0 {
		s.deferred = nil
		return session.RunPSubscribe(cnx, s.cfg.Patterns...)
	}

	s.deferred = s.cfg.Patterns
	return session.RunSubscribe(cnx, s.cfg.Channels...)
}

func (s *subscriber) started(session *pubsub.Session[string]) error {
	if !s.active {
		s.active = true
		if s.policy != nil {
			s.policy.Reset()
		}
	}
	if s.heart == nil && s.cfg.Heartbeat > 0 {
		s.heart = heartbeat.NewSimpleHeart(s.cfg.Heartbeat, heartbeat.PingStrategy(session), nil)
		go s.watchHeart(s.heart)
	}

	if len(s.deferred) == 0 {
		return nil
	}
	patterns := s.deferred
	s.deferred = nil

	return session.PSubscribe(patterns...)
}

func (s *subscriber) watchHeart(h *heartbeat.SimpleHeart) {
	for {
		select {
		case err := <-h.Errs():
			s.log.Warn().Err(err).Msg("heartbeat failed")
		case <-h.Done():
			return
		}
	}
}

func (s *subscriber) stopHeart() {
	if s.heart != nil {
		s.heart.Close()
	}
}

func (s *subscriber) OnSubscribe(session *pubsub.Session[string], channel string, count int) error {
	s.log.Info().Str("channel", channel).Int("count", count).Msg("subscribed")
	return s.started(session)
}

func (s *subscriber) OnPSubscribe(session *pubsub.Session[string], pattern string, count int) error {
	s.log.Info().Str("pattern", pattern).Int("count", count).Msg("subscribed")
	return s.started(session)
}

func (s *subscriber) OnUnsubscribe(_ *pubsub.Session[string], channel string, count int) error {
	s.log.Info().Str("channel", channel).Int("count", count).Msg("unsubscribed")
	return nil
}

func (s *subscriber) OnPUnsubscribe(_ *pubsub.Session[string], pattern string, count int) error {
	s.log.Info().Str("pattern", pattern).Int("count", count).Msg("unsubscribed")
	return nil
}

func (s *subscriber) OnMessage(session *pubsub.Session[string], channel, payload string) error {
	s.log.Info().Str("channel", channel).Str("payload", payload).Msg("message")
	if s.isExit(payload) {
		return session.Unsubscribe(channel)
	}

	return nil
}

func (s *subscriber) OnPMessage(session *pubsub.Session[string], pattern, channel, payload string) error {
	s.log.Info().Str("pattern", pattern).Str("channel", channel).Str("payload", payload).Msg("message")
	if s.isExit(payload) {
		return session.PUnsubscribe(pattern)
	}

	return nil
}

func (s *subscriber) OnPong(_ *pubsub.Session[string], payload string) error {
	s.log.Debug().Str("payload", payload).Msg("pong")
	return nil
}

func (s *subscriber) isExit(payload string) bool {
	return s.cfg.ExitPayload != "" && payload == s.cfg.ExitPayload
}
