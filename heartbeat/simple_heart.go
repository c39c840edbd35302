package heartbeat

import (
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/mixer/redutil/pubsub"
)

// SimpleHeart is a implementation of the `type Heart interface` which calls
// the provided Strategy at every Interval.
type SimpleHeart struct {
	Interval time.Duration
	strategy Strategy

	ticker    *clock.Ticker
	closer    chan struct{}
	closeOnce sync.Once
	done      chan struct{}
	errs      chan error
}

var _ Heart = new(SimpleHeart)

// NewSimpleHeart allocates and returns a new instance of a SimpleHeart,
// initialized with the given parameters.
//
// strategy is the Strategy that will be Touch()'d at the given interval.
// clk is the clock used to schedule ticks; if nil, the wall clock is used.
//
// The first tick happens one interval after the heart is created. The
// heart stops by itself once the strategy reports pubsub.ErrNotConnected,
// which is what PingStrategy does once its session is draining. Any other
// error is made available on Errs(); if nobody is reading it, further
// errors are dropped until it is drained.
func NewSimpleHeart(interval time.Duration, strategy Strategy, clk clock.Clock) *SimpleHeart {
	if clk == nil {
		clk = clock.New()
	}

	sh := &SimpleHeart{
		Interval: interval,
		strategy: strategy,

		ticker: clk.Ticker(interval),
		closer: make(chan struct{}),
		done:   make(chan struct{}),
		errs:   make(chan error, 1),
	}

	go sh.heartbeat()

	return sh
}

// Close implements the `func Close` defined in the `type Heart interface`. It
// stops the heartbeat process and waits for it to exit.
func (s *SimpleHeart) Close() {
	s.closeOnce.Do(func() { close(s.closer) })
	<-s.done
}

// Done implements the `func Done` defined in the `type Heart interface`.
func (s *SimpleHeart) Done() <-chan struct{} {
	return s.done
}

// Errs implements the `func Errs` defined in the `type Heart interface`. It
// returns a read-only channel of errors encountered during the heartbeat
// operation.
func (s *SimpleHeart) Errs() <-chan error {
	return s.errs
}

// touch calls .Touch() on the Heart's strategy and pushes any error that
// occurred to the errs channel. It returns false once there is nothing left
// to keep alive.
func (s *SimpleHeart) touch() bool {
	err := s.strategy.Touch()
	if err == nil {
		return true
	}
	if errors.Is(err, pubsub.ErrNotConnected) {
		return false
	}

	select {
	case s.errs <- err:
	default:
	}

	return true
}

// heartbeat is a function responsible for ticking the updater.
//
// It runs in its own goroutine.
func (s *SimpleHeart) heartbeat() {
	defer close(s.done)
	defer s.ticker.Stop()

	for {
		select {
		case <-s.ticker.C:
			if !s.touch() {
				return
			}
		case <-s.closer:
			return
		}
	}
}
