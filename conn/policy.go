package conn

import (
	"math"
	"time"
)

// ReconnectPolicy decides how long to wait before redialing a lost
// connection.
type ReconnectPolicy interface {
	// Next returns the delay before the next attempt and counts the
	// attempt.
	Next() time.Duration
	// Reset forgets past attempts, typically once a connection is usable
	// again.
	Reset()
}

// StaticReconnectPolicy waits the same Delay before every attempt.
type StaticReconnectPolicy struct {
	Delay time.Duration
}

var _ ReconnectPolicy = new(StaticReconnectPolicy)

// Next implements ReconnectPolicy.Next
func (s *StaticReconnectPolicy) Next() time.Duration { return s.Delay }

// Reset implements ReconnectPolicy.Reset
func (s *StaticReconnectPolicy) Reset() {}

// LogReconnectPolicy backs off logarithmically: the nth attempt waits
// log_Base(n) * Factor, so the first retry is immediate and later ones
// grow ever more slowly.
type LogReconnectPolicy struct {
	Base   float64
	Factor time.Duration

	attempts float64
}

var _ ReconnectPolicy = new(LogReconnectPolicy)

// Next implements ReconnectPolicy.Next
func (l *LogReconnectPolicy) Next() time.Duration {
	l.attempts++
	return time.Duration(math.Log(l.attempts) / math.Log(l.Base) * float64(l.Factor))
}

// Reset implements ReconnectPolicy.Reset
func (l *LogReconnectPolicy) Reset() { l.attempts = 0 }
