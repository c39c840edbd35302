package heartbeat_test

import (
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mixer/redutil/heartbeat"
	"github.com/mixer/redutil/pubsub"
)

type TestStrategy struct {
	mock.Mock
	called chan struct{}
}

func newTestStrategy() *TestStrategy {
	return &TestStrategy{called: make(chan struct{}, 1)}
}

func (s *TestStrategy) Touch() error {
	args := s.Called()
	s.called <- struct{}{}
	return args.Error(0)
}

func (s *TestStrategy) waitForCall(t *testing.T) {
	select {
	case <-s.called:
	case <-time.After(time.Second):
		t.Fatal("expected to get a call to the strategy")
	}
}

func waitDone(t *testing.T, h heartbeat.Heart) {
	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("expected the heart to stop")
	}
}

func TestConstruction(t *testing.T) {
	h := heartbeat.NewSimpleHeart(time.Second, heartbeat.StrategyFunc(func() error { return nil }), nil)
	defer h.Close()

	assert.IsType(t, &heartbeat.SimpleHeart{}, h)
	assert.Equal(t, time.Second, h.Interval)
}

func TestStrategyIsCalledAtInterval(t *testing.T) {
	clk := clock.NewMock()
	strategy := newTestStrategy()
	strategy.On("Touch").Return(nil)

	h := heartbeat.NewSimpleHeart(50*time.Millisecond, strategy, clk)
	defer h.Close()

	strategy.AssertNumberOfCalls(t, "Touch", 0)

	clk.Add(50 * time.Millisecond)
	strategy.waitForCall(t)
	clk.Add(50 * time.Millisecond)
	strategy.waitForCall(t)

	strategy.AssertNumberOfCalls(t, "Touch", 2)
}

func TestStrategyPropogatesErrors(t *testing.T) {
	clk := clock.NewMock()
	strategy := newTestStrategy()
	err := errors.New("some error")
	strategy.On("Touch").Return(err)

	h := heartbeat.NewSimpleHeart(100*time.Millisecond, strategy, clk)
	defer h.Close()

	clk.Add(100 * time.Millisecond)
	strategy.waitForCall(t)

	select {
	case got := <-h.Errs():
		assert.Equal(t, err, got)
	case <-time.After(time.Second):
		t.Fatal("expected an error from the heart")
	}
}

func TestCloseStopsCallingStrategy(t *testing.T) {
	clk := clock.NewMock()
	strategy := newTestStrategy()
	strategy.On("Touch").Return(nil)

	h := heartbeat.NewSimpleHeart(5*time.Millisecond, strategy, clk)
	h.Close()
	h.Close()

	clk.Add(10 * time.Millisecond)
	waitDone(t, h)
	strategy.AssertNumberOfCalls(t, "Touch", 0)
}

func TestStopsWhenSessionIsNotConnected(t *testing.T) {
	clk := clock.NewMock()
	session := pubsub.NewTextSession(pubsub.NopHandler[string]{})

	h := heartbeat.NewSimpleHeart(time.Second, heartbeat.PingStrategy(session), clk)
	defer h.Close()

	clk.Add(time.Second)
	waitDone(t, h)
	assert.Len(t, h.Errs(), 0)
}

// pingConn answers SUBSCRIBE, PING and UNSUBSCRIBE for a single channel.
type pingConn struct {
	frames chan interface{}
}

func (p *pingConn) Send(command string, args ...interface{}) error {
	switch command {
	case "SUBSCRIBE":
		p.frames <- []interface{}{[]byte("subscribe"), args[0], int64(1)}
	case "PING":
		p.frames <- []interface{}{[]byte("pong"), []byte("")}
	case "UNSUBSCRIBE":
		p.frames <- []interface{}{[]byte("unsubscribe"), []byte("foo"), int64(0)}
	}
	return nil
}

func (p *pingConn) Flush() error { return nil }
func (p *pingConn) Receive() (interface{}, error) { return <-p.frames, nil }
func (p *pingConn) Err() error { return nil }

func TestPingStrategyKeepsSessionAlive(t *testing.T) {
	clk := clock.NewMock()
	cnx := &pingConn{frames: make(chan interface{}, 16)}
	started := make(chan *heartbeat.SimpleHeart, 1)
	ponged := make(chan struct{}, 1)
	pongs := 0

	session := pubsub.NewTextSession(pubsub.HandlerFuncs[string]{
		Subscribe: func(s *pubsub.Session[string], channel string, count int) error {
			started <- heartbeat.NewSimpleHeart(time.Second, heartbeat.PingStrategy(s), clk)
			return nil
		},
		Pong: func(s *pubsub.Session[string], payload string) error {
			pongs++
			ponged <- struct{}{}
			if pongs == 2 {
				return s.Unsubscribe()
			}
			return nil
		},
	})

	done := make(chan error, 1)
	go func() { done <- session.RunSubscribe(cnx, "foo") }()

	var h *heartbeat.SimpleHeart
	select {
	case h = <-started:
	case <-time.After(time.Second):
		t.Fatal("expected the session to subscribe")
	}
	defer h.Close()

	for i := 0; i < 2; i++ {
		clk.Add(time.Second)
		select {
		case <-ponged:
		case <-time.After(time.Second):
			t.Fatal("expected a pong")
		}
	}

	select {
	case err := <-done:
		require.Nil(t, err)
	case <-time.After(time.Second):
		t.Fatal("expected the session to return")
	}

	clk.Add(time.Second)
	waitDone(t, h)
	assert.Equal(t, 2, pongs)
}
