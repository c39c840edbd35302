package pubsub

import (
	"io"
	"strings"
	"sync"
)

// fakeRedis is a Transport which answers pub/sub commands the way a Redis
// server would, queueing acknowledgements and published messages to be
// read by Receive.
type fakeRedis struct {
	mu     sync.Mutex
	cond   *sync.Cond
	frames []interface{}
	closed bool

	sent     [][]interface{}
	receives int

	channels []string
	patterns []string
}

var _ Transport = new(fakeRedis)

func newFakeRedis() *fakeRedis {
	f := &fakeRedis{}
	f.cond = sync.NewCond(&f.mu)
	return f
}

func (f *fakeRedis) Send(command string, args ...interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return io.ErrClosedPipe
	}

	f.sent = append(f.sent, append([]interface{}{command}, args...))
	names := make([]string, len(args))
	for i, a := range args {
		switch t := a.(type) {
		case []byte:
			names[i] = string(t)
		case string:
			names[i] = t
		}
	}

	switch strings.ToUpper(command) {
	case "SUBSCRIBE":
		for _, n := range names {
			f.channels = addName(f.channels, n)
			f.pushLocked("subscribe", n, f.countLocked())
		}
	case "PSUBSCRIBE":
		for _, n := range names {
			f.patterns = addName(f.patterns, n)
			f.pushLocked("psubscribe", n, f.countLocked())
		}
	case "UNSUBSCRIBE":
		f.channels = f.unsubscribeLocked("unsubscribe", f.channels, names)
	case "PUNSUBSCRIBE":
		f.patterns = f.unsubscribeLocked("punsubscribe", f.patterns, names)
	case "PING":
		// Outside subscribed mode Redis answers with a plain status.
		if f.countLocked() == 0 {
			f.frames = append(f.frames, "PONG")
			break
		}
		payload := []byte{}
		if len(args) > 0 {
			payload = []byte(names[0])
		}
		f.frames = append(f.frames, []interface{}{[]byte("pong"), payload})
	}

	f.cond.Broadcast()
	return nil
}

func (f *fakeRedis) unsubscribeLocked(tag string, set, names []string) []string {
	if len(names) == 0 {
		if len(set) == 0 {
			f.frames = append(f.frames, []interface{}{[]byte(tag), nil, int64(f.countLocked())})
			return set
		}
		names = append([]string(nil), set...)
	}

	for _, n := range names {
		set = removeName(set, n)
		if tag == "unsubscribe" {
			f.channels = set
		} else {
			f.patterns = set
		}
		f.pushLocked(tag, n, f.countLocked())
	}

	return set
}

func (f *fakeRedis) pushLocked(tag, name string, count int) {
	f.frames = append(f.frames, []interface{}{[]byte(tag), []byte(name), int64(count)})
}

func (f *fakeRedis) countLocked() int { return len(f.channels) + len(f.patterns) }

func (f *fakeRedis) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return io.ErrClosedPipe
	}
	return nil
}

func (f *fakeRedis) Receive() (interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.receives++
	for len(f.frames) == 0 && !f.closed {
		f.cond.Wait()
	}
	if f.closed {
		return nil, io.ErrClosedPipe
	}

	frame := f.frames[0]
	f.frames = f.frames[1:]
	return frame, nil
}

func (f *fakeRedis) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return io.ErrClosedPipe
	}
	return nil
}

func (f *fakeRedis) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	f.cond.Broadcast()
	return nil
}

// Publish delivers a message to subscribed channels and then to every
// matching pattern, returning the number of receivers like PUBLISH.
func (f *fakeRedis) Publish(channel string, payload []byte) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, c := range f.channels {
		if c == channel {
			f.frames = append(f.frames, []interface{}{[]byte("message"), []byte(channel), payload})
			n++
		}
	}
	for _, p := range f.patterns {
		if Match([]byte(p), []byte(channel)) {
			f.frames = append(f.frames, []interface{}{[]byte("pmessage"), []byte(p), []byte(channel), payload})
			n++
		}
	}

	f.cond.Broadcast()
	return n
}

// Inject queues an arbitrary frame.
func (f *fakeRedis) Inject(frame interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.frames = append(f.frames, frame)
	f.cond.Broadcast()
}

// Pending returns the number of queued frames nobody has read yet.
func (f *fakeRedis) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

// Receives returns how many times Receive was called.
func (f *fakeRedis) Receives() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.receives
}

func addName(set []string, name string) []string {
	for _, n := range set {
		if n == name {
			return set
		}
	}
	return append(set, name)
}

func removeName(set []string, name string) []string {
	for i, n := range set {
		if n == name {
			return append(set[:i:i], set[i+1:]...)
		}
	}
	return set
}
