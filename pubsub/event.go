package pubsub

import (
	"fmt"
	"strconv"
)

// EventType tags which pub/sub frame an Event was decoded from.
type EventType uint8

const (
	SubscribeEvent EventType = iota
	UnsubscribeEvent
	PSubscribeEvent
	PUnsubscribeEvent
	MessageEvent
	PMessageEvent
	PongEvent
)

// eventNames are the wire tags of each EventType, indexed by type.
var eventNames = [...]string{
	SubscribeEvent:    "subscribe",
	UnsubscribeEvent:  "unsubscribe",
	PSubscribeEvent:   "psubscribe",
	PUnsubscribeEvent: "punsubscribe",
	MessageEvent:      "message",
	PMessageEvent:     "pmessage",
	PongEvent:         "pong",
}

var eventTags = func() map[string]EventType {
	tags := make(map[string]EventType, len(eventNames))
	for typ, name := range eventNames {
		tags[name] = EventType(typ)
	}
	return tags
}()

func (e EventType) String() string {
	if int(e) < len(eventNames) {
		return eventNames[e]
	}

	return fmt.Sprintf("EventType(%d)", e)
}

// Kind returns the subscription namespace a subscribe or unsubscribe
// acknowledgement applies to.
func (e EventType) Kind() Kind {
	if e == PSubscribeEvent || e == PUnsubscribeEvent || e == PMessageEvent {
		return Pattern
	}

	return Channel
}

// Event is a single frame pushed by Redis on a subscribed connection.
// Which fields are set depends on the Type:
//
//	subscribe, unsubscribe     Channel, Count
//	psubscribe, punsubscribe   Pattern, Count
//	message                    Channel, Payload
//	pmessage                   Pattern, Channel, Payload
//	pong                       Payload
//
// All names and payloads are the raw bytes sent by the server.
type Event struct {
	Type    EventType
	Channel []byte
	Pattern []byte
	Payload []byte
	// Count is the number of subscriptions the connection holds after
	// a subscribe or unsubscribe was applied, as reported by Redis.
	Count int
}

// Name returns the channel or pattern a subscribe/unsubscribe
// acknowledgement refers to.
func (e Event) Name() []byte {
	if e.Type.Kind() == Pattern {
		return e.Pattern
	}

	return e.Channel
}

// Decode interprets a reply read from a subscribed connection. It expects
// the values produced by redigo's Receive: an []interface{} whose elements
// are []byte, string, int64 or nil. Any other shape, or an unknown tag,
// yields a *ProtocolError.
//
// The one exception is the "PONG" status reply Redis sends to a PING that
// reached it after the connection had left subscribed mode, which decodes
// as a pong with an empty payload.
func Decode(reply interface{}) (Event, error) {
	if status, ok := reply.(string); ok && status == "PONG" {
		return Event{Type: PongEvent, Payload: []byte{}}, nil
	}

	values, ok := reply.([]interface{})
	if !ok {
		return Event{}, protocolErrorf(reply, "expected an array reply, got %T", reply)
	}
	if len(values) < 2 {
		return Event{}, protocolErrorf(reply, "expected at least 2 elements, got %d", len(values))
	}

	tag, ok := bulk(values[0])
	if !ok || tag == nil {
		return Event{}, protocolErrorf(reply, "event tag is not a string")
	}
	typ, ok := eventTags[string(tag)]
	if !ok {
		return Event{}, protocolErrorf(reply, "unknown event %q", tag)
	}

	ev := Event{Type: typ}
	switch typ {
	case SubscribeEvent, PSubscribeEvent, UnsubscribeEvent, PUnsubscribeEvent:
		if len(values) != 3 {
			return Event{}, protocolErrorf(reply, "%s expects 3 elements, got %d", typ, len(values))
		}

		name, ok := bulk(values[1])
		// Redis replies with a nil name to an argument-less unsubscribe
		// when nothing of that kind is subscribed.
		if !ok || (name == nil && (typ == SubscribeEvent || typ == PSubscribeEvent)) {
			return Event{}, protocolErrorf(reply, "%s name is not a string", typ)
		}
		count, err := integer(values[2])
		if err != nil {
			return Event{}, protocolErrorf(reply, "%s count: %v", typ, err)
		}

		ev.Count = count
		if typ.Kind() == Pattern {
			ev.Pattern = name
		} else {
			ev.Channel = name
		}

	case MessageEvent:
		if len(values) != 3 {
			return Event{}, protocolErrorf(reply, "message expects 3 elements, got %d", len(values))
		}
		if ev.Channel, ok = bulk(values[1]); !ok || ev.Channel == nil {
			return Event{}, protocolErrorf(reply, "message channel is not a string")
		}
		if ev.Payload, ok = bulk(values[2]); !ok {
			return Event{}, protocolErrorf(reply, "message payload is not a string")
		}

	case PMessageEvent:
		if len(values) != 4 {
			return Event{}, protocolErrorf(reply, "pmessage expects 4 elements, got %d", len(values))
		}
		if ev.Pattern, ok = bulk(values[1]); !ok || ev.Pattern == nil {
			return Event{}, protocolErrorf(reply, "pmessage pattern is not a string")
		}
		if ev.Channel, ok = bulk(values[2]); !ok || ev.Channel == nil {
			return Event{}, protocolErrorf(reply, "pmessage channel is not a string")
		}
		if ev.Payload, ok = bulk(values[3]); !ok {
			return Event{}, protocolErrorf(reply, "pmessage payload is not a string")
		}

	case PongEvent:
		if len(values) != 2 {
			return Event{}, protocolErrorf(reply, "pong expects 2 elements, got %d", len(values))
		}
		if ev.Payload, ok = bulk(values[1]); !ok {
			return Event{}, protocolErrorf(reply, "pong payload is not a string")
		}
	}

	return ev, nil
}

// bulk converts a bulk or status value to bytes. A nil value is valid and
// returns a nil slice.
func bulk(v interface{}) ([]byte, bool) {
	switch t := v.(type) {
	case []byte:
		return t, true
	case string:
		return []byte(t), true
	case nil:
		return nil, true
	default:
		return nil, false
	}
}

func integer(v interface{}) (int, error) {
	switch t := v.(type) {
	case int64:
		return int(t), nil
	case []byte:
		return strconv.Atoi(string(t))
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
