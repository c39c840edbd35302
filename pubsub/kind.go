package pubsub

import "fmt"

// Kind distinguishes between the two namespaces Redis keeps subscriptions
// in: plain channels and glob patterns.
type Kind uint8

const (
	// Channel subscriptions match a published channel name exactly.
	Channel Kind = iota
	// Pattern subscriptions match published channel names by glob.
	Pattern
)

// SubCommand returns the command issued to subscribe in Redis.
func (k Kind) SubCommand() string {
	switch k {
	case Channel:
		return "SUBSCRIBE"
	case Pattern:
		return "PSUBSCRIBE"
	default:
		panic(fmt.Sprintf("redutil/pubsub: unknown subscription kind %d", k))
	}
}

// UnsubCommand returns the command issued to unsubscribe in Redis.
func (k Kind) UnsubCommand() string {
	switch k {
	case Channel:
		return "UNSUBSCRIBE"
	case Pattern:
		return "PUNSUBSCRIBE"
	default:
		panic(fmt.Sprintf("redutil/pubsub: unknown subscription kind %d", k))
	}
}

func (k Kind) String() string {
	switch k {
	case Channel:
		return "channel"
	case Pattern:
		return "pattern"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}
