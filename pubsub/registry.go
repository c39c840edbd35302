package pubsub

import "sort"

// Registry tracks the channels and patterns the server has confirmed we
// are subscribed to. Names are keyed by their raw bytes, so binary names
// survive unchanged.
//
// A Registry is not safe for concurrent use; the Session only mutates it
// from the dispatch loop.
type Registry struct {
	sets [2]map[string]struct{}
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sets: [2]map[string]struct{}{
		Channel: {},
		Pattern: {},
	}}
}

// Add records a subscription. Adding a name twice is a noop.
func (r *Registry) Add(kind Kind, name []byte) {
	r.sets[kind][string(name)] = struct{}{}
}

// Remove drops a subscription. Removing a name that was never added is
// a noop, matching Redis, which still acknowledges such an unsubscribe.
func (r *Registry) Remove(kind Kind, name []byte) {
	delete(r.sets[kind], string(name))
}

// Has reports whether the name is subscribed in the given namespace.
func (r *Registry) Has(kind Kind, name []byte) bool {
	_, ok := r.sets[kind][string(name)]
	return ok
}

// Count returns the number of subscriptions of one kind.
func (r *Registry) Count(kind Kind) int { return len(r.sets[kind]) }

// Len returns the total number of subscriptions across both namespaces.
func (r *Registry) Len() int { return len(r.sets[Channel]) + len(r.sets[Pattern]) }

// IsEmpty is true once nothing of either kind remains subscribed.
func (r *Registry) IsEmpty() bool { return r.Len() == 0 }

// Names returns the subscribed names of a kind in sorted order.
func (r *Registry) Names(kind Kind) [][]byte {
	keys := make([]string, 0, len(r.sets[kind]))
	for name := range r.sets[kind] {
		keys = append(keys, name)
	}
	sort.Strings(keys)

	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = []byte(k)
	}

	return out
}
