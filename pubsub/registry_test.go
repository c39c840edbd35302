package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryTracksBothNamespaces(t *testing.T) {
	r := NewRegistry()
	assert.True(t, r.IsEmpty())

	r.Add(Channel, []byte("foo"))
	r.Add(Channel, []byte("foo"))
	r.Add(Pattern, []byte("foo"))

	assert.False(t, r.IsEmpty())
	assert.Equal(t, 1, r.Count(Channel))
	assert.Equal(t, 1, r.Count(Pattern))
	assert.Equal(t, 2, r.Len())
	assert.True(t, r.Has(Pattern, []byte("foo")))

	r.Remove(Channel, []byte("foo"))
	assert.False(t, r.Has(Channel, []byte("foo")))
	assert.False(t, r.IsEmpty())

	r.Remove(Pattern, []byte("foo"))
	assert.True(t, r.IsEmpty())
}

func TestRegistryRemoveUnknownIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Add(Channel, []byte("a"))
	r.Remove(Channel, []byte("b"))
	r.Remove(Pattern, nil)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryNamesAreSortedAndBinarySafe(t *testing.T) {
	r := NewRegistry()
	r.Add(Channel, []byte("b"))
	r.Add(Channel, []byte{0xff, 0x00})
	r.Add(Channel, []byte("a"))

	assert.Equal(t, [][]byte{[]byte("a"), []byte("b"), {0xff, 0x00}}, r.Names(Channel))
	assert.Empty(t, r.Names(Pattern))
}
