package pubsub

// Codec converts between the raw bytes Redis sends and the type handlers
// work with. The dispatch loop is identical for every codec; only the
// conversion at the edges changes.
type Codec[T any] interface {
	// Decode converts a name or payload read from the wire.
	Decode(b []byte) T
	// Encode converts a name or payload to be sent in a command.
	Encode(v T) []byte
}

// Binary hands names and payloads to handlers exactly as they were read.
var Binary Codec[[]byte] = binaryCodec{}

// Text hands names and payloads to handlers as strings.
var Text Codec[string] = textCodec{}

type binaryCodec struct{}

func (binaryCodec) Decode(b []byte) []byte { return b }
func (binaryCodec) Encode(v []byte) []byte { return v }

type textCodec struct{}

func (textCodec) Decode(b []byte) string { return string(b) }
func (textCodec) Encode(v string) []byte { return []byte(v) }
