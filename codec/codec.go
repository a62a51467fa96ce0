// Package codec defines the serialization used for durable snapshots.
// A store encodes its whole item collection through one Codec before
// handing it to a storage backend, and decodes the same bytes at cold
// start. Codecs must round-trip: Decode(Encode(v)) yields an equal value.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
