package codec

import "encoding/json"

// JSON is the default snapshot codec. The zero value is ready to use.
// It matches the remote API's own encoding, so a snapshot file stays
// human-readable when debugging a dead-network session.
type JSON[V any] struct{}

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }
func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	err := json.Unmarshal(b, &v)
	return v, err
}
