package codec

import "encoding/json"

// JSON is the default codec. Map keys must be strings or integers.
type JSON[T any] struct{}

var _ Codec[map[string]int] = JSON[map[string]int]{}

func (JSON[T]) Encode(v T) ([]byte, error) { return json.Marshal(v) }
func (JSON[T]) Decode(b []byte) (T, error) {
	var v T
	err := json.Unmarshal(b, &v)
	return v, err
}
