package codec

import "github.com/vmihailenco/msgpack/v5"

// Msgpack is a Codec that serializes values using vmihailenco/msgpack/v5.
// The zero value is ready to use.
//
// Use `msgpack:"fieldName"` tags on value structs if you need explicit control.
type Msgpack[T any] struct{}

func (Msgpack[T]) Encode(v T) ([]byte, error) {
	return msgpack.Marshal(v)
}
func (Msgpack[T]) Decode(b []byte) (T, error) {
	var v T
	err := msgpack.Unmarshal(b, &v)
	return v, err
}
