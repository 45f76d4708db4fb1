// Package codec serializes whole cache contents for persistence.
// T is usually map[K]V; store.Store converts between it and cachewrap.Dict.
package codec

// Codec encodes/decodes values T to []byte for storage.
type Codec[T any] interface {
	Encode(T) ([]byte, error)
	Decode([]byte) (T, error)
}
