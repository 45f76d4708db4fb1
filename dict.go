package cachewrap

import (
	"iter"
	"maps"
	"reflect"
)

// Dict is the default in-memory Mapping.
type Dict[K comparable, V any] map[K]V

var _ Mapping[string, int] = Dict[string, int]{}

// NewDict returns an empty Dict. It is the default builder and the
// non-persistent loader.
func NewDict[K comparable, V any]() Dict[K, V] {
	return make(Dict[K, V])
}

func (d Dict[K, V]) Get(key K) (V, bool) {
	v, ok := d[key]
	return v, ok
}

func (d Dict[K, V]) Set(key K, value V) { d[key] = value }
func (d Dict[K, V]) Delete(key K)       { delete(d, key) }
func (d Dict[K, V]) Len() int           { return len(d) }

func (d Dict[K, V]) All() iter.Seq2[K, V] { return maps.All(d) }

// isNil reports whether m holds no mapping at all, including a nil map or
// pointer behind a non-nil interface such as Dict[K, V](nil).
func isNil[K comparable, V any](m Mapping[K, V]) bool {
	if m == nil {
		return true
	}
	if d, ok := m.(Dict[K, V]); ok {
		return d == nil
	}
	switch v := reflect.ValueOf(m); v.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// ToDict returns m as a Dict, copying only when m is some other Mapping.
func ToDict[K comparable, V any](m Mapping[K, V]) Dict[K, V] {
	if isNil(m) {
		return nil
	}
	if d, ok := m.(Dict[K, V]); ok {
		return d
	}
	out := make(Dict[K, V], m.Len())
	for k, v := range m.All() {
		out[k] = v
	}
	return out
}
