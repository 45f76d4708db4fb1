package codec

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// CBOROptions tune the CBOR codec.
type CBOROptions struct {
	// Canonical sorts map keys (RFC 8949 core deterministic encoding), so an
	// unchanged mapping is persisted as identical bytes on every save.
	Canonical bool
	// MaxMapPairs caps the entries accepted per decoded map; 0 => cbor default.
	MaxMapPairs int
}

// CBOR persists contents with fxamacker/cbor. Build it with NewCBOR or
// MustCBOR; the zero value has no modes and fails every call.
//
// Duplicate map keys are rejected on decode: a persisted mapping that holds
// the same key twice is treated as corrupt rather than silently merged.
type CBOR[T any] struct {
	em cbor.EncMode
	dm cbor.DecMode
}

var _ Codec[map[string]int] = CBOR[map[string]int]{}

func NewCBOR[T any](o CBOROptions) (CBOR[T], error) {
	eo := cbor.PreferredUnsortedEncOptions()
	if o.Canonical {
		eo = cbor.CoreDetEncOptions()
	}
	em, err := eo.EncMode()
	if err != nil {
		return CBOR[T]{}, fmt.Errorf("cbor: enc mode: %w", err)
	}

	do := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		MaxMapPairs: o.MaxMapPairs,
	}
	dm, err := do.DecMode()
	if err != nil {
		return CBOR[T]{}, fmt.Errorf("cbor: dec mode: %w", err)
	}
	return CBOR[T]{em: em, dm: dm}, nil
}

// MustCBOR is NewCBOR for package-level variables and tests.
func MustCBOR[T any](o CBOROptions) CBOR[T] {
	c, err := NewCBOR[T](o)
	if err != nil {
		panic(err)
	}
	return c
}

func (c CBOR[T]) Encode(v T) ([]byte, error) {
	if c.em == nil {
		return nil, errZeroCBOR
	}
	return c.em.Marshal(v)
}

func (c CBOR[T]) Decode(b []byte) (T, error) {
	var v T
	if c.dm == nil {
		return v, errZeroCBOR
	}
	err := c.dm.Unmarshal(b, &v)
	return v, err
}

var errZeroCBOR = errors.New("cbor: codec not initialized, use NewCBOR")
