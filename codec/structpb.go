package codec

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Struct encodes map[string]any contents as a protobuf Struct. Values must be
// JSON-like (nil, bool, numbers, strings, []any, map[string]any); numbers come
// back as float64.
type Struct struct{}

var _ Codec[map[string]any] = Struct{}

func (Struct) Encode(m map[string]any) ([]byte, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

func (Struct) Decode(b []byte) (map[string]any, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return s.AsMap(), nil
}
