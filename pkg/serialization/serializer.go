package serialization

import (
	"fmt"

	"github.com/eigerco/slashing/pkg/serialization/codec"
)

// Serializer provides methods to encode and decode using a specified codec.
type Serializer struct {
	codec codec.Codec
}

// NewSerializer initializes a new Serializer with the given codec.
func NewSerializer(c codec.Codec) *Serializer {
	return &Serializer{codec: c}
}

// NewSCALESerializer is the serializer used for everything kept in state.
func NewSCALESerializer() *Serializer {
	return NewSerializer(&codec.SCALECodec{})
}

// Encode serializes the given value using the codec.
func (s *Serializer) Encode(v interface{}) ([]byte, error) {
	b, err := s.codec.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return b, nil
}

// MustEncode is Encode for values whose encoding cannot fail, such as
// fixed-size keys.
func (s *Serializer) MustEncode(v interface{}) []byte {
	b, err := s.Encode(v)
	if err != nil {
		panic(err)
	}
	return b
}

// Decode deserializes the given data into the specified value using the codec.
func (s *Serializer) Decode(data []byte, v interface{}) error {
	if err := s.codec.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	return nil
}
