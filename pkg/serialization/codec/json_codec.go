package codec

import (
	"encoding/json"
)

// JSONCodec implements the Codec interface for JSON encoding and decoding.
type JSONCodec struct {
	// Indent pretty-prints marshalled output when set.
	Indent string
}

func (j *JSONCodec) Marshal(v interface{}) ([]byte, error) {
	if j.Indent != "" {
		return json.MarshalIndent(v, "", j.Indent)
	}
	return json.Marshal(v)
}

func (j *JSONCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
