// Package json provides a JSON codec for archetype records and schema documents.
package json

import (
	"encoding/json"

	"github.com/zoobzio/archetype"
)

// ContentType is the MIME type reported by the JSON codec.
const ContentType = "application/json"

// jsonCodec implements archetype.Codec for JSON.
type jsonCodec struct{}

// New returns a JSON codec.
func New() archetype.Codec {
	return &jsonCodec{}
}

// ContentType returns the MIME type for JSON.
func (c *jsonCodec) ContentType() string {
	return ContentType
}

// Marshal encodes v as JSON.
func (c *jsonCodec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, archetype.NewCodecError(archetype.ErrMarshal, err)
	}
	return data, nil
}

// Unmarshal decodes JSON data into v.
func (c *jsonCodec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return archetype.NewCodecError(archetype.ErrUnmarshal, err)
	}
	return nil
}
