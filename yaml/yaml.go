// Package yaml provides a YAML codec for archetype records and schema documents.
package yaml

import (
	"gopkg.in/yaml.v3"

	"github.com/zoobzio/archetype"
)

// ContentType is the MIME type reported by the YAML codec.
const ContentType = "application/yaml"

// yamlCodec implements archetype.Codec for YAML.
type yamlCodec struct{}

// New returns a YAML codec.
func New() archetype.Codec {
	return &yamlCodec{}
}

// ContentType returns the MIME type for YAML.
func (c *yamlCodec) ContentType() string {
	return ContentType
}

// Marshal encodes v as YAML.
func (c *yamlCodec) Marshal(v any) ([]byte, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, archetype.NewCodecError(archetype.ErrMarshal, err)
	}
	return data, nil
}

// Unmarshal decodes YAML data into v.
func (c *yamlCodec) Unmarshal(data []byte, v any) error {
	if err := yaml.Unmarshal(data, v); err != nil {
		return archetype.NewCodecError(archetype.ErrUnmarshal, err)
	}
	return nil
}
