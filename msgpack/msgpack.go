// Package msgpack provides a MessagePack codec for archetype records and schema documents.
package msgpack

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/zoobzio/archetype"
)

// ContentType is the MIME type reported by the MessagePack codec.
const ContentType = "application/msgpack"

// msgpackCodec implements archetype.Codec for MessagePack.
type msgpackCodec struct{}

// New returns a MessagePack codec.
func New() archetype.Codec {
	return &msgpackCodec{}
}

// ContentType returns the MIME type for MessagePack.
func (c *msgpackCodec) ContentType() string {
	return ContentType
}

// Marshal encodes v as MessagePack.
func (c *msgpackCodec) Marshal(v any) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, archetype.NewCodecError(archetype.ErrMarshal, err)
	}
	return data, nil
}

// Unmarshal decodes MessagePack data into v.
func (c *msgpackCodec) Unmarshal(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	// Integers decode as int64 and floats as float64 inside untyped values.
	dec.UseLooseInterfaceDecoding(true)
	if err := dec.Decode(v); err != nil {
		return archetype.NewCodecError(archetype.ErrUnmarshal, err)
	}
	return nil
}
