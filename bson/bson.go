// Package bson provides a BSON codec for archetype records and schema documents.
package bson

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsonrw"

	"github.com/zoobzio/archetype"
)

// ContentType is the MIME type reported by the BSON codec.
const ContentType = "application/bson"

// bsonCodec implements archetype.Codec for BSON.
type bsonCodec struct{}

// New returns a BSON codec.
func New() archetype.Codec {
	return &bsonCodec{}
}

// ContentType returns the MIME type for BSON.
func (c *bsonCodec) ContentType() string {
	return ContentType
}

// Marshal encodes v as BSON.
func (c *bsonCodec) Marshal(v any) ([]byte, error) {
	data, err := bson.Marshal(v)
	if err != nil {
		return nil, archetype.NewCodecError(archetype.ErrMarshal, err)
	}
	return data, nil
}

// Unmarshal decodes BSON data into v.
func (c *bsonCodec) Unmarshal(data []byte, v any) error {
	dec, err := bson.NewDecoder(bsonrw.NewBSONDocumentReader(data))
	if err != nil {
		return archetype.NewCodecError(archetype.ErrUnmarshal, err)
	}
	// Nested documents decode as maps rather than ordered key/value slices.
	dec.DefaultDocumentM()
	if err := dec.Decode(v); err != nil {
		return archetype.NewCodecError(archetype.ErrUnmarshal, err)
	}
	return nil
}
