package kv

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Codec serializes values as zstd-compressed JSON. The engine uses it for the
// hourly-forecast cache blob, which is the only multi-kilobyte value in the
// store; everything else is stored as plain JSON.
type Codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewCodec creates a Codec. The encoder and decoder are reused across calls
// and are safe for concurrent use via EncodeAll/DecodeAll.
func NewCodec() (*Codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("kv codec: creating encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("kv codec: creating decoder: %w", err)
	}
	return &Codec{enc: enc, dec: dec}, nil
}

// Marshal JSON-encodes v and compresses the result.
func (c *Codec) Marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("kv codec: marshaling: %w", err)
	}
	return c.enc.EncodeAll(raw, nil), nil
}

// Unmarshal decompresses data and JSON-decodes it into v.
func (c *Codec) Unmarshal(data []byte, v any) error {
	raw, err := c.dec.DecodeAll(data, nil)
	if err != nil {
		return fmt.Errorf("kv codec: decompressing: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("kv codec: unmarshaling: %w", err)
	}
	return nil
}
