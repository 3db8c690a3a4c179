package graph

import (
	"bytes"
	"encoding/json"
)

// Codec encodes and decodes a channel's value for checkpoint snapshots.
// Encode output must be stable across calls for the same logical value so
// that checkpoints round-trip byte-identically (spec's checkpoint format
// contract): map keys sorted, no HTML-escaping of characters like "<",
// ">", "&", or "/".
type Codec interface {
	Encode(value any) ([]byte, error)
	Decode(data []byte, out any) error
}

// JSONCodec implements Codec using encoding/json. Go's encoding/json
// already sorts map[string]X keys when marshaling, which is the bulk of
// what a "canonical JSON" encoder buys you; the only adjustment needed is
// disabling HTML-escaping so that "</script>"-shaped tool output doesn't
// get mangled into unicode escapes on every re-encode.
type JSONCodec struct{}

// NewJSONCodec returns the default codec used by every built-in channel.
func NewJSONCodec() JSONCodec { return JSONCodec{} }

func (JSONCodec) Encode(value any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return nil, err
	}
	// json.Encoder.Encode appends a trailing newline; trim it so Encode
	// output matches json.Marshal for equality comparisons in tests.
	out := buf.Bytes()
	if n := len(out); n > 0 && out[n-1] == '\n' {
		out = out[:n-1]
	}
	return out, nil
}

func (JSONCodec) Decode(data []byte, out any) error {
	return json.Unmarshal(data, out)
}
