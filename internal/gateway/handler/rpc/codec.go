package rpc

import (
	"encoding/json"

	"connectrpc.com/connect"

	"sitegen/internal/util/jsonutil"
)

// jsonCodec replaces connect's protojson codec so plain Go structs can be
// served as messages.
type jsonCodec struct{}

var _ connect.Codec = jsonCodec{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) { return jsonutil.MarshalNoEscape(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// WithJSON configures a handler or client to use the struct JSON codec.
func WithJSON() connect.Option {
	return connect.WithCodec(jsonCodec{})
}
