// Package carlpb defines the wire messages and gRPC service surface between
// CARL and its peers/clients (EDGAR, Cleo, the CLI, and CARL dashboards).
// Messages are plain Go structs rather than protoc-generated types: CARL
// registers a gob-based grpc.Codec instead of the default proto codec, so
// transport, streaming, and flow control all run through real gRPC without
// requiring a protoc toolchain in this build.
package carlpb

import (
	"bytes"
	"encoding/gob"

	"github.com/pkg/errors"
)

// GobCodec implements the legacy grpc.Codec interface (grpc-go's
// CustomCodec hook, still present in the pinned grpc release) using
// encoding/gob instead of protobuf wire encoding.
type GobCodec struct{}

func (GobCodec) Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, errors.Wrap(err, "gob marshal")
	}
	return buf.Bytes(), nil
}

func (GobCodec) Unmarshal(data []byte, v interface{}) error {
	return errors.Wrap(gob.NewDecoder(bytes.NewReader(data)).Decode(v), "gob unmarshal")
}

func (GobCodec) String() string { return "gob" }
