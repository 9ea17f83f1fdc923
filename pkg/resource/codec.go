package resource

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"

	"github.com/pkg/errors"
)

// encode produces a length-delimited record: a uvarint byte-length followed
// by a gob encoding of v, the same encoding carlpb.GobCodec uses on the
// wire. See DESIGN.md for why gob is used instead of gogo/protobuf: several
// persisted entities (PeerConnectionState, PeerConfiguration's Parameter) are
// variant/union-shaped, which gogo's reflection-based marshaler cannot
// encode without protoc-generated oneof support.
func encode(v interface{}) ([]byte, error) {
	var body bytes.Buffer
	if err := gob.NewEncoder(&body).Encode(v); err != nil {
		return nil, errors.Wrap(err, "encode")
	}
	lenPrefix := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(lenPrefix, uint64(body.Len()))
	out := make([]byte, 0, n+body.Len())
	out = append(out, lenPrefix[:n]...)
	out = append(out, body.Bytes()...)
	return out, nil
}

func decode(data []byte, v interface{}) error {
	length, n := binary.Uvarint(data)
	if n <= 0 {
		return errors.New("decode: corrupt length prefix")
	}
	body := data[n:]
	if uint64(len(body)) != length {
		return errors.Errorf("decode: length mismatch: header=%d actual=%d", length, len(body))
	}
	if err := gob.NewDecoder(bytes.NewReader(body)).Decode(v); err != nil {
		return errors.Wrap(err, "decode")
	}
	return nil
}
