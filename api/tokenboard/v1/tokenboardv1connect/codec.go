package tokenboardv1connect

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"connectrpc.com/connect"
)

var _ connect.Codec = Codec{}

// Codec is a strict JSON codec for plain Go message structs. Unknown
// fields and trailing data are errors, so malformed requests fail before
// a handler runs.
type Codec struct{}

// Name replaces connect's protobuf based JSON codec.
func (Codec) Name() string {
	return "json"
}

func (Codec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (Codec) Unmarshal(data []byte, msg any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(msg); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after message")
	}
	return nil
}
