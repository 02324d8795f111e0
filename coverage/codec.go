// Copyright 2021-2024 Nokia
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package coverage

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec is the structured encoding of a snapshot, applied before base64.
type Codec string

// Supported codecs.
const (
	CodecJSON    Codec = "json"
	CodecMsgpack Codec = "msgpack"
)

// Valid tells if codec is supported.
func (c Codec) Valid() bool {
	return c == CodecJSON || c == CodecMsgpack
}

// Marshal returns the structured encoding of the snapshot.
func (c Codec) Marshal(s Snapshot) ([]byte, error) {
	switch c {
	case CodecJSON:
		return json.Marshal(s)
	case CodecMsgpack:
		return marshalMsgpack(s)
	}
	return nil, fmt.Errorf("unknown codec %q", string(c))
}

// Unmarshal parses data encoded by Marshal.
func (c Codec) Unmarshal(data []byte) (Snapshot, error) {
	var s Snapshot
	var err error
	switch c {
	case CodecJSON:
		err = json.Unmarshal(data, &s)
	case CodecMsgpack:
		err = unmarshalMsgpack(data, &s)
	default:
		err = fmt.Errorf("unknown codec %q", string(c))
	}
	return s, err
}

// Encode serializes snapshot with codec, then makes base64 text of it.
func Encode(s Snapshot, c Codec) (string, error) {
	b, err := c.Marshal(s)
	if err != nil {
		return "", newError(PhaseEncode, err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// Decode reverses Encode.
func Decode(payload string, c Codec) (Snapshot, error) {
	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Snapshot{}, err
	}
	return c.Unmarshal(b)
}

/* MessagePack with json tags, so that both codecs produce the same field names. */

func marshalMsgpack(v any) ([]byte, error) {
	enc := msgpack.GetEncoder()
	defer msgpack.PutEncoder(enc)

	var buf bytes.Buffer
	enc.Reset(&buf)
	enc.SetCustomStructTag("json")
	enc.UseCompactInts(true)

	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func unmarshalMsgpack(data []byte, v any) error {
	dec := msgpack.GetDecoder()
	defer msgpack.PutDecoder(dec)

	dec.Reset(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}
