/*
 * MIT License
 *
 * Copyright (c) 2022-2025 Arsene Tochemey Gandote
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package remote

import (
	"fmt"

	"google.golang.org/protobuf/proto"

	"github.com/tochemey/troupe/errors"
)

// Serializer turns messages into self-describing bytes and back.
// Implementations must be safe for concurrent use and must preserve the
// dynamic type of the message across a round trip.
type Serializer interface {
	// Serialize encodes message
	Serialize(message any) ([]byte, error)
	// Deserialize decodes bytes produced by Serialize
	Deserialize(data []byte) (any, error)
}

// Codec names
const (
	CodecCBOR  = "cbor"
	CodecProto = "proto"
)

// Codec encodes message payloads into frames. Protocol buffer messages go
// through the proto serializer, everything else through CBOR unless another
// serializer is registered under the CBOR name.
type Codec struct {
	serializers map[string]Serializer
	compression Compression
}

// CodecOption configures a Codec
type CodecOption func(*Codec)

// WithCodecSerializer registers serializer under name
func WithCodecSerializer(name string, serializer Serializer) CodecOption {
	return func(c *Codec) {
		c.serializers[name] = serializer
	}
}

// WithCodecCompression sets the compression applied to outgoing payloads
func WithCodecCompression(compression Compression) CodecOption {
	return func(c *Codec) {
		c.compression = compression
	}
}

// NewCodec creates a Codec with the CBOR and proto serializers
func NewCodec(opts ...CodecOption) *Codec {
	codec := &Codec{
		serializers: map[string]Serializer{
			CodecCBOR:  NewCBORSerializer(),
			CodecProto: NewProtoSerializer(),
		},
	}
	for _, opt := range opts {
		opt(codec)
	}
	return codec
}

// Encode writes message into the frame payload
func (c *Codec) Encode(frame *Frame, message any) error {
	name := CodecCBOR
	if _, ok := message.(proto.Message); ok {
		name = CodecProto
	}

	serializer, ok := c.serializers[name]
	if !ok {
		return errors.NewErrSerialization(fmt.Errorf("unknown codec %q", name))
	}

	bytea, err := serializer.Serialize(message)
	if err != nil {
		return errors.NewErrSerialization(err)
	}

	payload, err := compress(c.compression, bytea)
	if err != nil {
		return errors.NewErrSerialization(err)
	}

	frame.Codec = name
	frame.Compression = c.compression
	frame.Payload = payload
	return nil
}

// Decode reads the message carried by the frame payload
func (c *Codec) Decode(frame *Frame) (any, error) {
	serializer, ok := c.serializers[frame.Codec]
	if !ok {
		return nil, errors.NewErrSerialization(fmt.Errorf("unknown codec %q", frame.Codec))
	}

	bytea, err := decompress(frame.Compression, frame.Payload)
	if err != nil {
		return nil, errors.NewErrSerialization(err)
	}

	message, err := serializer.Deserialize(bytea)
	if err != nil {
		return nil, errors.NewErrSerialization(err)
	}
	return message, nil
}
