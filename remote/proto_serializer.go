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
	"errors"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"
)

// ErrNotProtoMessage is returned when serializing a value that is not a proto.Message
var ErrNotProtoMessage = errors.New("remote: message is not a proto message")

// ProtoSerializer encodes protocol buffer messages wrapped in anypb.Any so
// that the receiver resolves the concrete type from the global proto registry.
type ProtoSerializer struct{}

// enforce the Serializer interface at compile time.
var _ Serializer = (*ProtoSerializer)(nil)

// NewProtoSerializer creates a ProtoSerializer
func NewProtoSerializer() *ProtoSerializer {
	return &ProtoSerializer{}
}

// Serialize implements Serializer
func (s *ProtoSerializer) Serialize(message any) ([]byte, error) {
	msg, ok := message.(proto.Message)
	if !ok {
		return nil, ErrNotProtoMessage
	}

	packed, err := anypb.New(msg)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(packed)
}

// Deserialize implements Serializer
func (s *ProtoSerializer) Deserialize(data []byte) (any, error) {
	packed := new(anypb.Any)
	if err := proto.Unmarshal(data, packed); err != nil {
		return nil, err
	}
	return packed.UnmarshalNew()
}
