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
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"github.com/tochemey/troupe/internal/types"
)

// typesRegistry resolves wire type names back into Go types
var typesRegistry = types.NewRegistry()

var (
	// ErrCBORNilMessage is returned when serializing a nil message
	ErrCBORNilMessage = errors.New("remote: CBOR message is nil")
	// ErrCBORTypeNotRegistered is returned for types missing from the registry
	ErrCBORTypeNotRegistered = errors.New("remote: CBOR type not registered")
	// ErrCBORInvalidFrame is returned for truncated or inconsistent payloads
	ErrCBORInvalidFrame = errors.New("remote: malformed or truncated CBOR frame")
)

func init() {
	RegisterSerializableTypes(
		false, "",
		int(0), int8(0), int16(0), int32(0), int64(0),
		uint(0), uint8(0), uint16(0), uint32(0), uint64(0),
		float32(0), float64(0),
		[]byte(nil), []string(nil), []int(nil), []any(nil),
		map[string]any(nil), map[string]string(nil),
	)
}

// RegisterSerializableTypes makes the types of the given values decodable.
// Pass a value or a pointer of each message type exchanged between systems.
func RegisterSerializableTypes(values ...any) {
	for _, v := range values {
		typesRegistry.Register(v)
	}
}

// envelope carries a message with the name of its type. Pointer records
// whether the sender passed a pointer so the receiver gets the same shape.
type envelope struct {
	Type    string          `cbor:"1,keyasint"`
	Pointer bool            `cbor:"2,keyasint,omitempty"`
	Body    cbor.RawMessage `cbor:"3,keyasint"`
}

// CBORSerializer encodes registered Go values with CBOR
type CBORSerializer struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var _ Serializer = (*CBORSerializer)(nil)

// NewCBORSerializer returns a CBORSerializer bound to the global types registry
func NewCBORSerializer() *CBORSerializer {
	enc, _ := cbor.EncOptions{
		IndefLength: cbor.IndefLengthForbidden,
		Time:        cbor.TimeUnixDynamic,
	}.EncMode()
	dec, _ := cbor.DecOptions{
		MaxNestedLevels: 64,
		IndefLength:     cbor.IndefLengthForbidden,
		UTF8:            cbor.UTF8DecodeInvalid,
	}.DecMode()
	return &CBORSerializer{enc: enc, dec: dec}
}

// Serialize implements Serializer
func (s *CBORSerializer) Serialize(message any) ([]byte, error) {
	value := reflect.ValueOf(message)
	if !value.IsValid() || (value.Kind() == reflect.Pointer && value.IsNil()) {
		return nil, ErrCBORNilMessage
	}

	name := types.Name(message)
	if !typesRegistry.Contains(message) {
		return nil, fmt.Errorf("%w: %s", ErrCBORTypeNotRegistered, name)
	}

	body, err := s.enc.Marshal(message)
	if err != nil {
		return nil, err
	}
	return s.enc.Marshal(&envelope{
		Type:    name,
		Pointer: value.Kind() == reflect.Pointer,
		Body:    body,
	})
}

// Deserialize implements Serializer
func (s *CBORSerializer) Deserialize(data []byte) (any, error) {
	var env envelope
	if err := s.dec.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCBORInvalidFrame, err)
	}

	rtype, ok := typesRegistry.Lookup(env.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCBORTypeNotRegistered, env.Type)
	}

	ptr := reflect.New(rtype)
	if err := s.dec.Unmarshal(env.Body, ptr.Interface()); err != nil {
		return nil, err
	}
	if env.Pointer {
		return ptr.Interface(), nil
	}
	return ptr.Elem().Interface(), nil
}
