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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/tochemey/troupe/errors"
)

type greeting struct {
	Name  string `cbor:"1,keyasint"`
	Times int    `cbor:"2,keyasint"`
}

type unknown struct {
	Value int
}

func init() {
	RegisterSerializableTypes(new(greeting))
}

func TestCBORSerializer(t *testing.T) {
	serializer := NewCBORSerializer()

	t.Run("With a pointer message", func(t *testing.T) {
		bytea, err := serializer.Serialize(&greeting{Name: "troupe", Times: 2})
		require.NoError(t, err)

		decoded, err := serializer.Deserialize(bytea)
		require.NoError(t, err)
		assert.Equal(t, &greeting{Name: "troupe", Times: 2}, decoded)
	})
	t.Run("With a value message", func(t *testing.T) {
		bytea, err := serializer.Serialize(greeting{Name: "troupe"})
		require.NoError(t, err)

		decoded, err := serializer.Deserialize(bytea)
		require.NoError(t, err)
		assert.Equal(t, greeting{Name: "troupe"}, decoded)
	})
	t.Run("With builtin types", func(t *testing.T) {
		bytea, err := serializer.Serialize(15)
		require.NoError(t, err)
		decoded, err := serializer.Deserialize(bytea)
		require.NoError(t, err)
		assert.Equal(t, 15, decoded)
	})
	t.Run("With an unregistered type", func(t *testing.T) {
		_, err := serializer.Serialize(&unknown{Value: 1})
		assert.ErrorIs(t, err, ErrCBORTypeNotRegistered)
	})
	t.Run("With a nil message", func(t *testing.T) {
		_, err := serializer.Serialize(nil)
		assert.ErrorIs(t, err, ErrCBORNilMessage)
		var none *greeting
		_, err = serializer.Serialize(none)
		assert.ErrorIs(t, err, ErrCBORNilMessage)
	})
	t.Run("With a truncated payload", func(t *testing.T) {
		bytea, err := serializer.Serialize(&greeting{Name: "troupe"})
		require.NoError(t, err)
		_, err = serializer.Deserialize(bytea[:6])
		assert.ErrorIs(t, err, ErrCBORInvalidFrame)
	})
}

func TestCodec(t *testing.T) {
	for _, compression := range []Compression{NoCompression, ZstdCompression, BrotliCompression} {
		t.Run("With "+compression.String(), func(t *testing.T) {
			codec := NewCodec(WithCodecCompression(compression))
			message := &greeting{Name: strings.Repeat("troupe ", 64), Times: 3}

			frame := &Frame{Kind: KindPost}
			require.NoError(t, codec.Encode(frame, message))
			assert.Equal(t, CodecCBOR, frame.Codec)
			assert.Equal(t, compression, frame.Compression)

			decoded, err := codec.Decode(frame)
			require.NoError(t, err)
			assert.Equal(t, message, decoded)
		})
	}
	t.Run("With a protocol buffer message", func(t *testing.T) {
		codec := NewCodec()
		frame := &Frame{Kind: KindPost}
		require.NoError(t, codec.Encode(frame, wrapperspb.String("troupe")))
		assert.Equal(t, CodecProto, frame.Codec)

		decoded, err := codec.Decode(frame)
		require.NoError(t, err)
		assert.True(t, proto.Equal(wrapperspb.String("troupe"), decoded.(proto.Message)))
	})
	t.Run("With an unregistered message", func(t *testing.T) {
		codec := NewCodec()
		err := codec.Encode(&Frame{}, &unknown{})
		assert.ErrorIs(t, err, errors.ErrSerialization)
	})
	t.Run("With an unknown codec", func(t *testing.T) {
		codec := NewCodec()
		_, err := codec.Decode(&Frame{Codec: "xml"})
		assert.ErrorIs(t, err, errors.ErrSerialization)
	})
	t.Run("With a compression name", func(t *testing.T) {
		compression, err := ParseCompression("zstd")
		require.NoError(t, err)
		assert.Equal(t, ZstdCompression, compression)
		_, err = ParseCompression("lz4")
		assert.Error(t, err)
	})
}
