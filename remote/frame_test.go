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
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/troupe/errors"
)

func TestFrame(t *testing.T) {
	t.Run("With a stream of frames", func(t *testing.T) {
		buf := new(bytes.Buffer)
		frames := []*Frame{
			{Kind: KindPost, To: "utcp://127.0.0.1:9000/adder", Codec: CodecCBOR, Payload: []byte("one")},
			{Kind: KindRequest, Seq: 7, To: "utcp://127.0.0.1:9000/adder", ReplyTo: "utcp://127.0.0.1:9001/replies/x", CorrelationID: "c1"},
			{Kind: KindReply, CorrelationID: "c1", Failure: errors.FromError(errors.ErrMailboxFull)},
		}
		for _, frame := range frames {
			require.NoError(t, WriteFrame(buf, frame))
		}

		for _, expected := range frames {
			actual, err := ReadFrame(buf)
			require.NoError(t, err)
			assert.Equal(t, expected.Kind, actual.Kind)
			assert.Equal(t, expected.Seq, actual.Seq)
			assert.Equal(t, expected.To, actual.To)
			assert.Equal(t, expected.ReplyTo, actual.ReplyTo)
			assert.Equal(t, expected.CorrelationID, actual.CorrelationID)
			assert.Equal(t, expected.Payload, actual.Payload)
		}
	})
	t.Run("With a failure crossing the wire", func(t *testing.T) {
		buf := new(bytes.Buffer)
		require.NoError(t, WriteFrame(buf, &Frame{Kind: KindReply, Failure: errors.FromError(errors.ErrMailboxFull)}))
		frame, err := ReadFrame(buf)
		require.NoError(t, err)
		assert.ErrorIs(t, frame.Failure, errors.ErrMailboxFull)
	})
	t.Run("With an oversized header", func(t *testing.T) {
		var header [4]byte
		binary.BigEndian.PutUint32(header[:], MaxFrameSize+1)
		_, err := ReadFrame(bytes.NewReader(header[:]))
		assert.ErrorIs(t, err, errors.ErrSerialization)
	})
	t.Run("With a truncated body", func(t *testing.T) {
		var header [4]byte
		binary.BigEndian.PutUint32(header[:], 10)
		_, err := ReadFrame(bytes.NewReader(append(header[:], 1, 2)))
		assert.Error(t, err)
	})
	t.Run("With kind names", func(t *testing.T) {
		assert.Equal(t, "post", KindPost.String())
		assert.Equal(t, "ack", KindAck.String())
		assert.Equal(t, "kind(42)", Kind(42).String())
	})
}
