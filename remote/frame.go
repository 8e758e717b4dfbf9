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
	"encoding/binary"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/tochemey/troupe/errors"
)

// MaxFrameSize bounds the size of a single frame on the wire
const MaxFrameSize = 16 << 20

// Kind tells how a Frame must be handled by the receiving system
type Kind uint8

const (
	// KindPost carries an asynchronous message
	KindPost Kind = iota + 1
	// KindRequest carries a message expecting a correlated reply
	KindRequest
	// KindReply carries the result of a request
	KindReply
	// KindAck confirms (or refuses) delivery of a frame on duplex protocols
	KindAck
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindPost:
		return "post"
	case KindRequest:
		return "request"
	case KindReply:
		return "reply"
	case KindAck:
		return "ack"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Frame is the unit exchanged between actor systems
type Frame struct {
	Kind          Kind            `cbor:"1,keyasint"`
	Seq           uint64          `cbor:"2,keyasint,omitempty"`
	To            string          `cbor:"3,keyasint,omitempty"`
	ReplyTo       string          `cbor:"4,keyasint,omitempty"`
	CorrelationID string          `cbor:"5,keyasint,omitempty"`
	Codec         string          `cbor:"6,keyasint,omitempty"`
	Compression   Compression     `cbor:"7,keyasint,omitempty"`
	Payload       []byte          `cbor:"8,keyasint,omitempty"`
	Failure       *errors.Failure `cbor:"9,keyasint,omitempty"`
}

var (
	frameEncMode cbor.EncMode
	frameDecMode cbor.DecMode
)

func init() {
	var err error
	frameEncMode, err = cbor.EncOptions{
		Sort:        cbor.SortNone,
		IndefLength: cbor.IndefLengthForbidden,
	}.EncMode()
	if err != nil {
		panic(err)
	}

	frameDecMode, err = cbor.DecOptions{
		MaxNestedLevels: 32,
		IndefLength:     cbor.IndefLengthForbidden,
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

// MarshalFrame encodes the frame body without length prefix
func MarshalFrame(frame *Frame) ([]byte, error) {
	bytea, err := frameEncMode.Marshal(frame)
	if err != nil {
		return nil, errors.NewErrSerialization(err)
	}
	return bytea, nil
}

// UnmarshalFrame decodes a frame body produced by MarshalFrame
func UnmarshalFrame(data []byte) (*Frame, error) {
	frame := new(Frame)
	if err := frameDecMode.Unmarshal(data, frame); err != nil {
		return nil, errors.NewErrSerialization(err)
	}
	return frame, nil
}

// WriteFrame writes the frame to w with a big-endian uint32 length prefix
func WriteFrame(w io.Writer, frame *Frame) error {
	body, err := MarshalFrame(frame)
	if err != nil {
		return err
	}

	if len(body) > MaxFrameSize {
		return errors.NewErrSerialization(fmt.Errorf("frame of %d bytes exceeds %d", len(body), MaxFrameSize))
	}

	buf := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(buf[:4], uint32(len(body)))
	copy(buf[4:], body)
	_, err = w.Write(buf)
	return err
}

// ReadFrame reads one length-prefixed frame from r
func ReadFrame(r io.Reader) (*Frame, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	size := binary.BigEndian.Uint32(header[:])
	if size > MaxFrameSize {
		return nil, errors.NewErrSerialization(fmt.Errorf("frame of %d bytes exceeds %d", size, MaxFrameSize))
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return UnmarshalFrame(body)
}
