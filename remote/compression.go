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
	"fmt"
	"io"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// Compression names the algorithm applied to frame payloads. The
// algorithm travels in the frame so peers may use different settings.
type Compression uint8

const (
	// NoCompression sends payloads as produced by the serializer
	NoCompression Compression = iota
	// ZstdCompression uses Zstandard
	ZstdCompression
	// BrotliCompression uses Brotli
	BrotliCompression
)

// String returns the algorithm name
func (c Compression) String() string {
	switch c {
	case NoCompression:
		return "none"
	case ZstdCompression:
		return "zstd"
	case BrotliCompression:
		return "brotli"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression returns the Compression for name
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "none":
		return NoCompression, nil
	case "zstd":
		return ZstdCompression, nil
	case "brotli":
		return BrotliCompression, nil
	default:
		return NoCompression, fmt.Errorf("unknown compression %q", name)
	}
}

var (
	zstdEncoders = sync.Pool{
		New: func() any {
			enc, err := zstd.NewWriter(nil,
				zstd.WithEncoderLevel(zstd.SpeedDefault),
				zstd.WithEncoderConcurrency(1),
				zstd.WithLowerEncoderMem(true))
			if err != nil {
				return nil
			}
			return enc
		},
	}
	zstdDecoders = sync.Pool{
		New: func() any {
			dec, err := zstd.NewReader(nil,
				zstd.WithDecoderConcurrency(1),
				zstd.WithDecoderLowmem(true),
				zstd.WithDecoderMaxMemory(MaxFrameSize))
			if err != nil {
				return nil
			}
			return dec
		},
	}
)

func compress(c Compression, data []byte) ([]byte, error) {
	switch c {
	case NoCompression:
		return data, nil
	case ZstdCompression:
		enc, ok := zstdEncoders.Get().(*zstd.Encoder)
		if !ok || enc == nil {
			return nil, fmt.Errorf("zstd encoder unavailable")
		}
		defer zstdEncoders.Put(enc)
		return enc.EncodeAll(data, make([]byte, 0, len(data))), nil
	case BrotliCompression:
		buf := new(bytes.Buffer)
		writer := brotli.NewWriterLevel(buf, brotli.DefaultCompression)
		if _, err := writer.Write(data); err != nil {
			return nil, err
		}
		if err := writer.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported compression %s", c)
	}
}

func decompress(c Compression, data []byte) ([]byte, error) {
	switch c {
	case NoCompression:
		return data, nil
	case ZstdCompression:
		dec, ok := zstdDecoders.Get().(*zstd.Decoder)
		if !ok || dec == nil {
			return nil, fmt.Errorf("zstd decoder unavailable")
		}
		defer zstdDecoders.Put(dec)
		return dec.DecodeAll(data, nil)
	case BrotliCompression:
		return io.ReadAll(io.LimitReader(brotli.NewReader(bytes.NewReader(data)), MaxFrameSize))
	default:
		return nil, fmt.Errorf("unsupported compression %s", c)
	}
}
