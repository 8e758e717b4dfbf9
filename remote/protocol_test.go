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
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/troupe/address"
	"github.com/tochemey/troupe/errors"
	"github.com/tochemey/troupe/log"
)

// recorder is an in-memory Protocol recording what it sends
type recorder struct {
	mu     sync.Mutex
	sent   []*Frame
	to     []address.Address
	duplex bool
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) Listen(context.Context, string, int, Handler) error { return nil }

func (r *recorder) Addr() (string, int) { return "127.0.0.1", 1 }

func (r *recorder) Send(_ context.Context, to address.Address, frame *Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, frame)
	r.to = append(r.to, to)
	return nil
}

func (r *recorder) Close(context.Context) error { return nil }

func (r *recorder) Duplex() bool { return r.duplex }

func TestProtocolRegistry(t *testing.T) {
	Register("recorder", func(log.Logger) (Protocol, error) { return new(recorder), nil })

	protocol, err := New("recorder", log.DiscardLogger)
	require.NoError(t, err)
	assert.Equal(t, "recorder", protocol.Name())
	assert.Contains(t, Protocols(), "recorder")

	_, err = New("carrier-pigeon", log.DiscardLogger)
	assert.ErrorIs(t, err, errors.ErrProtocolNotFound)
}

func TestIsDuplex(t *testing.T) {
	assert.False(t, IsDuplex(&recorder{}))
	assert.True(t, IsDuplex(&recorder{duplex: true}))
}

func TestSendReplier(t *testing.T) {
	ctx := context.Background()
	protocol := new(recorder)
	replier := NewSendReplier(protocol)

	require.NoError(t, replier.Reply(ctx, &Frame{Kind: KindReply, To: "recorder://127.0.0.1:2/replies/x", CorrelationID: "c1"}))
	require.Len(t, protocol.sent, 1)
	assert.Equal(t, "c1", protocol.sent[0].CorrelationID)
	assert.Equal(t, "replies/x", protocol.to[0].Path())

	assert.Error(t, replier.Reply(ctx, &Frame{Kind: KindReply, To: "::"}))
}

func TestAdvertiseHost(t *testing.T) {
	host, err := AdvertiseHost("127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", host)
}
