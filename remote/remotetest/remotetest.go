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

// Package remotetest provides the handler and the behavioral suite shared by
// the transport tests
package remotetest

import (
	"context"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travisjeffery/go-dynaport"

	"github.com/tochemey/troupe/address"
	"github.com/tochemey/troupe/remote"
)

// Recorder is a remote.Handler keeping the frames it receives. Requests are
// answered with a reply echoing their payload.
type Recorder struct {
	mu     sync.Mutex
	frames []*remote.Frame
	// Reject, when set, refuses the frames it returns an error for
	Reject func(frame *remote.Frame) error
}

// enforce compilation error
var _ remote.Handler = (*Recorder)(nil)

// Deliver implements remote.Handler
func (r *Recorder) Deliver(ctx context.Context, frame *remote.Frame, replier remote.Replier) error {
	if r.Reject != nil {
		if err := r.Reject(frame); err != nil {
			return err
		}
	}

	r.mu.Lock()
	r.frames = append(r.frames, frame)
	r.mu.Unlock()

	if frame.Kind == remote.KindRequest && replier != nil {
		return replier.Reply(ctx, &remote.Frame{
			Kind:          remote.KindReply,
			To:            frame.ReplyTo,
			CorrelationID: frame.CorrelationID,
			Payload:       frame.Payload,
		})
	}
	return nil
}

// Frames returns a snapshot of the received frames
func (r *Recorder) Frames() []*remote.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*remote.Frame(nil), r.frames...)
}

// WaitFor waits until n frames were received and returns them
func (r *Recorder) WaitFor(t *testing.T, n int) []*remote.Frame {
	t.Helper()
	require.Eventually(t, func() bool { return len(r.Frames()) >= n }, 5*time.Second, 5*time.Millisecond)
	return r.Frames()
}

// Config describes the transport under test
type Config struct {
	// New creates an instance of the transport
	New func(t *testing.T) remote.Protocol
	// Host and Port are handed to Listen, Port zero picking a free port
	Host string
	Port func() int
	// Unreachable tells whether sending to a peer nobody listens on fails
	Unreachable bool
	// Handshakes tells whether connecting to a peer waits for its answer,
	// so that a peer accepting connections without ever answering stalls
	// the dial
	Handshakes bool
}

// Node is a listening transport with its recorder
type Node struct {
	Protocol remote.Protocol
	Recorder *Recorder
}

// Endpoint returns the address of path on the node
func (n *Node) Endpoint(path string) address.Address {
	host, port := n.Protocol.Addr()
	return address.New(n.Protocol.Name(), host, port, path)
}

// Start creates a listening node, binding the given paths on brokered transports
func Start(t *testing.T, config Config, paths ...string) *Node {
	t.Helper()
	ctx := context.Background()

	port := 0
	if config.Port != nil {
		port = config.Port()
	}

	node := &Node{Protocol: config.New(t), Recorder: new(Recorder)}
	require.NoError(t, node.Protocol.Listen(ctx, config.Host, port, node.Recorder))
	t.Cleanup(func() { _ = node.Protocol.Close(context.Background()) })

	if binder, ok := node.Protocol.(remote.Binder); ok {
		for _, path := range paths {
			require.NoError(t, binder.Bind(ctx, path))
		}
	}
	return node
}

// Run checks the behavior every transport must have
func Run(t *testing.T, config Config) {
	t.Run("With posts kept in order", func(t *testing.T) {
		ctx := context.Background()
		server := Start(t, config, "ordered")
		client := Start(t, config, "client")

		const count = 100
		to := server.Endpoint("ordered")
		for i := range count {
			frame := &remote.Frame{Kind: remote.KindPost, To: to.String(), Payload: []byte(strconv.Itoa(i))}
			require.NoError(t, client.Protocol.Send(ctx, to, frame))
		}

		frames := server.Recorder.WaitFor(t, count)
		require.Len(t, frames, count)
		for i, frame := range frames {
			assert.Equal(t, remote.KindPost, frame.Kind)
			assert.Equal(t, strconv.Itoa(i), string(frame.Payload))
		}
	})
	t.Run("With a request answered", func(t *testing.T) {
		ctx := context.Background()
		server := Start(t, config, "answering")
		client := Start(t, config, "replies/client")

		to := server.Endpoint("answering")
		frame := &remote.Frame{
			Kind:          remote.KindRequest,
			To:            to.String(),
			CorrelationID: "c1",
			Payload:       []byte("ping"),
		}
		if !remote.IsDuplex(client.Protocol) {
			frame.ReplyTo = client.Endpoint("replies/client").String()
		}
		require.NoError(t, client.Protocol.Send(ctx, to, frame))

		replies := client.Recorder.WaitFor(t, 1)
		assert.Equal(t, remote.KindReply, replies[0].Kind)
		assert.Equal(t, "c1", replies[0].CorrelationID)
		assert.Equal(t, "ping", string(replies[0].Payload))
	})
	if config.Unreachable {
		t.Run("With an unreachable peer", func(t *testing.T) {
			client := Start(t, config, "client")
			to := address.New(client.Protocol.Name(), "127.0.0.1", dynaport.Get(1)[0], "nobody")

			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			err := client.Protocol.Send(ctx, to, &remote.Frame{Kind: remote.KindPost, To: to.String()})
			assert.Error(t, err)
		})
	}
	if config.Handshakes {
		t.Run("With a silent peer", func(t *testing.T) {
			ctx := context.Background()
			server := Start(t, config, "healthy")
			client := Start(t, config, "client")
			silent := listenSilently(t)

			stalled := make(chan error, 1)
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				to := address.New(client.Protocol.Name(), "127.0.0.1", silent, "nobody")
				stalled <- client.Protocol.Send(ctx, to, &remote.Frame{Kind: remote.KindPost, To: to.String()})
			}()
			// let the dial to the silent peer start
			time.Sleep(100 * time.Millisecond)

			to := server.Endpoint("healthy")
			start := time.Now()
			frame := &remote.Frame{Kind: remote.KindPost, To: to.String(), Payload: []byte("through")}
			require.NoError(t, client.Protocol.Send(ctx, to, frame))
			assert.Less(t, time.Since(start), time.Second)

			frames := server.Recorder.WaitFor(t, 1)
			assert.Equal(t, "through", string(frames[0].Payload))
			assert.Error(t, <-stalled)
		})
	}
	t.Run("After close", func(t *testing.T) {
		ctx := context.Background()
		server := Start(t, config, "closed")
		client := Start(t, config, "client")
		require.NoError(t, client.Protocol.Close(ctx))

		to := server.Endpoint("closed")
		err := client.Protocol.Send(ctx, to, &remote.Frame{Kind: remote.KindPost, To: to.String()})
		assert.Error(t, err)
		// closing twice is fine
		assert.NoError(t, client.Protocol.Close(ctx))
	})
}

// listenSilently accepts connections and never answers on them. It returns
// the port it listens on.
func listenSilently(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		conns []net.Conn
	)
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()

	t.Cleanup(func() {
		_ = listener.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, conn := range conns {
			_ = conn.Close()
		}
	})
	return listener.Addr().(*net.TCPAddr).Port
}
