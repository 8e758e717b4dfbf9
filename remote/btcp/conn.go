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

package btcp

import (
	"bufio"
	"context"
	"net"
	"sync"

	"go.uber.org/atomic"

	"github.com/tochemey/troupe/remote"
)

// conn is one side of a btcp connection
type conn struct {
	netConn net.Conn

	writeMu sync.Mutex
	writer  *bufio.Writer

	seq     atomic.Uint64
	mu      sync.Mutex
	waiters map[uint64]chan *remote.Frame

	closeOnce sync.Once
	done      chan struct{}
}

// enforce compilation error
var _ remote.Replier = (*conn)(nil)

func newConn(netConn net.Conn) *conn {
	return &conn{
		netConn: netConn,
		writer:  bufio.NewWriter(netConn),
		waiters: make(map[uint64]chan *remote.Frame),
		done:    make(chan struct{}),
	}
}

// Reply implements remote.Replier. Replies are not acknowledged.
func (c *conn) Reply(ctx context.Context, frame *remote.Frame) error {
	return c.write(ctx, frame)
}

// write sends frame, giving up at the deadline of ctx. A failed write
// leaves a partial frame behind, so the connection is closed.
func (c *conn) write(ctx context.Context, frame *remote.Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline, _ := ctx.Deadline()
	if err := c.netConn.SetWriteDeadline(deadline); err != nil {
		return err
	}

	if err := remote.WriteFrame(c.writer, frame); err != nil {
		c.close()
		return err
	}
	if err := c.writer.Flush(); err != nil {
		c.close()
		return err
	}
	return nil
}

func (c *conn) await(seq uint64) <-chan *remote.Frame {
	ch := make(chan *remote.Frame, 1)
	c.mu.Lock()
	c.waiters[seq] = ch
	c.mu.Unlock()
	return ch
}

func (c *conn) forget(seq uint64) {
	c.mu.Lock()
	delete(c.waiters, seq)
	c.mu.Unlock()
}

func (c *conn) ack(frame *remote.Frame) {
	c.mu.Lock()
	ch, ok := c.waiters[frame.Seq]
	delete(c.waiters, frame.Seq)
	c.mu.Unlock()
	if ok {
		ch <- frame
	}
}

func (c *conn) close() {
	c.closeOnce.Do(func() {
		_ = c.netConn.Close()
		close(c.done)
	})
}
