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

// Package utcp is the one-way TCP transport. Frames travel over connections
// dialed by the sender; replies travel over connections dialed back to the
// ReplyTo address of the request.
package utcp

import (
	"bufio"
	"context"
	"crypto/tls"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"go.uber.org/atomic"
	"golang.org/x/sync/singleflight"

	"github.com/tochemey/troupe/address"
	"github.com/tochemey/troupe/errors"
	"github.com/tochemey/troupe/internal/tcp"
	"github.com/tochemey/troupe/log"
	"github.com/tochemey/troupe/remote"
)

// Name is the protocol tag of the transport
const Name = "utcp"

const defaultDialTimeout = 5 * time.Second

func init() {
	remote.Register(Name, func(logger log.Logger) (remote.Protocol, error) {
		return New(WithLogger(logger)), nil
	})
}

// Option configures the transport
type Option func(*Protocol)

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return func(p *Protocol) { p.logger = logger }
}

// WithTLS secures the transport. server is used by the listener and client
// when dialing peers.
func WithTLS(server, client *tls.Config) Option {
	return func(p *Protocol) {
		p.serverTLS = server
		p.clientTLS = client
	}
}

// WithDialTimeout bounds the time spent connecting to a peer
func WithDialTimeout(timeout time.Duration) Option {
	return func(p *Protocol) { p.dialTimeout = timeout }
}

// WithMaxConnections bounds the number of inbound connections
func WithMaxConnections(limit int) Option {
	return func(p *Protocol) { p.maxConnections = limit }
}

// Protocol implements remote.Protocol over one-way TCP connections
type Protocol struct {
	logger         log.Logger
	serverTLS      *tls.Config
	clientTLS      *tls.Config
	dialTimeout    time.Duration
	maxConnections int

	server  *tcp.Server
	host    string
	port    int
	handler remote.Handler
	replier remote.Replier

	mu     sync.Mutex
	peers  map[string]*peer
	dials  singleflight.Group
	closed atomic.Bool
}

// enforce compilation error
var _ remote.Protocol = (*Protocol)(nil)

// peer is an outbound connection. The write lock keeps frames whole and in
// the order of the Send calls.
type peer struct {
	mu     sync.Mutex
	conn   net.Conn
	writer *bufio.Writer
}

// New creates the transport
func New(opts ...Option) *Protocol {
	p := &Protocol{
		logger:      log.DiscardLogger,
		dialTimeout: defaultDialTimeout,
		peers:       make(map[string]*peer),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.replier = remote.NewSendReplier(p)
	return p
}

// Name implements remote.Protocol
func (p *Protocol) Name() string {
	return Name
}

// Listen implements remote.Protocol
func (p *Protocol) Listen(ctx context.Context, host string, port int, handler remote.Handler) error {
	server, err := tcp.NewServer(net.JoinHostPort(host, strconv.Itoa(port)),
		tcp.WithConnHandler(p.serve),
		tcp.WithTLSConfig(p.serverTLS),
		tcp.WithMaxConnections(p.maxConnections))
	if err != nil {
		return err
	}

	advertised, err := remote.AdvertiseHost(host)
	if err != nil {
		return err
	}

	if err := server.Listen(ctx); err != nil {
		return err
	}

	p.handler = handler
	p.server = server
	p.host = advertised
	p.port = server.ListenAddr().Port

	go func() {
		if err := server.Serve(); err != nil {
			p.logger.Errorf("utcp server stopped: %v", err)
		}
	}()
	return nil
}

// Addr implements remote.Protocol
func (p *Protocol) Addr() (string, int) {
	return p.host, p.port
}

// serve reads the frames of an inbound connection
func (p *Protocol) serve(ctx context.Context, conn net.Conn) {
	reader := bufio.NewReader(conn)
	for {
		frame, err := remote.ReadFrame(reader)
		if err != nil {
			return
		}

		if err := p.handler.Deliver(ctx, frame, p.replier); err != nil {
			p.logger.Warnf("failed to deliver %s frame to %s: %v", frame.Kind, frame.To, err)
		}
	}
}

// Send implements remote.Protocol
func (p *Protocol) Send(ctx context.Context, to address.Address, frame *remote.Frame) error {
	if p.closed.Load() {
		return errors.ErrDead
	}

	target, err := p.peer(ctx, to.HostPort())
	if err != nil {
		return err
	}

	target.mu.Lock()
	defer target.mu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		_ = target.conn.SetWriteDeadline(deadline)
	} else {
		_ = target.conn.SetWriteDeadline(time.Time{})
	}

	if err := remote.WriteFrame(target.writer, frame); err != nil {
		p.drop(to.HostPort(), target)
		return err
	}

	if err := target.writer.Flush(); err != nil {
		p.drop(to.HostPort(), target)
		return err
	}
	return nil
}

func (p *Protocol) peer(ctx context.Context, hostPort string) (*peer, error) {
	if existing, ok := p.lookup(hostPort); ok {
		return existing, nil
	}

	// the dial is shared by the concurrent senders to hostPort and runs
	// without the lock so other peers are not held up
	results := p.dials.DoChan(hostPort, func() (any, error) {
		if existing, ok := p.lookup(hostPort); ok {
			return existing, nil
		}

		dialCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.dialTimeout)
		defer cancel()

		conn, err := tcp.Dial(dialCtx, hostPort, p.clientTLS)
		if err != nil {
			return nil, err
		}

		created := &peer{conn: conn, writer: bufio.NewWriter(conn)}
		p.mu.Lock()
		if p.closed.Load() {
			p.mu.Unlock()
			_ = conn.Close()
			return nil, errors.ErrDead
		}
		p.peers[hostPort] = created
		p.mu.Unlock()

		go p.watch(hostPort, created)
		return created, nil
	})

	select {
	case result := <-results:
		if result.Err != nil {
			return nil, result.Err
		}
		return result.Val.(*peer), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Protocol) lookup(hostPort string) (*peer, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	existing, ok := p.peers[hostPort]
	return existing, ok
}

// watch drops the peer once the remote side closes the connection
func (p *Protocol) watch(hostPort string, open *peer) {
	_, _ = io.Copy(io.Discard, open.conn)
	p.drop(hostPort, open)
}

// drop forgets a broken connection so the next Send dials again
func (p *Protocol) drop(hostPort string, broken *peer) {
	_ = broken.conn.Close()
	p.mu.Lock()
	if p.peers[hostPort] == broken {
		delete(p.peers, hostPort)
	}
	p.mu.Unlock()
}

// Close implements remote.Protocol
func (p *Protocol) Close(ctx context.Context) error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}

	p.mu.Lock()
	for hostPort, open := range p.peers {
		_ = open.conn.Close()
		delete(p.peers, hostPort)
	}
	p.mu.Unlock()

	if p.server == nil {
		return nil
	}
	return p.server.Shutdown(ctx)
}
