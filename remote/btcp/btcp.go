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

// Package btcp is the bidirectional TCP transport. Every frame is
// acknowledged by the receiving system, so delivery failures surface at the
// sender, and replies travel back over the connection the request came in on.
package btcp

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
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
const Name = "btcp"

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

// WithTLS secures the transport
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

// Protocol implements remote.Protocol over acknowledged TCP connections
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

	mu     sync.Mutex
	peers  map[string]*conn
	dials  singleflight.Group
	closed atomic.Bool
}

// enforce compilation errors
var (
	_ remote.Protocol = (*Protocol)(nil)
	_ remote.Duplex   = (*Protocol)(nil)
)

// New creates the transport
func New(opts ...Option) *Protocol {
	p := &Protocol{
		logger:      log.DiscardLogger,
		dialTimeout: defaultDialTimeout,
		peers:       make(map[string]*conn),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements remote.Protocol
func (p *Protocol) Name() string {
	return Name
}

// Duplex implements remote.Duplex
func (p *Protocol) Duplex() bool {
	return true
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
			p.logger.Errorf("btcp server stopped: %v", err)
		}
	}()
	return nil
}

// Addr implements remote.Protocol
func (p *Protocol) Addr() (string, int) {
	return p.host, p.port
}

// serve handles an inbound connection: every frame is delivered then
// acknowledged, replies share the connection.
func (p *Protocol) serve(ctx context.Context, netConn net.Conn) {
	inbound := newConn(netConn)
	reader := bufio.NewReader(netConn)
	for {
		frame, err := remote.ReadFrame(reader)
		if err != nil {
			return
		}

		ack := &remote.Frame{Kind: remote.KindAck, Seq: frame.Seq}
		if err := p.handler.Deliver(ctx, frame, inbound); err != nil {
			ack.Failure = errors.FromError(err)
		}

		if err := inbound.write(ctx, ack); err != nil {
			p.logger.Warnf("failed to acknowledge frame %d: %v", frame.Seq, err)
			return
		}
	}
}

// Send implements remote.Protocol. It returns once the receiving system
// acknowledged the frame.
func (p *Protocol) Send(ctx context.Context, to address.Address, frame *remote.Frame) error {
	if p.closed.Load() {
		return errors.ErrDead
	}

	target, err := p.peer(ctx, to.HostPort())
	if err != nil {
		return err
	}

	out := *frame
	out.Seq = target.seq.Inc()
	acked := target.await(out.Seq)
	defer target.forget(out.Seq)

	if err := target.write(ctx, &out); err != nil {
		p.drop(to.HostPort(), target)
		return err
	}

	select {
	case ack := <-acked:
		if ack.Failure != nil {
			return ack.Failure
		}
		return nil
	case <-target.done:
		return fmt.Errorf("connection to %s lost: %w", to.HostPort(), errors.ErrDeliveryFailure)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Protocol) peer(ctx context.Context, hostPort string) (*conn, error) {
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

		netConn, err := tcp.Dial(dialCtx, hostPort, p.clientTLS)
		if err != nil {
			return nil, err
		}

		created := newConn(netConn)
		p.mu.Lock()
		if p.closed.Load() {
			p.mu.Unlock()
			_ = netConn.Close()
			return nil, errors.ErrDead
		}
		p.peers[hostPort] = created
		p.mu.Unlock()

		go p.read(hostPort, created)
		return created, nil
	})

	select {
	case result := <-results:
		if result.Err != nil {
			return nil, result.Err
		}
		return result.Val.(*conn), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Protocol) lookup(hostPort string) (*conn, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	existing, ok := p.peers[hostPort]
	return existing, ok
}

// read dispatches what comes back on an outbound connection: acks to the
// waiting senders, replies to the handler.
func (p *Protocol) read(hostPort string, outbound *conn) {
	defer p.drop(hostPort, outbound)

	reader := bufio.NewReader(outbound.netConn)
	for {
		frame, err := remote.ReadFrame(reader)
		if err != nil {
			return
		}

		switch frame.Kind {
		case remote.KindAck:
			outbound.ack(frame)
		case remote.KindReply:
			if p.handler == nil {
				p.logger.Warnf("dropping reply %s: not listening", frame.CorrelationID)
				continue
			}
			if err := p.handler.Deliver(context.Background(), frame, outbound); err != nil {
				p.logger.Warnf("failed to deliver reply %s: %v", frame.CorrelationID, err)
			}
		default:
			p.logger.Warnf("unexpected %s frame on outbound connection", frame.Kind)
		}
	}
}

func (p *Protocol) drop(hostPort string, broken *conn) {
	broken.close()
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
		open.close()
		delete(p.peers, hostPort)
	}
	p.mu.Unlock()

	if p.server == nil {
		return nil
	}
	return p.server.Shutdown(ctx)
}
