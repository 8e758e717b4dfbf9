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

// Package natsproto carries frames through a NATS broker. Systems sharing a
// broker reach each other by actor path: each published actor subscribes to
// the subject derived from its path, so paths must be unique per broker.
package natsproto

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/flowchartsman/retry"
	"github.com/nats-io/nats.go"
	"go.uber.org/atomic"

	"github.com/tochemey/troupe/address"
	"github.com/tochemey/troupe/errors"
	"github.com/tochemey/troupe/log"
	"github.com/tochemey/troupe/remote"
)

// Name is the protocol tag of the transport
const Name = "nats"

const (
	subjectPrefix  = "troupe."
	maxRetries     = 5
	reconnectWait  = 2 * time.Second
	initialBackoff = 100 * time.Millisecond
)

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

// WithConnectionName sets the name the connection reports to the broker
func WithConnectionName(name string) Option {
	return func(p *Protocol) { p.connectionName = name }
}

// Protocol implements remote.Protocol on top of a NATS broker. Listen
// connects to the broker found at the given host and port.
type Protocol struct {
	logger         log.Logger
	connectionName string

	conn    *nats.Conn
	handler remote.Handler
	replier remote.Replier
	host    string
	port    int

	mu            sync.Mutex
	subscriptions map[string]*nats.Subscription
	closed        atomic.Bool
}

// enforce compilation errors
var (
	_ remote.Protocol = (*Protocol)(nil)
	_ remote.Binder   = (*Protocol)(nil)
)

// New creates the transport
func New(opts ...Option) *Protocol {
	p := &Protocol{
		logger:        log.DiscardLogger,
		subscriptions: make(map[string]*nats.Subscription),
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

// Listen implements remote.Protocol. host and port locate the broker.
func (p *Protocol) Listen(ctx context.Context, host string, port int, handler remote.Handler) error {
	url := "nats://" + net.JoinHostPort(host, strconv.Itoa(port))
	options := []nats.Option{
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(-1),
	}
	if p.connectionName != "" {
		options = append(options, nats.Name(p.connectionName))
	}

	var conn *nats.Conn
	retrier := retry.NewRetrier(maxRetries, initialBackoff, reconnectWait)
	err := retrier.RunContext(ctx, func(context.Context) error {
		var err error
		conn, err = nats.Connect(url, options...)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", url, err)
	}

	p.conn = conn
	p.handler = handler
	p.host = strings.ToLower(host)
	p.port = port
	return nil
}

// Addr implements remote.Protocol
func (p *Protocol) Addr() (string, int) {
	return p.host, p.port
}

// Bind implements remote.Binder
func (p *Protocol) Bind(_ context.Context, path string) error {
	if p.conn == nil {
		return errors.ErrNotStarted
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	subject := Subject(path)
	if _, ok := p.subscriptions[subject]; ok {
		return nil
	}

	subscription, err := p.conn.Subscribe(subject, p.receive)
	if err != nil {
		return err
	}
	p.subscriptions[subject] = subscription
	return p.conn.Flush()
}

// Unbind implements remote.Binder
func (p *Protocol) Unbind(_ context.Context, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	subject := Subject(path)
	subscription, ok := p.subscriptions[subject]
	if !ok {
		return nil
	}
	delete(p.subscriptions, subject)
	return subscription.Unsubscribe()
}

func (p *Protocol) receive(msg *nats.Msg) {
	frame, err := remote.UnmarshalFrame(msg.Data)
	if err != nil {
		p.logger.Warnf("dropping malformed frame on %s: %v", msg.Subject, err)
		return
	}

	if err := p.handler.Deliver(context.Background(), frame, p.replier); err != nil {
		p.logger.Warnf("failed to deliver %s frame to %s: %v", frame.Kind, frame.To, err)
	}
}

// Send implements remote.Protocol
func (p *Protocol) Send(ctx context.Context, to address.Address, frame *remote.Frame) error {
	if p.closed.Load() || p.conn == nil {
		return errors.ErrDead
	}

	if to.Host() != p.host || to.Port() != p.port {
		return fmt.Errorf("%w: %s is served by another broker", errors.ErrDeliveryFailure, to)
	}

	data, err := remote.MarshalFrame(frame)
	if err != nil {
		return err
	}

	if err := p.conn.Publish(Subject(to.Path()), data); err != nil {
		return err
	}

	if _, ok := ctx.Deadline(); ok {
		return p.conn.FlushWithContext(ctx)
	}
	return nil
}

// Close implements remote.Protocol
func (p *Protocol) Close(context.Context) error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}

	p.mu.Lock()
	for subject, subscription := range p.subscriptions {
		_ = subscription.Unsubscribe()
		delete(p.subscriptions, subject)
	}
	p.mu.Unlock()

	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}

// Subject returns the subject an actor path is served on
func Subject(path string) string {
	return subjectPrefix + strings.ReplaceAll(strings.Trim(path, "/"), "/", ".")
}
