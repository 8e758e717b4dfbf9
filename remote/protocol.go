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
	"sort"
	"sync"

	"github.com/tochemey/troupe/address"
	"github.com/tochemey/troupe/errors"
	"github.com/tochemey/troupe/log"
)

// Handler receives the frames read by a protocol listener
type Handler interface {
	// Deliver dispatches frame into the hosting system. replier sends frames
	// back to the originator of frame. An error means the frame could not be
	// delivered; duplex protocols report it to the sender.
	Deliver(ctx context.Context, frame *Frame, replier Replier) error
}

// Replier sends a frame back to the originator of a received frame
type Replier interface {
	Reply(ctx context.Context, frame *Frame) error
}

// Protocol is a wire protocol actor systems use to reach each other.
// Implementations must deliver frames sent by one goroutine to one peer in
// the order of the Send calls.
type Protocol interface {
	// Name returns the protocol tag used in addresses
	Name() string
	// Listen starts accepting frames and hands them to handler
	Listen(ctx context.Context, host string, port int, handler Handler) error
	// Addr returns the advertised host and port once listening
	Addr() (string, int)
	// Send delivers frame to the system hosting the address
	Send(ctx context.Context, to address.Address, frame *Frame) error
	// Close stops listening and releases connections
	Close(ctx context.Context) error
}

// Duplex is implemented by protocols that carry replies back on the
// connection a request came in on. Systems using a duplex protocol do not
// need a reply endpoint of their own.
type Duplex interface {
	Duplex() bool
}

// Binder is implemented by protocols that must be told which actor paths
// the system serves, brokered transports in particular.
type Binder interface {
	Bind(ctx context.Context, path string) error
	Unbind(ctx context.Context, path string) error
}

// IsDuplex reports whether p carries replies inline
func IsDuplex(p Protocol) bool {
	d, ok := p.(Duplex)
	return ok && d.Duplex()
}

// Factory builds a protocol instance
type Factory func(logger log.Logger) (Protocol, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// Register makes a protocol constructible by name. It is meant to be called
// from the init function of protocol packages.
func Register(name string, factory Factory) {
	factoriesMu.Lock()
	factories[name] = factory
	factoriesMu.Unlock()
}

// New builds the protocol registered under name
func New(name string, logger log.Logger) (Protocol, error) {
	factoriesMu.RLock()
	factory, ok := factories[name]
	factoriesMu.RUnlock()
	if !ok {
		return nil, errors.NewErrProtocolNotFound(name)
	}
	return factory(logger)
}

// Protocols returns the registered protocol names
func Protocols() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// sendReplier answers by sending a new frame to the ReplyTo address
type sendReplier struct {
	protocol Protocol
}

// NewSendReplier returns a Replier that routes reply frames through p.Send
// using the frame To field, which the hosting system sets from the request
// ReplyTo.
func NewSendReplier(p Protocol) Replier {
	return &sendReplier{protocol: p}
}

// Reply implements Replier
func (r *sendReplier) Reply(ctx context.Context, frame *Frame) error {
	to, err := address.Parse(frame.To)
	if err != nil {
		return err
	}
	return r.protocol.Send(ctx, to, frame)
}
