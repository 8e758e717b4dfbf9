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

// Package tcp holds the TCP server and dialer shared by the stream transports
package tcp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/net/netutil"
)

// ErrNoListener is returned by Serve when Listen was not called
var ErrNoListener = errors.New("tcp: server is not listening")

// ConnHandler serves one accepted connection. The connection is closed once
// the handler returns. ctx is canceled when the server shuts down.
type ConnHandler func(ctx context.Context, conn net.Conn)

// ServerOption configures a Server
type ServerOption func(*Server)

// WithTLSConfig wraps every accepted connection with TLS. Nil keeps plain TCP.
func WithTLSConfig(config *tls.Config) ServerOption {
	return func(s *Server) { s.tlsConfig = config }
}

// WithConnHandler sets the handler of accepted connections
func WithConnHandler(handler ConnHandler) ServerOption {
	return func(s *Server) { s.handler = handler }
}

// WithMaxConnections bounds the connections served at once, zero meaning no bound
func WithMaxConnections(limit int) ServerOption {
	return func(s *Server) { s.maxConnections = limit }
}

// Server hands every accepted connection to a ConnHandler on its own goroutine
type Server struct {
	address        string
	handler        ConnHandler
	tlsConfig      *tls.Config
	maxConnections int

	listener net.Listener
	ctx      context.Context
	cancel   context.CancelFunc

	// guards closed against conns.Add so no connection is tracked after Shutdown
	mu     sync.Mutex
	closed bool
	conns  mapset.Set[net.Conn]
	wg     sync.WaitGroup
}

// NewServer creates a Server for the host:port address
func NewServer(address string, opts ...ServerOption) (*Server, error) {
	if _, err := net.ResolveTCPAddr("tcp", address); err != nil {
		return nil, fmt.Errorf("resolving address %q: %w", address, err)
	}

	s := &Server{address: address, conns: mapset.NewSet[net.Conn]()}
	for _, opt := range opts {
		opt(s)
	}
	if s.handler == nil {
		return nil, errors.New("tcp: connection handler is required")
	}
	return s, nil
}

// Listen binds the listener. Serve accepts on it.
func (s *Server) Listen(ctx context.Context) error {
	listener, err := new(net.ListenConfig).Listen(ctx, "tcp", s.address)
	if err != nil {
		return err
	}
	if s.maxConnections > 0 {
		listener = netutil.LimitListener(listener, s.maxConnections)
	}

	s.listener = listener
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	return nil
}

// ListenAddr returns the bound address, nil before Listen
func (s *Server) ListenAddr() *net.TCPAddr {
	if s.listener == nil {
		return nil
	}
	addr, _ := s.listener.Addr().(*net.TCPAddr)
	return addr
}

// ActiveConnections returns the number of connections being served
func (s *Server) ActiveConnections() int {
	return s.conns.Cardinality()
}

// Serve accepts connections until Shutdown. It returns nil after Shutdown.
func (s *Server) Serve() error {
	if s.listener == nil {
		return ErrNoListener
	}

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			var netErr net.Error
			switch {
			case s.isClosed():
				return nil
			case errors.As(err, &netErr) && netErr.Timeout():
				continue
			default:
				return err
			}
		}

		if s.tlsConfig != nil {
			conn = tls.Server(conn, s.tlsConfig)
		}
		if !s.add(conn) {
			_ = conn.Close()
			return nil
		}

		go func() {
			defer s.remove(conn)
			s.handler(s.ctx, conn)
		}()
	}
}

// Shutdown stops accepting, closes the open connections and waits for their
// handlers until ctx is done. Calling it again does nothing.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	var err error
	if s.listener != nil {
		err = s.listener.Close()
		s.cancel()
	}
	s.conns.Each(func(conn net.Conn) bool {
		_ = conn.Close()
		return false
	})

	drained := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Server) add(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns.Add(conn)
	s.wg.Add(1)
	return true
}

func (s *Server) remove(conn net.Conn) {
	_ = conn.Close()
	s.conns.Remove(conn)
	s.wg.Done()
}
