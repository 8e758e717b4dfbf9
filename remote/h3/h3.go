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

// Package h3 is the HTTP/3 transport. Each frame is POSTed over QUIC and the
// receiving system answers once the frame is in the target mailbox, so
// delivery failures surface at the sender.
package h3

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/kapetan-io/tackle/autotls"
	"github.com/quic-go/quic-go/http3"
	"go.uber.org/atomic"

	"github.com/tochemey/troupe/address"
	"github.com/tochemey/troupe/errors"
	"github.com/tochemey/troupe/log"
	"github.com/tochemey/troupe/remote"
)

// Name is the protocol tag of the transport
const Name = "h3"

const (
	framesPath     = "/frames"
	contentType    = "application/cbor"
	defaultTimeout = 10 * time.Second
)

func init() {
	remote.Register(Name, func(logger log.Logger) (remote.Protocol, error) {
		return New(WithLogger(logger))
	})
}

// Option configures the transport
type Option func(*Protocol)

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return func(p *Protocol) { p.logger = logger }
}

// WithTLS sets the TLS configurations of the listener and the client.
// Without it the transport generates a self-signed certificate and does not
// verify its peers.
func WithTLS(server, client *tls.Config) Option {
	return func(p *Protocol) {
		p.serverTLS = server
		p.clientTLS = client
	}
}

// WithRequestTimeout bounds a single frame exchange
func WithRequestTimeout(timeout time.Duration) Option {
	return func(p *Protocol) { p.timeout = timeout }
}

// Protocol implements remote.Protocol over HTTP/3
type Protocol struct {
	logger    log.Logger
	serverTLS *tls.Config
	clientTLS *tls.Config
	timeout   time.Duration

	server    *http3.Server
	conn      net.PacketConn
	transport *http3.Transport
	client    *http.Client
	handler   remote.Handler
	replier   remote.Replier
	host      string
	port      int
	closed    atomic.Bool
}

// enforce compilation error
var _ remote.Protocol = (*Protocol)(nil)

// New creates the transport
func New(opts ...Option) (*Protocol, error) {
	p := &Protocol{
		logger:  log.DiscardLogger,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.serverTLS == nil || p.clientTLS == nil {
		conf := autotls.Config{AutoTLS: true, InsecureSkipVerify: true}
		if err := autotls.Setup(&conf); err != nil {
			return nil, fmt.Errorf("failed to generate certificates: %w", err)
		}
		if p.serverTLS == nil {
			p.serverTLS = conf.ServerTLS
		}
		if p.clientTLS == nil {
			p.clientTLS = conf.ClientTLS
		}
	}

	p.transport = &http3.Transport{TLSClientConfig: p.clientTLS}
	p.client = &http.Client{Transport: p.transport, Timeout: p.timeout}
	p.replier = remote.NewSendReplier(p)
	return p, nil
}

// Name implements remote.Protocol
func (p *Protocol) Name() string {
	return Name
}

// Listen implements remote.Protocol
func (p *Protocol) Listen(ctx context.Context, host string, port int, handler remote.Handler) error {
	advertised, err := remote.AdvertiseHost(host)
	if err != nil {
		return err
	}

	var config net.ListenConfig
	conn, err := config.ListenPacket(ctx, "udp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+framesPath, p.receive)

	p.handler = handler
	p.conn = conn
	p.host = advertised
	p.port = conn.LocalAddr().(*net.UDPAddr).Port
	p.server = &http3.Server{
		Handler:   mux,
		TLSConfig: http3.ConfigureTLSConfig(p.serverTLS),
	}

	go func() {
		if err := p.server.Serve(conn); err != nil && !p.closed.Load() {
			p.logger.Errorf("h3 server stopped: %v", err)
		}
	}()
	return nil
}

// Addr implements remote.Protocol
func (p *Protocol) Addr() (string, int) {
	return p.host, p.port
}

// receive handles one POSTed frame
func (p *Protocol) receive(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, remote.MaxFrameSize))
	if err != nil {
		p.refuse(w, http.StatusRequestEntityTooLarge, errors.NewErrDeliveryFailure(err))
		return
	}

	frame, err := remote.UnmarshalFrame(data)
	if err != nil {
		p.refuse(w, http.StatusBadRequest, err)
		return
	}

	if err := p.handler.Deliver(context.WithoutCancel(r.Context()), frame, p.replier); err != nil {
		p.refuse(w, http.StatusUnprocessableEntity, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// refuse answers with an Ack frame carrying the failure
func (p *Protocol) refuse(w http.ResponseWriter, status int, cause error) {
	body, err := remote.MarshalFrame(&remote.Frame{Kind: remote.KindAck, Failure: errors.FromError(cause)})
	if err != nil {
		http.Error(w, cause.Error(), status)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// Send implements remote.Protocol
func (p *Protocol) Send(ctx context.Context, to address.Address, frame *remote.Frame) error {
	if p.closed.Load() {
		return errors.ErrDead
	}

	body, err := remote.MarshalFrame(frame)
	if err != nil {
		return err
	}

	url := "https://" + to.HostPort() + framesPath
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", contentType)

	response, err := p.client.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusAccepted {
		_, _ = io.Copy(io.Discard, response.Body)
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(response.Body, remote.MaxFrameSize))
	if err == nil {
		if ack, err := remote.UnmarshalFrame(data); err == nil && ack.Failure != nil {
			return ack.Failure
		}
	}
	return fmt.Errorf("%w: %s answered %s", errors.ErrDeliveryFailure, to.HostPort(), response.Status)
}

// Close implements remote.Protocol
func (p *Protocol) Close(context.Context) error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}

	var err error
	if p.server != nil {
		err = p.server.Close()
		_ = p.conn.Close()
	}
	_ = p.transport.Close()
	return err
}
