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

package utcp

import (
	"context"
	"crypto/tls"
	"testing"
	"time"

	"github.com/kapetan-io/tackle/autotls"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travisjeffery/go-dynaport"

	"github.com/tochemey/troupe/log"
	"github.com/tochemey/troupe/remote"
	"github.com/tochemey/troupe/remote/remotetest"
)

func TestProtocol(t *testing.T) {
	remotetest.Run(t, remotetest.Config{
		New:         func(*testing.T) remote.Protocol { return New(WithLogger(log.DiscardLogger)) },
		Host:        "127.0.0.1",
		Port:        func() int { return dynaport.Get(1)[0] },
		Unreachable: true,
	})
}

func TestProtocolWithTLS(t *testing.T) {
	conf := autotls.Config{
		AutoTLS:    true,
		ClientAuth: tls.RequireAndVerifyClientCert,
	}
	require.NoError(t, autotls.Setup(&conf))

	remotetest.Run(t, remotetest.Config{
		New: func(*testing.T) remote.Protocol {
			return New(WithLogger(log.DiscardLogger), WithTLS(conf.ServerTLS, conf.ClientTLS), WithDialTimeout(2*time.Second))
		},
		Host:       "127.0.0.1",
		Handshakes: true,
	})
}

func TestRegistered(t *testing.T) {
	protocol, err := remote.New(Name, log.DiscardLogger)
	require.NoError(t, err)
	assert.Equal(t, Name, protocol.Name())
	assert.False(t, remote.IsDuplex(protocol))
	require.NoError(t, protocol.Close(context.Background()))
}
