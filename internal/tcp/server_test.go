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

package tcp

import (
	"bufio"
	"context"
	"crypto/tls"
	"net"
	"testing"
	"time"

	"github.com/kapetan-io/tackle/autotls"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echo writes back every line it reads
func echo(_ context.Context, conn net.Conn) {
	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		if _, err := conn.Write([]byte(line)); err != nil {
			return
		}
	}
}

func startServer(t *testing.T, opts ...ServerOption) *Server {
	t.Helper()
	server, err := NewServer("127.0.0.1:0", append([]ServerOption{WithConnHandler(echo)}, opts...)...)
	require.NoError(t, err)
	require.NoError(t, server.Listen(context.Background()))
	go func() { _ = server.Serve() }()
	t.Cleanup(func() { _ = server.Shutdown(context.Background()) })
	return server
}

func roundTrip(t *testing.T, conn net.Conn, line string) string {
	t.Helper()
	_, err := conn.Write([]byte(line + "\n"))
	require.NoError(t, err)
	reply, err := bufio.NewReader(conn).ReadString('\n')
	require.NoError(t, err)
	return reply[:len(reply)-1]
}

func TestServer(t *testing.T) {
	t.Run("With plain connections", func(t *testing.T) {
		ctx := context.Background()
		server := startServer(t)

		conn, err := Dial(ctx, server.ListenAddr().String(), nil)
		require.NoError(t, err)
		defer conn.Close()

		assert.Equal(t, "hello", roundTrip(t, conn, "hello"))
		require.Eventually(t, func() bool { return server.ActiveConnections() == 1 }, time.Second, 5*time.Millisecond)
	})
	t.Run("With TLS", func(t *testing.T) {
		ctx := context.Background()
		conf := autotls.Config{
			AutoTLS:    true,
			ClientAuth: tls.RequireAndVerifyClientCert,
		}
		require.NoError(t, autotls.Setup(&conf))

		server := startServer(t, WithTLSConfig(conf.ServerTLS))
		conn, err := Dial(ctx, server.ListenAddr().String(), conf.ClientTLS)
		require.NoError(t, err)
		defer conn.Close()

		assert.Equal(t, "secret", roundTrip(t, conn, "secret"))
	})
	t.Run("With shutdown closing connections", func(t *testing.T) {
		ctx := context.Background()
		server, err := NewServer("127.0.0.1:0", WithConnHandler(echo))
		require.NoError(t, err)
		require.NoError(t, server.Listen(ctx))
		served := make(chan error, 1)
		go func() { served <- server.Serve() }()

		conn, err := Dial(ctx, server.ListenAddr().String(), nil)
		require.NoError(t, err)
		defer conn.Close()
		require.Eventually(t, func() bool { return server.ActiveConnections() == 1 }, time.Second, 5*time.Millisecond)

		require.NoError(t, server.Shutdown(ctx))
		assert.NoError(t, <-served)
		assert.EqualValues(t, 0, server.ActiveConnections())
		require.NoError(t, server.Shutdown(ctx))
	})
	t.Run("Without listener", func(t *testing.T) {
		server, err := NewServer("127.0.0.1:0", WithConnHandler(echo))
		require.NoError(t, err)
		assert.ErrorIs(t, server.Serve(), ErrNoListener)
	})
	t.Run("Without handler", func(t *testing.T) {
		_, err := NewServer("127.0.0.1:0")
		assert.Error(t, err)
	})
}
