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

package actor

import (
	"context"
	"net"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/troupe/errors"
	"github.com/tochemey/troupe/log"
	"github.com/tochemey/troupe/remote"
	"github.com/tochemey/troupe/remote/btcp"
	"github.com/tochemey/troupe/remote/natsproto"
	"github.com/tochemey/troupe/remote/utcp"
)

type remoteSetup struct {
	name        string
	brokered    bool
	newProtocol func() remote.Protocol
}

var remoteSetups = []remoteSetup{
	{
		name:        utcp.Name,
		newProtocol: func() remote.Protocol { return utcp.New(utcp.WithLogger(log.DiscardLogger)) },
	},
	{
		name:        btcp.Name,
		newProtocol: func() remote.Protocol { return btcp.New(btcp.WithLogger(log.DiscardLogger)) },
	},
	{
		name:        natsproto.Name,
		brokered:    true,
		newProtocol: func() remote.Protocol { return natsproto.New(natsproto.WithLogger(log.DiscardLogger)) },
	},
}

func startNatsServer(t *testing.T) int {
	t.Helper()
	serv, err := natsserver.NewServer(&natsserver.Options{
		Host: "127.0.0.1",
		Port: -1,
	})
	require.NoError(t, err)

	go serv.Start()
	require.True(t, serv.ReadyForConnections(2*time.Second), "nats-io server failed to start")
	t.Cleanup(serv.Shutdown)
	return serv.Addr().(*net.TCPAddr).Port
}

func TestRemoting(t *testing.T) {
	for _, setup := range remoteSetups {
		t.Run(setup.name, func(t *testing.T) {
			ctx := context.Background()

			// brokered transports share one broker between both systems
			port := 0
			if setup.brokered {
				port = startNatsServer(t)
			}

			alpha := newTestSystem(t, WithTransport(setup.newProtocol(), "127.0.0.1", port), WithReplyTimeout(5*time.Second))
			beta := newTestSystem(t, WithTransport(setup.newProtocol(), "127.0.0.1", port), WithReplyTimeout(5*time.Second))

			pid := spawnAdder(t, beta, "remote-adder", 10, WithPublish(setup.name), WithAutoStart())
			hidden := spawnAdder(t, beta, "hidden-adder", 0, WithAutoStart())

			// the reference is bound to alpha so that messages cross the wire
			ref := newActorRef(pid.Address(), alpha)
			require.False(t, pid.Address().IsLocal())
			require.False(t, alpha.owns(ref.Address()))

			t.Run("With post and request", func(t *testing.T) {
				require.NoError(t, ref.Post(ctx, &add{N: 5}))
				total, err := Ask[int](ctx, ref, new(get), 5*time.Second)
				require.NoError(t, err)
				assert.Equal(t, 15, total)
			})
			t.Run("With a failure sent back", func(t *testing.T) {
				_, err := ref.PostAndReply(ctx, &divide{By: 0}, 5*time.Second)
				require.Error(t, err)
				assert.ErrorIs(t, err, errors.ErrProcessing)
				assert.Contains(t, err.Error(), "cannot divide")

				// the actor keeps its state after a failed request
				total, err := Ask[int](ctx, ref, new(get), 5*time.Second)
				require.NoError(t, err)
				assert.Equal(t, 15, total)
			})
			t.Run("With an unpublished actor", func(t *testing.T) {
				if setup.brokered {
					// nobody subscribes for an unpublished path on the broker
					timed, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
					defer cancel()
					_, err := newActorRef(ref.Address().Endpoint().WithPath(hidden.Path()), alpha).PostAndReply(timed, new(get), 0)
					assert.Error(t, err)
					return
				}
				_, err := newActorRef(ref.Address().Endpoint().WithPath(hidden.Path()), alpha).PostAndReply(ctx, new(get), 5*time.Second)
				assert.ErrorIs(t, err, errors.ErrActorNotFound)
			})
			t.Run("With an unregistered message", func(t *testing.T) {
				type secret struct{ Value int }
				err := ref.Post(ctx, &secret{Value: 1})
				assert.ErrorIs(t, err, errors.ErrSerialization)
			})
			t.Run("With a decoded reference", func(t *testing.T) {
				data, err := remote.NewCBORSerializer().Serialize(&refHolder{Ref: ref})
				require.NoError(t, err)
				decoded, err := remote.NewCBORSerializer().Deserialize(data)
				require.NoError(t, err)

				holder := decoded.(*refHolder)
				assert.True(t, holder.Ref.Equals(ref))
				total, err := Ask[int](ctx, holder.Ref, new(get), 5*time.Second)
				require.NoError(t, err)
				assert.Equal(t, 15, total)
			})
		})
	}
}

type refHolder struct {
	Ref *ActorRef
}

func init() {
	remote.RegisterSerializableTypes(new(refHolder))
}
