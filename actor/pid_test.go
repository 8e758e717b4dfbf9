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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/troupe/errors"
)

func TestPID(t *testing.T) {
	t.Run("With Async then Sync messages", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t)
		pid := spawnAdder(t, system, "adder", 10)
		require.NoError(t, pid.Start(ctx))

		ref := pid.Ref()
		require.NoError(t, ref.Post(ctx, &add{N: 5}))

		total, err := Ask[int](ctx, ref, new(get), time.Second)
		require.NoError(t, err)
		assert.Equal(t, 15, total)
	})
	t.Run("With messages sent before start", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t)
		pid := spawnAdder(t, system, "adder", 0)
		assert.Equal(t, StatusIdle, pid.Status())

		for range 3 {
			require.NoError(t, pid.Ref().Post(ctx, &add{N: 1}))
		}
		assert.EqualValues(t, 3, pid.MailboxSize())

		require.NoError(t, pid.Start(ctx))
		total, err := Ask[int](ctx, pid.Ref(), new(get), time.Second)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
	})
	t.Run("With Sync failure keeping the state", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t)
		pid := spawnAdder(t, system, "divider", 10)
		require.NoError(t, pid.Start(ctx))

		_, err := pid.Ref().PostAndReply(ctx, &divide{By: 0}, time.Second)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrProcessing)
		assert.Contains(t, err.Error(), "cannot divide 10 by zero")

		total, err := Ask[int](ctx, pid.Ref(), new(get), time.Second)
		require.NoError(t, err)
		assert.Equal(t, 10, total)
		assert.True(t, pid.IsRunning())
	})
	t.Run("With Async failure terminating the actor", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t)
		pid := spawnAdder(t, system, "divider", 10)
		require.NoError(t, pid.Start(ctx))

		require.NoError(t, pid.Ref().Post(ctx, &divide{By: 0}))

		select {
		case <-pid.Done():
		case <-time.After(time.Second):
			t.Fatal("actor did not stop")
		}

		require.Error(t, pid.Err())
		assert.Equal(t, StatusStopped, pid.Status())
		assert.ErrorIs(t, pid.Ref().Post(ctx, &add{N: 1}), errors.ErrActorNotFound)

		_, ok := system.ActorOf("divider")
		assert.False(t, ok)
	})
	t.Run("With Sync failure after the reply terminating the actor", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t)
		pid := spawnAdder(t, system, "replier", 7)
		require.NoError(t, pid.Start(ctx))

		total, err := Ask[int](ctx, pid.Ref(), new(replyThenFail), time.Second)
		require.NoError(t, err)
		assert.Equal(t, 7, total)

		select {
		case <-pid.Done():
		case <-time.After(time.Second):
			t.Fatal("actor did not stop")
		}

		require.Error(t, pid.Err())
		assert.Contains(t, pid.Err().Error(), "failed after replying 7")
		assert.Equal(t, StatusStopped, pid.Status())
	})
	t.Run("With panic recovered as a failure", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t)
		pid := spawnAdder(t, system, "panicky", 1)
		require.NoError(t, pid.Start(ctx))

		_, err := pid.Ref().PostAndReply(ctx, new(boom), time.Second)
		require.Error(t, err)

		var failure *errors.Failure
		require.ErrorAs(t, err, &failure)
		assert.Equal(t, errors.KindPanic, failure.Kind)
		assert.True(t, pid.IsRunning())
	})
	t.Run("With self stop failing pending requests", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t)
		pid := spawnAdder(t, system, "stopper", 1)

		require.NoError(t, pid.Ref().Post(ctx, new(stop)))

		var wg sync.WaitGroup
		var replyErr error
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, replyErr = pid.Ref().PostAndReply(ctx, new(get), time.Second)
		}()

		require.Eventually(t, func() bool { return pid.MailboxSize() == 2 }, time.Second, 5*time.Millisecond)
		require.NoError(t, pid.Start(ctx))
		wg.Wait()

		require.Error(t, replyErr)
		assert.ErrorIs(t, replyErr, errors.ErrDead)
		<-pid.Done()
		assert.NoError(t, pid.Err())
		assert.EqualValues(t, 0, system.DeadlettersCount())
	})
	t.Run("With external stop", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t)
		pid := spawnAdder(t, system, "adder", 1)
		require.NoError(t, pid.Start(ctx))

		require.NoError(t, pid.Stop(ctx))
		assert.Equal(t, StatusStopped, pid.Status())
		assert.ErrorIs(t, pid.enqueue(newAsyncEnvelope(ctx, &add{N: 1})), errors.ErrDead)
		assert.ErrorIs(t, pid.Start(ctx), errors.ErrDead)
		// stopping twice is fine
		require.NoError(t, pid.Stop(ctx))
	})
	t.Run("With stop before start", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t)
		pid := spawnAdder(t, system, "adder", 1)
		require.NoError(t, pid.Ref().Post(ctx, &add{N: 1}))

		require.NoError(t, pid.Stop(ctx))
		assert.EqualValues(t, 1, system.DeadlettersCount())
	})
	t.Run("With start twice", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t)
		pid := spawnAdder(t, system, "adder", 1)
		require.NoError(t, pid.Start(ctx))
		assert.ErrorIs(t, pid.Start(ctx), errors.ErrAlreadyStarted)
	})
	t.Run("With unhandled messages", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t)
		pid := spawnAdder(t, system, "adder", 1)
		require.NoError(t, pid.Start(ctx))

		_, err := pid.Ref().PostAndReply(ctx, "what", time.Second)
		assert.ErrorIs(t, err, errors.ErrUnhandled)

		require.NoError(t, pid.Ref().Post(ctx, "what"))
		require.Eventually(t, func() bool { return system.DeadlettersCount() == 1 }, time.Second, 5*time.Millisecond)
		assert.True(t, pid.IsRunning())
	})
	t.Run("With concurrent producers", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t)
		pid := spawnAdder(t, system, "adder", 0)
		require.NoError(t, pid.Start(ctx))

		const producers = 8
		const perProducer = 200

		var wg sync.WaitGroup
		for range producers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range perProducer {
					assert.NoError(t, pid.Ref().Post(ctx, &add{N: 1}))
				}
			}()
		}
		wg.Wait()

		total, err := Ask[int](ctx, pid.Ref(), new(get), 5*time.Second)
		require.NoError(t, err)
		assert.Equal(t, producers*perProducer, total)
	})
	t.Run("With per sender ordering", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t)

		type seq struct {
			Sender int
			N      int
		}

		pid, err := Spawn(ctx, system, "recorder", map[int][]int{},
			func(rctx *ReceiveContext, seen map[int][]int) (map[int][]int, error) {
				switch msg := rctx.Message().(type) {
				case *seq:
					seen[msg.Sender] = append(seen[msg.Sender], msg.N)
				case *get:
					return seen, rctx.Reply(seen)
				}
				return seen, nil
			}, WithAutoStart())
		require.NoError(t, err)

		var wg sync.WaitGroup
		for sender := range 4 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for n := range 100 {
					assert.NoError(t, pid.Ref().Post(ctx, &seq{Sender: sender, N: n}))
				}
			}()
		}
		wg.Wait()

		seen, err := Ask[map[int][]int](ctx, pid.Ref(), new(get), 5*time.Second)
		require.NoError(t, err)
		require.Len(t, seen, 4)
		for _, sequence := range seen {
			require.Len(t, sequence, 100)
			for i, n := range sequence {
				assert.Equal(t, i, n)
			}
		}
	})
}

func TestPIDRename(t *testing.T) {
	ctx := context.Background()
	system := newTestSystem(t)

	pid := spawnAdder(t, system, "", 0)
	require.NotEmpty(t, pid.Path())

	require.NoError(t, pid.Rename("counter"))
	assert.Equal(t, "counter", pid.Path())
	assert.Equal(t, "counter", pid.Address().Path())
	assert.ErrorIs(t, pid.Rename("other"), errors.ErrAlreadyRenamed)

	found, ok := system.ActorOf("counter")
	require.True(t, ok)
	assert.Same(t, pid, found)

	t.Run("With a taken name", func(t *testing.T) {
		other := spawnAdder(t, system, "", 0)
		assert.ErrorIs(t, other.Rename("counter"), errors.ErrActorAlreadyExists)
		// a rejected rename does not count
		require.NoError(t, other.Rename("counter-2"))
	})
	t.Run("With a started actor", func(t *testing.T) {
		started := spawnAdder(t, system, "", 0)
		require.NoError(t, started.Start(ctx))
		assert.ErrorIs(t, started.Rename("late"), errors.ErrRenameNotAllowed)
	})
	t.Run("With an invalid name", func(t *testing.T) {
		invalid := spawnAdder(t, system, "", 0)
		assert.Error(t, invalid.Rename("-nope"))
	})
}

func TestPIDPublish(t *testing.T) {
	ctx := context.Background()
	system := newTestSystem(t)
	pid := spawnAdder(t, system, "adder", 0)

	_, err := pid.Publish(ctx, "utcp")
	assert.ErrorIs(t, err, errors.ErrProtocolNotListening)
}

func TestSpawn(t *testing.T) {
	ctx := context.Background()
	t.Run("With a duplicate name", func(t *testing.T) {
		system := newTestSystem(t)
		spawnAdder(t, system, "adder", 0)
		_, err := Spawn(ctx, system, "adder", 0, adder)
		assert.ErrorIs(t, err, errors.ErrActorAlreadyExists)
	})
	t.Run("With a stopped system", func(t *testing.T) {
		system, err := NewSystem("test")
		require.NoError(t, err)
		_, err = Spawn(ctx, system, "adder", 0, adder)
		assert.ErrorIs(t, err, errors.ErrSystemNotStarted)
	})
	t.Run("With nested paths", func(t *testing.T) {
		system := newTestSystem(t)
		pid := spawnAdder(t, system, "/cluster/manager/", 0)
		assert.Equal(t, "cluster/manager", pid.Path())
	})
}
