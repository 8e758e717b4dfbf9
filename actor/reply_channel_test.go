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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/troupe/errors"
)

func TestReplyChannel(t *testing.T) {
	t.Run("With a single write", func(t *testing.T) {
		reply, results := newLocalReplyChannel()
		assert.False(t, reply.Written())
		require.NoError(t, reply.Reply(42))
		assert.True(t, reply.Written())
		assert.ErrorIs(t, reply.Reply(43), errors.ErrReplyAlreadySent)
		assert.ErrorIs(t, reply.Fail(errors.ErrProcessing), errors.ErrReplyAlreadySent)

		result := <-results
		assert.Equal(t, 42, result.Value)
		assert.NoError(t, result.Err())
	})
	t.Run("With a failure", func(t *testing.T) {
		reply, results := newLocalReplyChannel()
		require.NoError(t, reply.Fail(errors.ErrMailboxFull))
		result := <-results
		assert.ErrorIs(t, result.Err(), errors.ErrMailboxFull)
	})
}

func TestPostAndReplyTimeout(t *testing.T) {
	ctx := context.Background()
	system := newTestSystem(t)
	pid, err := Spawn(ctx, system, "holder", []*ReplyChannel(nil), holder, WithAutoStart())
	require.NoError(t, err)

	_, err = pid.Ref().PostAndReply(ctx, new(hold), 50*time.Millisecond)
	require.ErrorIs(t, err, errors.ErrRequestTimeout)

	// the late reply lands nowhere
	released, err := Ask[int](ctx, pid.Ref(), new(release), time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, released)
	assert.True(t, pid.IsRunning())
}

func TestPostAndReplyContextCanceled(t *testing.T) {
	system := newTestSystem(t)
	pid, err := Spawn(context.Background(), system, "holder", []*ReplyChannel(nil), holder, WithAutoStart())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = pid.Ref().PostAndReply(ctx, new(hold), 0)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestReplyChannelForwarding(t *testing.T) {
	ctx := context.Background()
	system := newTestSystem(t)

	worker := spawnAdder(t, system, "worker", 7, WithAutoStart())

	// the front actor hands its reply channel to a goroutine that answers
	// with what the worker returned
	front, err := Spawn(ctx, system, "front", struct{}{}, Stateless(func(rctx *ReceiveContext) error {
		reply := rctx.ReplyChannel()
		go func() {
			total, err := Ask[int](context.Background(), worker.Ref(), new(get), time.Second)
			if err != nil {
				_ = reply.Fail(err)
				return
			}
			_ = reply.Reply(total * 2)
		}()
		return nil
	}), WithAutoStart())
	require.NoError(t, err)

	doubled, err := Ask[int](ctx, front.Ref(), new(get), time.Second)
	require.NoError(t, err)
	assert.Equal(t, 14, doubled)
}
