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

type toggle struct{}

func counting(rctx *ReceiveContext, count int) (int, error) {
	switch rctx.Message().(type) {
	case *toggle:
		Become(rctx, doubling)
		return count, nil
	case *get:
		return count, rctx.Reply(count)
	default:
		return count + 1, nil
	}
}

func doubling(rctx *ReceiveContext, count int) (int, error) {
	switch rctx.Message().(type) {
	case *toggle:
		Become(rctx, counting)
		return count, nil
	case *get:
		return count, rctx.Reply(count)
	default:
		return count * 2, nil
	}
}

func TestBecome(t *testing.T) {
	ctx := context.Background()
	system := newTestSystem(t)
	pid, err := Spawn(ctx, system, "switcher", 0, counting, WithAutoStart())
	require.NoError(t, err)

	ref := pid.Ref()
	require.NoError(t, ref.Post(ctx, "tick"))
	require.NoError(t, ref.Post(ctx, "tick"))
	require.NoError(t, ref.Post(ctx, new(toggle)))
	require.NoError(t, ref.Post(ctx, "tick"))
	require.NoError(t, ref.Post(ctx, new(toggle)))
	require.NoError(t, ref.Post(ctx, "tick"))

	count, err := Ask[int](ctx, ref, new(get), time.Second)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestBecomeWithAnotherStateType(t *testing.T) {
	ctx := context.Background()
	system := newTestSystem(t)

	pid, err := Spawn(ctx, system, "confused", 0, func(rctx *ReceiveContext, count int) (int, error) {
		Become(rctx, Behavior[string](func(_ *ReceiveContext, s string) (string, error) { return s, nil }))
		return count + 1, nil
	}, WithAutoStart())
	require.NoError(t, err)

	_, err = pid.Ref().PostAndReply(ctx, "switch", time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidState)
	assert.True(t, pid.IsRunning())
}

func TestStepperKeepsStateOnError(t *testing.T) {
	var seen []int
	step := newStepper(10, func(_ *ReceiveContext, state int) (int, error) {
		seen = append(seen, state)
		if len(seen) == 2 {
			return 0, errors.ErrProcessing
		}
		return state + 1, nil
	})

	rctx := &ReceiveContext{}
	require.NoError(t, step(rctx))
	require.ErrorIs(t, step(rctx), errors.ErrProcessing)
	require.NoError(t, step(rctx))
	assert.Equal(t, []int{10, 11, 11}, seen)
}
