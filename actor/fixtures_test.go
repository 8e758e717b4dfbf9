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
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tochemey/troupe/log"
	"github.com/tochemey/troupe/remote"
)

type add struct {
	N int
}

type get struct{}

type divide struct {
	By int
}

type stop struct{}

type boom struct{}

type replyThenFail struct{}

type hold struct{}

type release struct{}

func init() {
	remote.RegisterSerializableTypes(new(add), new(get), new(divide), new(stop))
}

// adder keeps a running total
func adder(rctx *ReceiveContext, total int) (int, error) {
	switch msg := rctx.Message().(type) {
	case *add:
		return total + msg.N, nil
	case *get:
		return total, rctx.Reply(total)
	case *divide:
		if msg.By == 0 {
			return total, fmt.Errorf("cannot divide %d by zero", total)
		}
		return total / msg.By, rctx.Reply(total / msg.By)
	case *stop:
		rctx.Stop()
		return total, nil
	case *boom:
		panic("boom")
	case *replyThenFail:
		if err := rctx.Reply(total); err != nil {
			return total, err
		}
		return total, fmt.Errorf("failed after replying %d", total)
	default:
		rctx.Unhandled()
		return total, nil
	}
}

// holder keeps reply channels open until released
func holder(rctx *ReceiveContext, held []*ReplyChannel) ([]*ReplyChannel, error) {
	switch rctx.Message().(type) {
	case *hold:
		return append(held, rctx.ReplyChannel()), nil
	case *release:
		for _, reply := range held {
			_ = reply.Reply("late")
		}
		return nil, rctx.Reply(len(held))
	default:
		return held, nil
	}
}

func newTestSystem(t *testing.T, opts ...Option) *System {
	t.Helper()
	system, err := NewSystem("test", append([]Option{WithLogger(log.DiscardLogger)}, opts...)...)
	require.NoError(t, err)
	require.NoError(t, system.Start(context.Background()))
	t.Cleanup(func() {
		_ = system.Stop(context.Background())
	})
	return system
}

func spawnAdder(t *testing.T, system *System, name string, initial int, opts ...SpawnOption) *PID {
	t.Helper()
	pid, err := Spawn(context.Background(), system, name, initial, adder, opts...)
	require.NoError(t, err)
	return pid
}
