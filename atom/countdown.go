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

package atom

import (
	"context"

	"go.uber.org/atomic"
)

// CountdownLatch is a counter any goroutine can move up or down, with a
// busy-waiting join on zero.
type CountdownLatch struct {
	count atomic.Int64
}

// NewCountdownLatch creates a CountdownLatch starting at initial
func NewCountdownLatch(initial int64) *CountdownLatch {
	latch := &CountdownLatch{}
	latch.count.Store(initial)
	return latch
}

// Increment adds one to the counter
func (c *CountdownLatch) Increment() {
	c.count.Inc()
}

// Decrement removes one from the counter
func (c *CountdownLatch) Decrement() {
	c.count.Dec()
}

// Count returns the current counter value
func (c *CountdownLatch) Count() int64 {
	return c.count.Load()
}

// WaitToZero spins until the counter is observed at zero. It never sleeps.
func (c *CountdownLatch) WaitToZero() {
	spins := 1
	for c.count.Load() != 0 {
		backoff(spins)
		if spins < maxSpins {
			spins <<= 1
		}
	}
}

// WaitToZeroContext is WaitToZero bounded by ctx
func (c *CountdownLatch) WaitToZeroContext(ctx context.Context) error {
	spins := 1
	for c.count.Load() != 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		backoff(spins)
		if spins < maxSpins {
			spins <<= 1
		}
	}
	return nil
}
