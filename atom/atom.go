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

// Package atom provides the lock-free primitives the runtime uses to share
// mutable state: an optimistic compare-and-swap cell, a single-fire latch and
// a spinning countdown latch.
package atom

import (
	"runtime"

	"go.uber.org/atomic"
)

// maxSpins caps the number of scheduler yields between two attempts
const maxSpins = 32

// Atom is a mutable cell updated with optimistic compare-and-swap.
// Update functions given to Swap and Transact can run more than once under
// contention and must therefore be free of side effects.
type Atom[T any] struct {
	cell atomic.Pointer[T]
}

// New creates an Atom holding v
func New[T any](v T) *Atom[T] {
	a := new(Atom[T])
	a.cell.Store(&v)
	return a
}

// Load returns the current value
func (a *Atom[T]) Load() T {
	if ptr := a.cell.Load(); ptr != nil {
		return *ptr
	}
	var zero T
	return zero
}

// Store unconditionally replaces the current value
func (a *Atom[T]) Store(v T) {
	a.cell.Store(&v)
}

// Swap applies f to the current value until the result is installed
// without interference and returns the installed value.
func (a *Atom[T]) Swap(f func(T) T) T {
	next, _ := Transact(a, func(current T) (T, struct{}) {
		return f(current), struct{}{}
	})
	return next
}

// Transact is Swap with an auxiliary result computed alongside the new
// value. Only the result of the successful application is returned.
func Transact[T, R any](a *Atom[T], f func(T) (T, R)) (T, R) {
	spins := 1
	for {
		old := a.cell.Load()
		var current T
		if old != nil {
			current = *old
		}

		next, result := f(current)
		if a.cell.CompareAndSwap(old, &next) {
			return next, result
		}

		backoff(spins)
		if spins < maxSpins {
			spins <<= 1
		}
	}
}

func backoff(spins int) {
	for range spins {
		runtime.Gosched()
	}
}
