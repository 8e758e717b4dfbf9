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

// Package queue provides the lock-free queue backing actor mailboxes
package queue

import (
	"sync"
	"sync/atomic"
	"unsafe"
)

// cacheLinePadding prevents false sharing between the producer and consumer ends
type cacheLinePadding [64]byte

type node[T any] struct {
	value T
	next  unsafe.Pointer // *node[T]
}

// Mpsc is a lock-free multi-producer, single-consumer FIFO queue.
//
// Any number of goroutines may Push concurrently while exactly one goroutine
// calls Pop. Items pushed by a single producer come out in push order.
// Nodes are recycled through a sync.Pool.
//
// Reference: https://concurrencyfreaks.blogspot.com/2014/04/multi-producer-single-consumer-queue.html
type Mpsc[T any] struct {
	// consumer end
	head unsafe.Pointer // *node[T]
	_    cacheLinePadding

	// producer end
	tail unsafe.Pointer // *node[T]
	_    cacheLinePadding

	length atomic.Int64
	pool   sync.Pool
}

// NewMpsc creates an empty Mpsc queue
func NewMpsc[T any]() *Mpsc[T] {
	stub := new(node[T])
	q := &Mpsc[T]{
		head: unsafe.Pointer(stub),
		tail: unsafe.Pointer(stub),
	}
	q.pool.New = func() any { return new(node[T]) }
	return q
}

// Push appends value at the tail
func (q *Mpsc[T]) Push(value T) {
	n := q.pool.Get().(*node[T])
	n.value = value
	atomic.StorePointer(&n.next, nil)

	prev := (*node[T])(atomic.SwapPointer(&q.tail, unsafe.Pointer(n)))
	atomic.StorePointer(&prev.next, unsafe.Pointer(n))
	q.length.Add(1)
}

// Pop removes the value at the head. It returns false when the queue is empty.
// Must only be called by the single consumer.
func (q *Mpsc[T]) Pop() (T, bool) {
	var zero T
	head := (*node[T])(atomic.LoadPointer(&q.head))
	next := (*node[T])(atomic.LoadPointer(&head.next))
	if next == nil {
		return zero, false
	}

	atomic.StorePointer(&q.head, unsafe.Pointer(next))
	value := next.value
	next.value = zero
	q.length.Add(-1)

	head.next = nil
	q.pool.Put(head)
	return value, true
}

// Len returns a snapshot of the number of queued items
func (q *Mpsc[T]) Len() int64 {
	return q.length.Load()
}

// IsEmpty reports whether the queue holds no items. The result is a snapshot.
func (q *Mpsc[T]) IsEmpty() bool {
	head := (*node[T])(atomic.LoadPointer(&q.head))
	return atomic.LoadPointer(&head.next) == nil
}
