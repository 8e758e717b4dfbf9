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

// Mailbox defines the contract for an actor's message queue.
//
// Implementations must accept concurrent Enqueue calls from any number of
// producers while a single consumer calls Dequeue. Envelopes enqueued by one
// producer are dequeued in enqueue order. Enqueue must not block: bounded
// implementations return ErrMailboxFull instead. Dequeue returns nil when the
// mailbox is empty.
type Mailbox interface {
	// Enqueue pushes an envelope into the mailbox
	Enqueue(envelope *Envelope) error
	// Dequeue fetches the next envelope, nil when empty
	Dequeue() *Envelope
	// IsEmpty reports whether the mailbox currently has no envelopes
	IsEmpty() bool
	// Len returns a snapshot of the number of envelopes in the mailbox
	Len() int64
	// Dispose releases resources held by the mailbox
	Dispose()
}
